// Package admission decides whether a public submission is stored.
//
// Checks run in order and stop at the first rejection: field presence,
// field length, the duplicate-predecessor check, then moderation. Only a
// submission that passes all of them is inserted.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/commentboard/internal/comment"
	"github.com/evcraddock/commentboard/internal/lock"
	"github.com/evcraddock/commentboard/internal/metrics"
	"github.com/evcraddock/commentboard/internal/moderation"
)

// LockTTL bounds how long one fingerprint's admission can hold its lock.
const LockTTL = 30 * time.Second

// Kind names the reason class of a rejection.
type Kind string

const (
	KindInvalid   Kind = "invalid"
	KindDuplicate Kind = "duplicate"
	KindUnsafe    Kind = "unsafe"
)

// ReasonDuplicate is shown when the previous comment came from the same fingerprint.
const ReasonDuplicate = "Consecutive comments from the same address are not allowed. Please wait and try again later."

// Rejection explains why a submission was refused. Rejections are
// outcomes, not errors.
type Rejection struct {
	Kind   Kind
	Reason string
}

// Result is the outcome of one submission.
type Result struct {
	Accepted  bool
	Comment   *comment.Comment
	Rejection *Rejection
	// Verdict is zero unless moderation ran.
	Verdict moderation.Verdict
}

// Store is the slice of the comment repository the pipeline needs.
type Store interface {
	LatestFingerprint(ctx context.Context) (string, bool, error)
	Insert(ctx context.Context, name, text, ipSuffix string) (*comment.Comment, error)
}

// Moderator classifies comment text.
type Moderator interface {
	Classify(ctx context.Context, text string) moderation.Verdict
}

// Pipeline runs the admission checks.
type Pipeline struct {
	store     Store
	moderator Moderator
	locker    lock.Locker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocker serializes admissions per fingerprint. Without one the
// duplicate check and the insert can interleave across requests.
func WithLocker(l lock.Locker) Option {
	return func(p *Pipeline) { p.locker = l }
}

// WithMetrics records outcomes and moderation latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline.
func New(store Store, moderator Moderator, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		moderator: moderator,
		locker:    lock.Nop{},
		logger:    slog.Default().With("component", "admission"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit runs the checks for one submission. The returned error is
// reserved for store or lock failures.
func (p *Pipeline) Submit(ctx context.Context, name, text, fingerprint string) (Result, error) {
	in := comment.Normalize(name, text)
	if err := comment.Validate(in); err != nil {
		var verr *comment.ValidationError
		if !errors.As(err, &verr) {
			return Result{}, err
		}
		return p.reject(KindInvalid, verr.Error()), nil
	}

	release, err := p.locker.Acquire(ctx, fingerprint, LockTTL)
	if errors.Is(err, lock.ErrLocked) {
		p.logger.Info("admission in flight for fingerprint", "fingerprint", fingerprint)
		return p.reject(KindDuplicate, ReasonDuplicate), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("acquiring admission lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			p.logger.Warn("releasing admission lock", "fingerprint", fingerprint, "error", err)
		}
	}()

	last, ok, err := p.store.LatestFingerprint(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("checking previous submission: %w", err)
	}
	if ok && last == fingerprint {
		return p.reject(KindDuplicate, ReasonDuplicate), nil
	}

	start := time.Now()
	verdict := p.moderator.Classify(ctx, in.Text)
	p.metrics.Moderation(string(verdict.Outcome), time.Since(start))

	if !verdict.Safe {
		res := p.reject(KindUnsafe, fmt.Sprintf("Comment rejected by moderation: %s. Please use appropriate language.", verdict.Reason))
		res.Verdict = verdict
		return res, nil
	}

	c, err := p.store.Insert(ctx, in.Name, in.Text, fingerprint)
	if err != nil {
		return Result{}, fmt.Errorf("storing comment: %w", err)
	}

	p.metrics.Submission("accepted")
	p.logger.Info("comment accepted",
		"id", c.ID,
		"fingerprint", fingerprint,
		"moderation", string(verdict.Outcome),
	)
	return Result{Accepted: true, Comment: c, Verdict: verdict}, nil
}

func (p *Pipeline) reject(kind Kind, reason string) Result {
	p.metrics.Submission(string(kind))
	return Result{Rejection: &Rejection{Kind: kind, Reason: reason}}
}
