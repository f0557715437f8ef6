// Package moderation classifies comment text as safe or unsafe using an
// external language model. Any failure of the model admits the text.
package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// SystemPrompt fixes the classifier's output contract.
const SystemPrompt = `You are a strict comment moderator. Classify the user's comment as "safe" ` +
	`(appropriate: no spam, insults, hate, or advertising) or "unsafe" (inappropriate: ` +
	`offensive language, spam, hate, advertising, and the like). Respond ONLY with ` +
	`{"safe": true/false, "reason": "brief explanation"}. Do not add any other text.`

// Fail-open reasons shown to operators and, for admitted text, ignored by users.
const (
	ReasonUnavailable = "moderation unavailable"
	ReasonError       = "moderation error"
	ReasonTimeout     = "moderation timeout"
	ReasonFlagged     = "flagged by moderation"
)

// Outcome records how a verdict was reached.
type Outcome string

const (
	OutcomeClassified  Outcome = "classified"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeError       Outcome = "error"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeTimeout     Outcome = "timeout"
)

// Verdict is the moderator's decision for one piece of text.
type Verdict struct {
	Safe    bool
	Reason  string
	Outcome Outcome
}

// FailedOpen reports whether the text was admitted because the model could not decide.
func (v Verdict) FailedOpen() bool {
	return v.Outcome != OutcomeClassified
}

// Request is a two-message exchange sent to a Classifier.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Classifier sends a Request to a model and returns its raw text reply.
type Classifier interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options tune the request sent to the classifier.
type Options struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// DefaultOptions favor short, deterministic replies.
func DefaultOptions() Options {
	return Options{
		Timeout:     5 * time.Second,
		MaxTokens:   100,
		Temperature: 0.1,
	}
}

// Moderator turns classifier replies into verdicts.
type Moderator struct {
	classifier Classifier
	opts       Options
	logger     *slog.Logger
}

// New creates a Moderator. A nil classifier means moderation is not
// configured and every text is admitted.
func New(classifier Classifier, opts Options) *Moderator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &Moderator{
		classifier: classifier,
		opts:       opts,
		logger:     slog.Default().With("component", "moderation"),
	}
}

// Available reports whether a classifier is wired.
func (m *Moderator) Available() bool {
	return m != nil && m.classifier != nil
}

// Classify asks the model about text. Only an explicit unsafe verdict
// rejects; everything else fails open.
func (m *Moderator) Classify(ctx context.Context, text string) Verdict {
	if !m.Available() {
		m.logger.Warn("moderation not configured, admitting")
		return Verdict{Safe: true, Reason: ReasonUnavailable, Outcome: OutcomeUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	raw, err := m.classifier.Complete(ctx, Request{
		System:      SystemPrompt,
		User:        text,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: m.opts.Temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			m.logger.Warn("moderation timed out, admitting", "timeout", m.opts.Timeout.String())
			return Verdict{Safe: true, Reason: ReasonTimeout, Outcome: OutcomeTimeout}
		}
		m.logger.Warn("moderation call failed, admitting", "error", err)
		return Verdict{Safe: true, Reason: ReasonError, Outcome: OutcomeError}
	}

	d, err := DecodeDecision(raw)
	if err != nil {
		m.logger.Warn("moderation reply malformed, admitting", "error", err, "reply", raw)
		return Verdict{Safe: true, Reason: ReasonError, Outcome: OutcomeMalformed}
	}

	reason := d.Reason
	if !d.Safe && reason == "" {
		reason = ReasonFlagged
	}
	return Verdict{Safe: d.Safe, Reason: reason, Outcome: OutcomeClassified}
}
