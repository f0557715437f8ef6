// Package lock provides short-lived mutual exclusion keyed by string,
// shared across processes through SQLite or Redis.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("lock is held")

// Release gives a lock back. Releasing an expired or stolen lock is a no-op.
type Release func(ctx context.Context) error

// Locker acquires a lock on key for at most ttl.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Nop never blocks. Admissions are then best-effort.
type Nop struct{}

// Acquire implements Locker.
func (Nop) Acquire(context.Context, string, time.Duration) (Release, error) {
	return func(context.Context) error { return nil }, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
