package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// SessionStore keeps issued admin session tokens server-side.
type SessionStore interface {
	Create(ctx context.Context, token string, ttl time.Duration) error
	Valid(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

// SQLiteSessionStore manages sessions in the admin_sessions table.
type SQLiteSessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSessionStore creates a session store.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db, now: time.Now}
}

// Create stores a token that expires after ttl.
func (s *SQLiteSessionStore) Create(ctx context.Context, token string, ttl time.Duration) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO admin_sessions (token, expires_at) VALUES (?, ?)",
		token, s.now().UTC().Add(ttl),
	); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// Valid reports whether token exists and has not expired.
func (s *SQLiteSessionStore) Valid(ctx context.Context, token string) (bool, error) {
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT expires_at FROM admin_sessions WHERE token = ?", token,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying session: %w", err)
	}

	if s.now().After(expiresAt) {
		// Clean up expired session
		if err := s.Delete(ctx, token); err != nil {
			return false, fmt.Errorf("deleting expired session: %w", err)
		}
		return false, nil
	}

	return true, nil
}

// Delete removes a token. Unknown tokens are ignored.
func (s *SQLiteSessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions.
func (s *SQLiteSessionStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM admin_sessions WHERE expires_at < ?",
		s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
