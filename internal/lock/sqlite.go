package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteLocker stores locks in the admission_locks table.
type SQLiteLocker struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteLocker creates a locker on an already migrated database.
func NewSQLiteLocker(db *sql.DB) *SQLiteLocker {
	return &SQLiteLocker{db: db, now: time.Now}
}

// Acquire takes the row for key, or steals it once the previous holder expired.
func (l *SQLiteLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating lock token: %w", err)
	}

	now := l.now().UTC()
	result, err := l.db.ExecContext(ctx,
		`INSERT INTO admission_locks (fingerprint, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
		WHERE admission_locks.expires_at < ?`,
		key, token, now.Add(ttl), now,
	)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		if _, err := l.db.ExecContext(ctx,
			"DELETE FROM admission_locks WHERE fingerprint = ? AND token = ?",
			key, token,
		); err != nil {
			return fmt.Errorf("releasing lock: %w", err)
		}
		return nil
	}, nil
}
