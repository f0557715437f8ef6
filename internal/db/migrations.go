package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Every statement must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS comments (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		name       TEXT     NOT NULL,
		comment    TEXT     NOT NULL,
		created_at DATETIME NOT NULL,
		ip_suffix  TEXT     NOT NULL DEFAULT '0.0.0'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS admin_sessions (
		token      TEXT     PRIMARY KEY,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS admission_locks (
		fingerprint TEXT     PRIMARY KEY,
		token       TEXT     NOT NULL,
		expires_at  DATETIME NOT NULL
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
