package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const selectColumns = "SELECT id, name, comment, created_at, ip_suffix FROM comments"

// Repository provides CRUD operations for comments.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Insert stores a new comment. The ID and creation time are assigned here.
func (r *Repository) Insert(ctx context.Context, name, text, ipSuffix string) (*Comment, error) {
	if name == "" || text == "" {
		return nil, fmt.Errorf("name and comment are required")
	}

	createdAt := r.now().UTC()
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (name, comment, created_at, ip_suffix) VALUES (?, ?, ?, ?)",
		name, text, createdAt, ipSuffix,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading back comment: %w", err)
	}
	return c, nil
}

// GetByID returns a single comment, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Text, &c.CreatedAt, &c.IPSuffix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting comment %d: %w", id, err)
	}
	return &c, nil
}

// ListAll returns every comment, newest first.
func (r *Repository) ListAll(ctx context.Context) (comments []*Comment, err error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Name, &c.Text, &c.CreatedAt, &c.IPSuffix); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// LatestFingerprint returns the ip_suffix of the most recent comment.
// ok is false when the board is empty.
func (r *Repository) LatestFingerprint(ctx context.Context) (suffix string, ok bool, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT ip_suffix FROM comments ORDER BY created_at DESC, id DESC LIMIT 1",
	).Scan(&suffix)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading latest fingerprint: %w", err)
	}
	return suffix, true, nil
}

// Count returns the number of stored comments.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return n, nil
}

// Update replaces the name and text of a comment. created_at and
// ip_suffix are never touched. Returns ErrNotFound for an unknown ID.
func (r *Repository) Update(ctx context.Context, id int64, name, text string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE comments SET name = ?, comment = ? WHERE id = ?",
		name, text, id,
	)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment by ID. Deleting an unknown ID is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}
