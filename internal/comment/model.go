// Package comment provides the comment domain model, field rules, and data access.
package comment

import (
	"errors"
	"time"
)

// Field limits, counted in characters.
const (
	MaxNameLength    = 50
	MaxCommentLength = 500
)

// ErrNotFound is returned when a comment ID does not exist.
var ErrNotFound = errors.New("comment not found")

// Comment is a single name/comment pair left on the board.
type Comment struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	IPSuffix  string    `json:"ip_suffix"`
}
