package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned when a reply is not exactly {"safe", "reason"}.
var ErrMalformed = errors.New("malformed moderation reply")

// Decision is a successfully decoded classifier reply.
type Decision struct {
	Safe   bool
	Reason string
}

type wireDecision struct {
	Safe   *bool   `json:"safe"`
	Reason *string `json:"reason"`
}

// DecodeDecision parses raw as a single JSON object holding a boolean
// "safe" and a string "reason". Unknown fields, missing fields, and
// trailing text are rejected.
func DecodeDecision(raw string) (Decision, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()

	var w wireDecision
	if err := dec.Decode(&w); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Decision{}, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}
	if w.Safe == nil {
		return Decision{}, fmt.Errorf("%w: missing \"safe\"", ErrMalformed)
	}
	if w.Reason == nil {
		return Decision{}, fmt.Errorf("%w: missing \"reason\"", ErrMalformed)
	}

	return Decision{Safe: *w.Safe, Reason: strings.TrimSpace(*w.Reason)}, nil
}
