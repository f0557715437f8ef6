package comment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationKind distinguishes the two field checks.
type ValidationKind string

const (
	KindMissing ValidationKind = "missing"
	KindTooLong ValidationKind = "too_long"
)

// ValidationError reports why a name/comment pair was refused.
type ValidationError struct {
	Kind   ValidationKind
	Fields []string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissing:
		return "Please provide both a name and a comment."
	default:
		return fmt.Sprintf("Name must be at most %d characters and comment at most %d.", MaxNameLength, MaxCommentLength)
	}
}

// Input is a normalized name/comment pair ready for validation.
type Input struct {
	Name string `validate:"required,max=50"`
	Text string `validate:"required,max=500"`
}

var validate = validator.New()

// Normalize trims surrounding whitespace from both fields. Markup is kept
// as typed and counts toward the length limits; pages escape it on output.
func Normalize(name, text string) Input {
	return Input{
		Name: strings.TrimSpace(name),
		Text: strings.TrimSpace(text),
	}
}

// Validate checks presence before length: a missing field wins over an
// over-long one.
func Validate(in Input) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating comment: %w", err)
	}

	var missing, tooLong []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		default:
			tooLong = append(tooLong, fe.Field())
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Kind: KindMissing, Fields: missing}
	}
	return &ValidationError{Kind: KindTooLong, Fields: tooLong}
}
