package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/commentboard/internal/comment"
	"github.com/evcraddock/commentboard/internal/moderation"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
		{"multibyte", "ñññññññññ", 6, "ñññ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestPrintCommentTable(t *testing.T) {
	var buf bytes.Buffer
	comments := []*comment.Comment{
		{ID: 2, Name: "Bea", Text: "line one\nline two", IPSuffix: "9.9.9", CreatedAt: time.Now()},
		{ID: 1, Name: "Ana", Text: "Hola", IPSuffix: "2.3.4", CreatedAt: time.Now()},
	}

	if err := printCommentTable(&buf, comments); err != nil {
		t.Fatalf("print: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ID", "IP", "9.9.9", "line one line two", "Total: 2 comments"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintCommentTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printCommentTable(&buf, nil); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "No comments.") {
		t.Error("expected empty message")
	}
}

func TestPrintVerdict(t *testing.T) {
	var buf bytes.Buffer
	printVerdict(&buf, moderation.Verdict{Safe: true, Reason: moderation.ReasonTimeout, Outcome: moderation.OutcomeTimeout})

	out := buf.String()
	if !strings.Contains(out, "safe") || !strings.Contains(out, "moderation timeout") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "could not decide") {
		t.Error("expected fail-open note")
	}
}
