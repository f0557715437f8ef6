package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/commentboard/internal/comment"
	"github.com/evcraddock/commentboard/internal/moderation"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCommentTable prints comments as a formatted table, newest first.
func printCommentTable(out io.Writer, comments []*comment.Comment) error {
	if len(comments) == 0 {
		fmt.Fprintln(out, "No comments.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tCREATED\tIP\tNAME\tCOMMENT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-------\t--\t----\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, c := range comments {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.CreatedAt.Local().Format("2006-01-02 15:04"),
			c.IPSuffix,
			truncate(c.Name, 20),
			truncate(oneLine(c.Text), 50),
		); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d comments\n", len(comments))
	return nil
}

// printVerdict prints a moderation verdict in text format.
func printVerdict(w io.Writer, v moderation.Verdict) {
	label := "safe"
	if !v.Safe {
		label = "unsafe"
	}
	fmt.Fprintf(w, "Verdict:  %s\n", label)
	fmt.Fprintf(w, "Reason:   %s\n", v.Reason)
	fmt.Fprintf(w, "Outcome:  %s\n", v.Outcome)
	if v.FailedOpen() {
		fmt.Fprintln(w, "(admitted because the classifier could not decide)")
	}
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
