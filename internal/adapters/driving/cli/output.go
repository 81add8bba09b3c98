package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// formatStats renders reconcile counters on one line. Non-zero counters are
// highlighted.
func formatStats(s domain.ReconcileStats) string {
	part := func(label string, n int, paint func(...any) string) string {
		text := fmt.Sprintf("%s %d", label, n)
		if n == 0 {
			return text
		}
		return paint(text)
	}
	return fmt.Sprintf("%s, %s, %s, %s, %s",
		part("added", s.Added, green),
		part("updated", s.Updated, yellow),
		part("removed", s.Removed, yellow),
		part("unchanged", s.Unchanged, faint),
		part("errors", s.Errors, red),
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
