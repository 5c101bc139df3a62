package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/narscan/internal/tui"
	"github.com/vvka-141/narscan/pkg/narscan"
)

// ConsoleReporter prints scan results, one line per event.
// It is driven from a single goroutine and does no locking.
type ConsoleReporter struct {
	out    io.Writer
	styled bool
}

// NewConsoleReporter creates a reporter writing to out. Lines are styled
// only when out is a terminal.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out, styled: tui.ColorEnabled(out)}
}

// Match implements narscan.Reporter.
func (r *ConsoleReporter) Match(o narscan.TargetOutcome) {
	fmt.Fprintf(r.out, "%s %s: %s\n", r.render(tui.MatchStyle, "Found in"), o.Path, o.Matches)
}

// Error implements narscan.Reporter.
func (r *ConsoleReporter) Error(o narscan.TargetOutcome) {
	fmt.Fprintf(r.out, "%s %v\n", r.render(tui.ErrorStyle, "Error:"), o.Err)
}

// Progress implements narscan.Reporter.
func (r *ConsoleReporter) Progress(processed, total int) {
	fmt.Fprintln(r.out, r.render(tui.ProgressStyle, FormatProgress(processed, total)))
}

// FormatProgress renders "Processed N out of T (P%)" with an integer percentage.
func FormatProgress(processed, total int) string {
	percent := 100
	if total > 0 {
		percent = processed * 100 / total
	}
	return fmt.Sprintf("Processed %d out of %d (%d%%)", processed, total, percent)
}

// FormatSummary renders the end-of-run line.
func FormatSummary(s narscan.Summary) string {
	return fmt.Sprintf("Processed %d out of %d store paths in %s: %d matched, %d failed (run %s)",
		s.Processed, s.Total, s.Duration.Round(time.Millisecond), s.Matched, s.Failed, s.RunID)
}

func (r *ConsoleReporter) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

var _ narscan.Reporter = (*ConsoleReporter)(nil)
