package ui

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/narscan/internal/tui"
	"github.com/vvka-141/narscan/pkg/narscan"
)

//go:embed assets/expensive_run.txt
var expensiveRunBanner string

// CostWarning announces an overridden expensive run and counts down before
// letting it start, giving the operator a last chance to press Ctrl+C.
type CostWarning struct {
	output    io.Writer
	sleepFn   func(time.Duration)
	countdown time.Duration
	styled    bool
}

// NewCostWarning creates a warning writing to stderr.
func NewCostWarning() *CostWarning {
	return &CostWarning{
		output:    os.Stderr,
		sleepFn:   time.Sleep,
		countdown: narscan.ExpensiveRunCountdown,
		styled:    tui.ColorEnabled(os.Stderr),
	}
}

// Confirm shows the warning for a run of count targets from region, where
// reads are only free from expected, and waits out the countdown.
// It returns the context error if canceled meanwhile.
func (w *CostWarning) Confirm(ctx context.Context, count int, region, expected string) error {
	if expected == "" {
		expected = narscan.CacheRegion
	}
	banner := strings.NewReplacer(
		"${count}", strconv.Itoa(count),
		"${region}", region,
		"${expected}", expected,
	).Replace(expensiveRunBanner)
	if w.styled {
		banner = tui.WarningStyle.Render(banner)
	}

	fmt.Fprintln(w.output)
	fmt.Fprint(w.output, banner)
	fmt.Fprintln(w.output)

	seconds := int(w.countdown.Seconds())
	for i := seconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w.output)
			return ctx.Err()
		default:
			fmt.Fprintf(w.output, "\rStarting in: %d seconds... (Press Ctrl+C to cancel)", i)
			w.sleepFn(time.Second)
		}
	}

	if err := ctx.Err(); err != nil {
		fmt.Fprintln(w.output)
		return err
	}

	fmt.Fprintf(w.output, "\r%s Proceeding with requester-pays reads...                  \n", tui.SymbolCheck)
	return nil
}
