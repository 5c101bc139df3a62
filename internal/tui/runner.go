package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/narscan/internal/tui/components"
)

// RunWithSpinner runs fn while a spinner labeled message is shown on stderr.
// In non-interactive mode fn simply runs. Canceling the spinner cancels the
// context passed to fn and the call fails with context.Canceled unless fn
// already reported an error.
func RunWithSpinner[T any](ctx context.Context, message string, fn func(context.Context) (T, error)) (T, error) {
	if !IsInteractive() {
		return fn(ctx)
	}
	return runSpinner(ctx, message, fn, tea.WithOutput(os.Stderr))
}

func runSpinner[T any](ctx context.Context, message string, fn func(context.Context) (T, error), opts ...tea.ProgramOption) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		value T
		err   error
	}

	p := tea.NewProgram(components.NewSpinner(message, DefaultKeyMap().Cancel), opts...)
	done := make(chan result, 1)

	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
		if err != nil {
			p.Send(components.SpinnerFailed(err))
		} else {
			p.Send(components.SpinnerDone(fmt.Sprint(v)))
		}
	}()

	final, err := p.Run()
	if err != nil {
		// Without a usable terminal, wait for fn silently.
		r := <-done
		return r.value, r.err
	}

	// A canceled spinner quits before fn returns; fn observes ctx.
	cancel()
	r := <-done
	if s, ok := final.(components.Spinner); ok && s.Canceled() && r.err == nil {
		var zero T
		return zero, context.Canceled
	}
	return r.value, r.err
}
