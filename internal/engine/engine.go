// Package engine drives a Processor over every target of a run with bounded
// concurrency.
//
// Workers only run the pipeline. Their outcomes travel over a channel to the
// calling goroutine, which alone reports results and counts completions, so
// reporters need no locking.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/narscan/internal/logging"
	"github.com/vvka-141/narscan/pkg/narscan"
)

// Engine runs a batch of targets.
type Engine struct {
	processor   narscan.Processor
	reporter    narscan.Reporter
	logger      narscan.Logger
	parallelism int

	// ProgressInterval is the number of completions between progress
	// reports. Defaults to narscan.ProgressInterval.
	ProgressInterval int
}

// New creates an engine processing at most parallelism targets at a time.
// A nil logger discards log output.
func New(processor narscan.Processor, reporter narscan.Reporter, logger narscan.Logger, parallelism int) (*Engine, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor is required: %w", narscan.ErrInvalidConfig)
	}
	if reporter == nil {
		return nil, fmt.Errorf("reporter is required: %w", narscan.ErrInvalidConfig)
	}
	if parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be positive, got %d: %w", parallelism, narscan.ErrInvalidConfig)
	}

	if logger == nil {
		logger = logging.NewNullLogger()
	}

	return &Engine{
		processor:        processor,
		reporter:         reporter,
		logger:           logger,
		parallelism:      parallelism,
		ProgressInterval: narscan.ProgressInterval,
	}, nil
}

// Run processes every target and returns once all of them completed.
// Individual failures are reported, never returned; the run is not cut short.
func (e *Engine) Run(ctx context.Context, targets []string) narscan.Summary {
	start := time.Now()
	summary := narscan.Summary{
		RunID: uuid.NewString(),
		Total: len(targets),
	}
	e.logger.Verbose("run %s: %d targets, parallelism %d", summary.RunID, summary.Total, e.parallelism)

	interval := e.ProgressInterval
	if interval <= 0 {
		interval = narscan.ProgressInterval
	}

	results := make(chan narscan.TargetOutcome, e.parallelism)

	// Processors report failures in the outcome, so workers never return
	// errors and the group context is never canceled.
	var g errgroup.Group
	g.SetLimit(e.parallelism)

	go func() {
		for _, target := range targets {
			g.Go(func() error {
				results <- e.process(ctx, target)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for outcome := range results {
		switch {
		case outcome.Failed():
			summary.Failed++
			e.reporter.Error(outcome)
		case !outcome.Matches.Empty():
			summary.Matched++
			e.reporter.Match(outcome)
		}

		summary.Processed++
		if summary.Processed%interval == 0 {
			e.reporter.Progress(summary.Processed, summary.Total)
		}
	}

	summary.Duration = time.Since(start)
	return summary
}

// process runs one target. A panicking processor fails only its own target.
func (e *Engine) process(ctx context.Context, target string) (outcome narscan.TargetOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while analyzing %s: %v\n%s", target, r, debug.Stack())
			outcome = narscan.TargetOutcome{
				Path: target,
				Err:  fmt.Errorf("panic while analyzing path %q: %v", target, r),
			}
		}
	}()
	return e.processor.Process(ctx, target)
}
