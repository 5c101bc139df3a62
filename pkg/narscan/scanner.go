package narscan

import "context"

// Processor runs the fetch-decode-scan pipeline for a single store path.
type Processor interface {
	// Process never returns a Go error; failures are carried in the outcome.
	Process(ctx context.Context, target string) TargetOutcome
}

// Reporter receives scan results as the engine drains them.
// Calls are made from a single goroutine.
type Reporter interface {
	Match(outcome TargetOutcome)
	Error(outcome TargetOutcome)
	Progress(processed, total int)
}
