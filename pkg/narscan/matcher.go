package narscan

import "context"

// Matcher decides whether a byte buffer matches and under which tags.
// Implementations are immutable after construction and safe for
// concurrent use by multiple goroutines.
type Matcher interface {
	// Name identifies the matcher in logs.
	Name() string

	// Match returns the tags that matched data. An empty result means no match.
	Match(ctx context.Context, data []byte) ([]string, error)
}
