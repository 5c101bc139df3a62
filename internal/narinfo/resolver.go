package narinfo

import (
	"context"
	"fmt"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// Resolver fetches and parses narinfo documents through a Fetcher.
// Resolver is safe for concurrent use as long as the fetcher is.
type Resolver struct {
	fetcher narscan.Fetcher
}

// NewResolver creates a resolver reading through fetcher.
// Panics if fetcher is nil.
func NewResolver(fetcher narscan.Fetcher) *Resolver {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	return &Resolver{fetcher: fetcher}
}

// Key returns the cache key of the narinfo for hash.
func Key(hash string) string {
	return hash + ".narinfo"
}

// Resolve returns the archive descriptor for hash.
// A nil descriptor with a nil error means the cache has no archive for
// this hash, so there is nothing to scan.
func (r *Resolver) Resolve(ctx context.Context, hash string) (*narscan.ArchiveDescriptor, error) {
	status, body, err := r.fetcher.Download(ctx, Key(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", narscan.ErrMetadataFetch, err)
	}

	if status == narscan.StatusNotFound {
		return nil, nil
	}

	// Any other non-success status is fatal; the body is an error page.
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s: %w", status, Key(hash), narscan.ErrMetadataFetch)
	}

	desc, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("could not parse narinfo file: %w", err)
	}

	return desc, nil
}
