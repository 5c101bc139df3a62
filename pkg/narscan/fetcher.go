package narscan

import "context"

// Fetcher retrieves raw objects from the binary cache.
// Implementations are immutable after construction and safe for
// concurrent use by multiple goroutines.
//
// Implementations:
//   - CDNFetcher: plain HTTP GET against the cache CDN
//   - S3Fetcher: authenticated requester-pays reads from the cache bucket
type Fetcher interface {
	// Name identifies the fetcher in logs ("cdn" or "s3").
	Name() string

	// Download fetches the object stored under key.
	//
	// Returns:
	//   - int: the status code (synthesized for backends without one)
	//   - []byte: the object body
	//   - error: transport or API failure
	Download(ctx context.Context, key string) (int, []byte, error)
}
