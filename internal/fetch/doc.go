// Package fetch implements the two retrieval backends of the binary cache.
//
// CDNFetcher issues plain HTTP GETs against the cache CDN and returns the
// status code and body verbatim. S3Fetcher reads the bucket backing the
// cache with requester-pays billing and synthesizes status codes: 200 for a
// successful read and narscan.StatusNotFound for an absent object, so both
// backends share the same not-found rule.
//
// Both fetchers are immutable after construction and safe for concurrent use.
package fetch
