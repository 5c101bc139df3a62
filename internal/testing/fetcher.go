package testing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// Response is a canned answer for one cache key.
type Response struct {
	Status int
	Body   []byte
	Err    error
}

// MemoryFetcher serves canned responses from memory.
// Keys without a response answer with narscan.StatusNotFound, like the cache.
// Safe for concurrent use by multiple goroutines.
type MemoryFetcher struct {
	mu        sync.RWMutex
	responses map[string]Response
	requests  map[string]int

	calls atomic.Int64

	// OnDownload, if set, runs before every download (used to observe concurrency).
	OnDownload func(ctx context.Context, key string)
}

// NewMemoryFetcher creates an empty fetcher.
func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{
		responses: make(map[string]Response),
		requests:  make(map[string]int),
	}
}

// Set registers a successful response for key.
func (f *MemoryFetcher) Set(key string, body []byte) {
	f.SetResponse(key, Response{Status: 200, Body: body})
}

// SetResponse registers an arbitrary response for key.
func (f *MemoryFetcher) SetResponse(key string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = resp
}

// Name implements narscan.Fetcher.
func (f *MemoryFetcher) Name() string {
	return "memory"
}

// Download implements narscan.Fetcher.
func (f *MemoryFetcher) Download(ctx context.Context, key string) (int, []byte, error) {
	f.calls.Add(1)
	if f.OnDownload != nil {
		f.OnDownload(ctx, key)
	}

	f.mu.Lock()
	f.requests[key]++
	resp, ok := f.responses[key]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if !ok {
		return narscan.StatusNotFound, []byte("access denied"), nil
	}
	if resp.Err != nil {
		return 0, nil, resp.Err
	}
	return resp.Status, resp.Body, nil
}

// Calls returns the total number of downloads.
func (f *MemoryFetcher) Calls() int {
	return int(f.calls.Load())
}

// Requests returns how often key was downloaded.
func (f *MemoryFetcher) Requests(key string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.requests[key]
}

var _ narscan.Fetcher = (*MemoryFetcher)(nil)
