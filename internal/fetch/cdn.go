package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// CDNFetcher downloads cache objects over HTTP.
type CDNFetcher struct {
	baseURL string
	client  *http.Client
}

// NewCDNFetcher creates a fetcher for the cache served at baseURL.
// maxConns sizes the idle connection pool; values below 1 keep the client default.
func NewCDNFetcher(baseURL string, maxConns int) (*CDNFetcher, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("CDN base URL is required: %w", narscan.ErrInvalidConfig)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("CDN base URL must be http(s), got %q: %w", baseURL, narscan.ErrInvalidConfig)
	}

	client := cleanhttp.DefaultPooledClient()
	if maxConns > 0 {
		if t, ok := client.Transport.(*http.Transport); ok {
			t.MaxIdleConnsPerHost = maxConns
		}
	}

	return &CDNFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}, nil
}

// Name implements narscan.Fetcher.
func (f *CDNFetcher) Name() string {
	return "cdn"
}

// Download implements narscan.Fetcher.
// Every status is returned as-is; only transport failures are errors.
func (f *CDNFetcher) Download(ctx context.Context, key string) (int, []byte, error) {
	url := f.baseURL + "/" + strings.TrimLeft(key, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", narscan.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return resp.StatusCode, body, nil
}

var _ narscan.Fetcher = (*CDNFetcher)(nil)
