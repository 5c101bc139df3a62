// Package costguard decides, once per run, which retrieval backend a batch
// may use without incurring egress costs.
//
// Small batches always go through the CDN. Large batches read the
// requester-pays bucket directly, which is only free from inside the cache
// region, so they are refused elsewhere unless the operator overrides it.
package costguard

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/narscan/internal/logging"
	"github.com/vvka-141/narscan/pkg/narscan"
)

// Backend identifies the selected retrieval backend.
type Backend int

const (
	BackendCDN Backend = iota
	BackendObjectStore
)

// String returns the backend name used in logs.
func (b Backend) String() string {
	switch b {
	case BackendCDN:
		return "cdn"
	case BackendObjectStore:
		return "s3"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// Decision is the outcome of the cost guard.
type Decision struct {
	Backend Backend

	// Region is the detected region, empty when no probe was needed
	Region string

	// Overridden is set when the object store was selected only because of
	// the override, i.e. the run may be billed for egress.
	Overridden bool
}

// Guard holds the selection policy.
type Guard struct {
	// Detector probes the current region. Only consulted for large batches.
	Detector RegionDetector

	// AllowExpensive selects the object store regardless of region
	AllowExpensive bool

	// ExpectedRegion defaults to narscan.CacheRegion
	ExpectedRegion string

	// Threshold defaults to narscan.ObjectStoreThreshold
	Threshold int

	// Logger defaults to a logging.NullLogger
	Logger narscan.Logger
}

// FetcherFactory builds the backend chosen by the guard.
type FetcherFactory interface {
	CDN() (narscan.Fetcher, error)
	ObjectStore(ctx context.Context) (narscan.Fetcher, error)
}

// Decide selects a backend for a batch of n targets.
func (g *Guard) Decide(ctx context.Context, n int) (Decision, error) {
	if n == 0 {
		return Decision{}, fmt.Errorf("no paths to check: %w", narscan.ErrNoTargets)
	}

	threshold := g.Threshold
	if threshold <= 0 {
		threshold = narscan.ObjectStoreThreshold
	}
	if n < threshold {
		g.logger().Verbose("%d targets is below the object store threshold of %d, using the CDN", n, threshold)
		return Decision{Backend: BackendCDN}, nil
	}

	expected := g.ExpectedRegion
	if expected == "" {
		expected = narscan.CacheRegion
	}

	region, err := g.probe(ctx)
	if err != nil {
		return Decision{}, err
	}
	if region == expected {
		return Decision{Backend: BackendObjectStore, Region: region}, nil
	}
	if g.AllowExpensive {
		return Decision{Backend: BackendObjectStore, Region: region, Overridden: true}, nil
	}

	return Decision{Region: region}, fmt.Errorf(
		"%d targets would be read from the requester-pays bucket from region %q: %w\n"+
			"To avoid unnecessary costs, please run this program in the AWS %s region.\n"+
			"This behavior can be overridden with --allow-possibly-expensive-run.",
		n, region, narscan.ErrCostGuardAbort, expected)
}

// Select decides on a backend and builds it through factory.
func (g *Guard) Select(ctx context.Context, n int, factory FetcherFactory) (narscan.Fetcher, Decision, error) {
	decision, err := g.Decide(ctx, n)
	if err != nil {
		return nil, decision, err
	}

	var fetcher narscan.Fetcher
	switch decision.Backend {
	case BackendObjectStore:
		fetcher, err = factory.ObjectStore(ctx)
	default:
		fetcher, err = factory.CDN()
	}
	if err != nil {
		return nil, decision, fmt.Errorf("failed to create %s fetcher: %w", decision.Backend, err)
	}

	return fetcher, decision, nil
}

// probe returns the detected region, or narscan.UnknownRegion when the
// lookup fails or exceeds narscan.RegionProbeTimeout. An interrupted probe
// is an error: the operator canceled the run.
func (g *Guard) probe(ctx context.Context) (string, error) {
	if g.Detector == nil {
		return narscan.UnknownRegion, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, narscan.RegionProbeTimeout)
	defer cancel()

	region, err := g.Detector.Region(probeCtx)
	if cerr := ctx.Err(); cerr != nil {
		return "", fmt.Errorf("region probe interrupted: %w", cerr)
	}
	if errors.Is(err, context.Canceled) {
		return "", fmt.Errorf("region probe interrupted: %w", err)
	}
	if err != nil || region == "" {
		g.logger().Verbose("region probe failed, assuming %s: %v", narscan.UnknownRegion, err)
		return narscan.UnknownRegion, nil
	}

	g.logger().Verbose("detected region %s", region)
	return region, nil
}

func (g *Guard) logger() narscan.Logger {
	if g.Logger == nil {
		return logging.NewNullLogger()
	}
	return g.Logger
}
