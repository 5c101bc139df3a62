package narscan

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success (including runs where individual targets failed)
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess        = 0  // Scan completed, per-target failures are reported, not escalated
	ExitGeneralError   = 1  // Unknown or unclassified error
	ExitUsageError     = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic          = 3  // Internal panic (unexpected crash)
	ExitConfigError    = 10 // Invalid configuration, no pattern, or rule compile failure
	ExitNoTargets      = 20 // Target source produced no store paths
	ExitCostGuardAbort = 21 // Large run from outside the cache region without override
	ExitNotImplemented = 22 // Requested target source is not implemented
)

const (
	// StoreDir is the root prefix every target store path must start with.
	StoreDir = "/nix/store/"

	// DefaultCDNURL is the public binary cache served through the CDN.
	DefaultCDNURL = "https://cache.nixos.org"

	// DefaultS3Bucket is the bucket backing the binary cache.
	// Reads from it are billed to the requester.
	DefaultS3Bucket = "nix-cache"

	// CacheRegion is the AWS region the cache bucket lives in.
	// Object-store reads from this region incur no egress cost.
	CacheRegion = "us-east-1"

	// UnknownRegion is reported when the region probe fails or times out.
	UnknownRegion = "not-aws"

	// ObjectStoreThreshold is the batch size from which the object store
	// is used instead of the CDN.
	ObjectStoreThreshold = 50

	// DefaultParallelism is the default number of store paths processed in flight.
	DefaultParallelism = 15

	// ProgressInterval is the number of completions between progress lines.
	ProgressInterval = 1000

	// UserAgent identifies narscan to the CDN.
	UserAgent = "narscan/1.0 (+https://github.com/vvka-141/narscan)"

	// RuleScanTimeout bounds the time a single rule scan over one file may take.
	RuleScanTimeout = 30 * time.Second

	// RegionProbeTimeout bounds the best-effort instance metadata lookup.
	RegionProbeTimeout = 2 * time.Second

	// NeedleTag is the tag reported by the exact-needle matcher.
	NeedleTag = "needle"

	// StatusNotFound is the status code the cache answers with for a missing
	// narinfo. Object-store fetchers synthesize it for absent objects.
	StatusNotFound = 403

	// ExpensiveRunCountdown is how long an overridden expensive run waits
	// before starting, giving the operator a chance to abort.
	ExpensiveRunCountdown = 5 * time.Second
)
