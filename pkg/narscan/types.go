package narscan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ArchiveDescriptor is the part of a narinfo needed to fetch and unpack a NAR.
type ArchiveDescriptor struct {
	// URL is the archive location relative to the cache root (e.g. "nar/<hash>.nar.xz")
	URL string

	// Compression names the algorithm the archive is compressed with (e.g. "xz")
	Compression string

	// NarSize is the uncompressed size announced by the cache.
	// It is a capacity hint only and is never verified.
	NarSize uint64
}

// EntryType is the kind of a NAR member.
type EntryType string

const (
	EntryRegular   EntryType = "regular"
	EntryDirectory EntryType = "directory"
	EntrySymlink   EntryType = "symlink"
)

// Entry describes one member of a decoded NAR.
type Entry struct {
	// Path is the member path inside the archive, "/" for the root node
	Path string

	Type       EntryType
	Size       int64
	Executable bool
	LinkTarget string
}

// IsFile reports whether the entry carries file content to scan.
func (e *Entry) IsFile() bool {
	return e.Type == EntryRegular
}

// MatchResult maps archive member paths to the tags that matched them.
type MatchResult map[string][]string

// Add records tags for a member path. Empty tag lists are ignored.
func (m MatchResult) Add(path string, tags ...string) {
	if len(tags) == 0 {
		return
	}
	m[path] = append(m[path], tags...)
}

// Empty reports whether nothing matched.
func (m MatchResult) Empty() bool {
	return len(m) == 0
}

// Files returns the matched member paths in sorted order.
func (m MatchResult) Files() []string {
	files := make([]string, 0, len(m))
	for f := range m {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// String renders the result as {"file": ["tag", ...], ...} with files sorted.
func (m MatchResult) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range m.Files() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: [", f)
		for j, tag := range m[f] {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", tag)
		}
		b.WriteByte(']')
	}
	b.WriteByte('}')
	return b.String()
}

// TargetOutcome is the result of processing one store path.
// Exactly one of Matches (possibly empty) or Err is meaningful.
type TargetOutcome struct {
	Path    string
	Matches MatchResult
	Err     error
}

// Failed reports whether processing the target ended in an error.
func (o TargetOutcome) Failed() bool {
	return o.Err != nil
}

// ScanConfig contains the parameters for one scan run.
type ScanConfig struct {
	// Targets are the store paths to scan
	Targets []string

	// Needle is the exact byte sequence to look for (mutually exclusive with RulesFile)
	Needle string

	// RulesFile is the path of a YAML rule set (mutually exclusive with Needle)
	RulesFile string

	// Parallelism is the maximum number of store paths processed concurrently
	Parallelism int

	// AllowExpensive overrides the cost guard for large runs
	AllowExpensive bool

	// CDNURL is the base URL of the binary cache CDN
	CDNURL string

	// S3Bucket is the object-store bucket backing the cache
	S3Bucket string

	// S3Endpoint optionally overrides the object-store endpoint (for mirrors)
	S3Endpoint string

	// ExpectedRegion is the region in which object-store reads are free
	ExpectedRegion string

	// Region, if set, replaces the instance metadata probe
	Region string

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the ScanConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *ScanConfig) Validate() error {
	var errs []error

	if c.Needle == "" && c.RulesFile == "" {
		errs = append(errs, fmt.Errorf("please use either --needle or --rules: %w", ErrNoPattern))
	}

	if c.Needle != "" && c.RulesFile != "" {
		errs = append(errs, fmt.Errorf("needle and rules are mutually exclusive: %w", ErrInvalidConfig))
	}

	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be positive, got %d: %w", c.Parallelism, ErrInvalidConfig))
	}

	if c.CDNURL == "" {
		errs = append(errs, fmt.Errorf("CDNURL is required: %w", ErrInvalidConfig))
	}

	if c.S3Bucket == "" {
		errs = append(errs, fmt.Errorf("S3Bucket is required: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// Summary describes a finished scan run.
type Summary struct {
	RunID     string
	Total     int
	Processed int
	Matched   int
	Failed    int
	Duration  time.Duration
}
