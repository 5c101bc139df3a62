// Package pipeline runs the per-target scan: store path to hash, hash to
// narinfo, narinfo to archive, archive entries to matches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/narscan/internal/archive"
	"github.com/vvka-141/narscan/internal/logging"
	"github.com/vvka-141/narscan/internal/narinfo"
	"github.com/vvka-141/narscan/pkg/narscan"
)

// Pipeline scans single store paths. It holds only shared, read-only
// collaborators, so one Pipeline serves all concurrent targets.
type Pipeline struct {
	resolver *narinfo.Resolver
	decoder  *archive.Decoder
	matcher  narscan.Matcher
	logger   narscan.Logger
}

// New creates a pipeline fetching through fetcher and scanning with matcher.
// Panics if fetcher or matcher is nil. A nil logger discards log output.
func New(fetcher narscan.Fetcher, matcher narscan.Matcher, logger narscan.Logger) *Pipeline {
	if matcher == nil {
		panic("matcher cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Pipeline{
		resolver: narinfo.NewResolver(fetcher),
		decoder:  archive.NewDecoder(fetcher),
		matcher:  matcher,
		logger:   logger,
	}
}

// Process implements narscan.Processor.
func (p *Pipeline) Process(ctx context.Context, target string) narscan.TargetOutcome {
	matches, err := p.scan(ctx, target)
	if err != nil {
		return narscan.TargetOutcome{
			Path: target,
			Err:  fmt.Errorf("error while analyzing path %q: %w", target, err),
		}
	}
	return narscan.TargetOutcome{Path: target, Matches: matches}
}

func (p *Pipeline) scan(ctx context.Context, target string) (narscan.MatchResult, error) {
	matches := narscan.MatchResult{}

	hash, err := narscan.HashFromPath(target)
	if err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}

	desc, err := p.resolver.Resolve(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("narinfo: %w", err)
	}
	if desc == nil {
		p.logger.Verbose("%s: not in cache", target)
		return matches, nil
	}
	p.logger.Verbose("%s: %s (%s, %d bytes unpacked)", target, desc.URL, desc.Compression, desc.NarSize)

	r, err := p.decoder.Decode(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("nar: %w", err)
	}
	defer r.Close()

	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("nar: %w", err)
		}
		if !entry.IsFile() {
			continue
		}

		data, err := r.ReadFile()
		if err != nil {
			return nil, fmt.Errorf("nar: %w", err)
		}

		tags, err := p.matcher.Match(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", p.matcher.Name(), entry.Path, err)
		}
		matches.Add(entry.Path, tags...)
	}

	return matches, nil
}

var _ narscan.Processor = (*Pipeline)(nil)
