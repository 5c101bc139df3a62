package narinfo

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/narscan/pkg/narscan"
)

const (
	keyURL         = "URL"
	keyCompression = "Compression"
	keyNarSize     = "NarSize"
)

// Parse parses narinfo text into an archive descriptor.
//
// Format rules:
//   - One "Key: value" pair per line
//   - Unknown keys are ignored
//   - URL, Compression and NarSize are required
//   - NarSize must be an unsigned decimal integer
func Parse(text []byte) (*narscan.ArchiveDescriptor, error) {
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("narinfo is not valid UTF-8: %w", narscan.ErrMetadataParse)
	}

	var (
		desc                        narscan.ArchiveDescriptor
		haveURL, haveComp, haveSize bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(text))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}

		switch key {
		case keyURL:
			desc.URL = value
			haveURL = true
		case keyCompression:
			desc.Compression = value
			haveComp = true
		case keyNarSize:
			size, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid NarSize %q: %w", lineNum, value, narscan.ErrMetadataParse)
			}
			desc.NarSize = size
			haveSize = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading narinfo: %v: %w", err, narscan.ErrMetadataParse)
	}

	switch {
	case !haveURL:
		return nil, fmt.Errorf("did not find a %s key: %w", keyURL, narscan.ErrMetadataParse)
	case !haveComp:
		return nil, fmt.Errorf("did not find a %s key: %w", keyCompression, narscan.ErrMetadataParse)
	case !haveSize:
		return nil, fmt.Errorf("did not find a %s key: %w", keyNarSize, narscan.ErrMetadataParse)
	}

	return &desc, nil
}
