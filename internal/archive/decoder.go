// Package archive fetches, decompresses and walks NAR archives.
//
// The whole payload is buffered in memory: the compressed download, then
// the decompressed archive. Archives larger than available memory cannot be
// scanned.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/nix-community/go-nix/pkg/nar"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// Decoder downloads archives named by a descriptor.
// Safe for concurrent use as long as the fetcher is.
type Decoder struct {
	fetcher narscan.Fetcher
}

// NewDecoder creates a decoder reading through fetcher.
// Panics if fetcher is nil.
func NewDecoder(fetcher narscan.Fetcher) *Decoder {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	return &Decoder{fetcher: fetcher}
}

// Decode downloads and decompresses the archive described by desc and
// returns a reader over its entries.
func (d *Decoder) Decode(ctx context.Context, desc *narscan.ArchiveDescriptor) (*Reader, error) {
	if desc == nil {
		return nil, fmt.Errorf("nil archive descriptor: %w", narscan.ErrArchiveFetch)
	}
	if !Supported(desc.Compression) {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			narscan.ErrUnsupportedCompression, desc.Compression, strings.Join(Algorithms(), ", "))
	}

	key := objectKey(desc.URL)
	status, body, err := d.fetcher.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", narscan.ErrArchiveFetch, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s: %w", status, key, narscan.ErrArchiveFetch)
	}

	data, err := Decompress(desc.Compression, body, desc.NarSize)
	if err != nil {
		return nil, err
	}

	return NewReader(data)
}

// objectKey turns a narinfo URL into a cache key. Absolute URLs keep only their path.
func objectKey(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		raw = u.Path
	}
	return strings.TrimLeft(raw, "/")
}

// Reader iterates over the entries of a decompressed NAR.
// Entries are visited once, in archive order. Not safe for concurrent use.
type Reader struct {
	nr      *nar.Reader
	size    int64
	current *narscan.Entry
	done    bool
}

// NewReader starts reading the NAR in data.
func NewReader(data []byte) (*Reader, error) {
	nr, err := nar.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, narscan.ErrArchiveParse)
	}
	return &Reader{nr: nr, size: int64(len(data))}, nil
}

// Next advances to the next entry. It returns io.EOF after the last one.
func (r *Reader) Next() (*narscan.Entry, error) {
	if r.done {
		return nil, io.EOF
	}

	hdr, err := r.nr.Next()
	if err != nil {
		r.done = true
		r.current = nil
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%v: %w", err, narscan.ErrArchiveParse)
	}

	entry := &narscan.Entry{
		Path:       hdr.Path,
		Type:       entryType(hdr.Type),
		Size:       hdr.Size,
		Executable: hdr.Executable,
		LinkTarget: hdr.LinkTarget,
	}
	r.current = entry
	return entry, nil
}

// ReadFile returns the content of the current entry, which must be a regular file.
func (r *Reader) ReadFile() ([]byte, error) {
	if r.current == nil || !r.current.IsFile() {
		return nil, errors.New("current entry is not a regular file")
	}

	// The declared size is untrusted: it must fit in what was decompressed.
	size := r.current.Size
	if size < 0 || size > r.size {
		return nil, fmt.Errorf("%s declares %d bytes in a %d byte archive: %w",
			r.current.Path, size, r.size, narscan.ErrArchiveParse)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r.nr, buf); err != nil {
		return nil, fmt.Errorf("reading %s: %v: %w", r.current.Path, err, narscan.ErrArchiveParse)
	}
	return buf, nil
}

// Close releases the underlying NAR reader.
func (r *Reader) Close() error {
	r.done = true
	return r.nr.Close()
}

func entryType(t nar.NodeType) narscan.EntryType {
	switch t {
	case nar.TypeDirectory:
		return narscan.EntryDirectory
	case nar.TypeSymlink:
		return narscan.EntrySymlink
	default:
		return narscan.EntryRegular
	}
}
