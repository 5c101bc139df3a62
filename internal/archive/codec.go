package archive

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// maxPrealloc caps the buffer pre-allocated from a NarSize hint.
const maxPrealloc = 1 << 30

// codec decompresses a full payload. sizeHint is the expected output size.
type codec func(data []byte, sizeHint uint64) ([]byte, error)

// zstdDecoder is shared; DecodeAll is safe for concurrent use.
var zstdDecoder, _ = zstd.NewReader(nil)

var codecs = map[string]codec{
	"xz":   decompressXZ,
	"zstd": decompressZstd,
	"none": decompressNone,
}

// Supported reports whether compression names a known algorithm.
func Supported(compression string) bool {
	_, ok := codecs[compression]
	return ok
}

// Algorithms returns the supported compression names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decompress expands data compressed with the named algorithm.
func Decompress(compression string, data []byte, sizeHint uint64) ([]byte, error) {
	c, ok := codecs[compression]
	if !ok {
		return nil, fmt.Errorf("%w: %q", narscan.ErrUnsupportedCompression, compression)
	}
	out, err := c(data, sizeHint)
	if err != nil {
		return nil, fmt.Errorf("%s decompression failed: %v: %w", compression, err, narscan.ErrArchiveParse)
	}
	return out, nil
}

func prealloc(sizeHint uint64) []byte {
	return make([]byte, 0, min(sizeHint, maxPrealloc))
}

func decompressXZ(data []byte, sizeHint uint64) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(prealloc(sizeHint))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressZstd(data []byte, sizeHint uint64) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, prealloc(sizeHint))
}

func decompressNone(data []byte, _ uint64) ([]byte, error) {
	return data, nil
}
