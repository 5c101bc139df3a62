package fixtures

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/nix-community/go-nix/pkg/nar"
	"github.com/ulikunitz/xz"

	testhelpers "github.com/vvka-141/narscan/internal/testing"
)

type narNode struct {
	typ        nar.NodeType
	content    []byte
	executable bool
	target     string
}

// NARBuilder provides a fluent API for building NAR archives in tests.
// Parent directories are created implicitly.
//
// Example usage:
//
//	data := NewNARBuilder().
//	    AddFile("/bin/hello", "#!/bin/sh\necho hi\n", true).
//	    AddSymlink("/bin/hi", "hello").
//	    Build()
type NARBuilder struct {
	nodes map[string]narNode
}

// NewNARBuilder creates a builder whose root is a directory.
func NewNARBuilder() *NARBuilder {
	return &NARBuilder{
		nodes: map[string]narNode{
			"/": {typ: nar.TypeDirectory},
		},
	}
}

// AddFile adds a regular file at p.
func (b *NARBuilder) AddFile(p, content string, executable bool) *NARBuilder {
	b.addParents(p)
	b.nodes[p] = narNode{typ: nar.TypeRegular, content: []byte(content), executable: executable}
	return b
}

// AddBinary adds a regular file with arbitrary bytes at p.
func (b *NARBuilder) AddBinary(p string, content []byte) *NARBuilder {
	b.addParents(p)
	b.nodes[p] = narNode{typ: nar.TypeRegular, content: content}
	return b
}

// AddDir adds an (empty) directory at p.
func (b *NARBuilder) AddDir(p string) *NARBuilder {
	b.addParents(p)
	b.nodes[p] = narNode{typ: nar.TypeDirectory}
	return b
}

// AddSymlink adds a symlink at p pointing at target.
func (b *NARBuilder) AddSymlink(p, target string) *NARBuilder {
	b.addParents(p)
	b.nodes[p] = narNode{typ: nar.TypeSymlink, target: target}
	return b
}

func (b *NARBuilder) addParents(p string) {
	for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
		if _, ok := b.nodes[dir]; !ok {
			b.nodes[dir] = narNode{typ: nar.TypeDirectory}
		}
	}
}

// Build serializes the archive. Panics on writer errors, which indicate a broken fixture.
func (b *NARBuilder) Build() []byte {
	paths := make([]string, 0, len(b.nodes))
	for p := range b.nodes {
		paths = append(paths, p)
	}
	// NAR orders directory members by name, so compare component by component.
	slices.SortFunc(paths, func(x, y string) int {
		return slices.Compare(components(x), components(y))
	})

	var buf bytes.Buffer
	nw, err := nar.NewWriter(&buf)
	if err != nil {
		panic(fmt.Sprintf("nar writer: %v", err))
	}

	for _, p := range paths {
		node := b.nodes[p]
		hdr := &nar.Header{
			Path:       p,
			Type:       node.typ,
			LinkTarget: node.target,
			Executable: node.executable,
		}
		if node.typ == nar.TypeRegular {
			hdr.Size = int64(len(node.content))
		}
		if err := nw.WriteHeader(hdr); err != nil {
			panic(fmt.Sprintf("nar header %s: %v", p, err))
		}
		if node.typ == nar.TypeRegular {
			if _, err := nw.Write(node.content); err != nil {
				panic(fmt.Sprintf("nar content %s: %v", p, err))
			}
		}
	}

	if err := nw.Close(); err != nil {
		panic(fmt.Sprintf("nar close: %v", err))
	}
	return buf.Bytes()
}

// SingleFileNAR builds an archive whose root node is a regular file.
func SingleFileNAR(content string, executable bool) []byte {
	var buf bytes.Buffer
	nw, err := nar.NewWriter(&buf)
	if err != nil {
		panic(fmt.Sprintf("nar writer: %v", err))
	}
	err = nw.WriteHeader(&nar.Header{
		Path:       "/",
		Type:       nar.TypeRegular,
		Size:       int64(len(content)),
		Executable: executable,
	})
	if err != nil {
		panic(fmt.Sprintf("nar header: %v", err))
	}
	if _, err := nw.Write([]byte(content)); err != nil {
		panic(fmt.Sprintf("nar content: %v", err))
	}
	if err := nw.Close(); err != nil {
		panic(fmt.Sprintf("nar close: %v", err))
	}
	return buf.Bytes()
}

func components(p string) []string {
	if p == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

// CompressXZ compresses data with xz.
func CompressXZ(data []byte) []byte {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		panic(fmt.Sprintf("xz writer: %v", err))
	}
	if _, err := w.Write(data); err != nil {
		panic(fmt.Sprintf("xz write: %v", err))
	}
	if err := w.Close(); err != nil {
		panic(fmt.Sprintf("xz close: %v", err))
	}
	return buf.Bytes()
}

// CompressZstd compresses data with zstd.
func CompressZstd(data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("zstd writer: %v", err))
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

// Compress compresses data with the named algorithm ("xz", "zstd" or "none").
func Compress(compression string, data []byte) []byte {
	switch compression {
	case "xz":
		return CompressXZ(data)
	case "zstd":
		return CompressZstd(data)
	default:
		return data
	}
}

// NarInfo renders a narinfo document for an archive stored at url.
func NarInfo(hash, url, compression string, narSize int) string {
	return fmt.Sprintf(`StorePath: /nix/store/%s-fixture
URL: %s
Compression: %s
FileHash: sha256:0000000000000000000000000000000000000000000000000000
FileSize: 0
NarHash: sha256:0000000000000000000000000000000000000000000000000000
NarSize: %d
References: 
Sig: cache.nixos.org-1:fixture
`, hash, url, compression, narSize)
}

// AddStorePath publishes a store path on the fetcher: its narinfo under
// "<hash>.narinfo" and the compressed NAR under "nar/<hash>.nar[.<ext>]".
// Returns the store path.
func AddStorePath(f *testhelpers.MemoryFetcher, hash, name, compression string, narData []byte) string {
	url := "nar/" + hash + ".nar"
	switch compression {
	case "xz":
		url += ".xz"
	case "zstd":
		url += ".zst"
	}

	f.Set(hash+".narinfo", []byte(NarInfo(hash, url, compression, len(narData))))
	f.Set(url, Compress(compression, narData))
	return "/nix/store/" + hash + "-" + name
}
