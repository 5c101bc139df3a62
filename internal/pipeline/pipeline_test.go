package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/narscan/internal/matcher"
	testhelpers "github.com/vvka-141/narscan/internal/testing"
	"github.com/vvka-141/narscan/internal/testing/fixtures"
	"github.com/vvka-141/narscan/pkg/narscan"
)

func newNeedlePipeline(t *testing.T, f narscan.Fetcher, needle string) *Pipeline {
	t.Helper()
	m, err := matcher.NewNeedleMatcher([]byte(needle))
	require.NoError(t, err)
	return New(f, m, testhelpers.NewTestLogger(t))
}

func TestProcess_NotInCache(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()
	p := newNeedlePipeline(t, f, "evil")

	out := p.Process(context.Background(), "/nix/store/aaaa1111-absent")
	assert.False(t, out.Failed())
	assert.True(t, out.Matches.Empty())
	assert.Equal(t, "/nix/store/aaaa1111-absent", out.Path)
	assert.Equal(t, 1, f.Calls(), "only the narinfo is requested")
}

func TestProcess_ReportsMatchingFiles(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()
	nar := fixtures.NewNARBuilder().
		AddFile("/lib/liblzma.so", "....evil payload....", false).
		AddFile("/bin/xz", "clean", true).
		AddSymlink("/bin/unxz", "evil").
		AddFile("/share/evil.txt", "also evil", false).
		Build()
	target := fixtures.AddStorePath(f, "bbbb2222", "xz-5.6.1", "xz", nar)

	out := newNeedlePipeline(t, f, "evil").Process(context.Background(), target)
	require.NoError(t, out.Err)
	assert.Equal(t, narscan.MatchResult{
		"/lib/liblzma.so": {narscan.NeedleTag},
		"/share/evil.txt": {narscan.NeedleTag},
	}, out.Matches)
}

func TestProcess_SingleFileArchive(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()
	single := fixtures.SingleFileNAR("needle inside", false)
	target := fixtures.AddStorePath(f, "cccc3333", "script", "none", single)

	out := newNeedlePipeline(t, f, "needle").Process(context.Background(), target)
	require.NoError(t, out.Err)
	assert.Equal(t, narscan.MatchResult{"/": {narscan.NeedleTag}}, out.Matches)
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *testhelpers.MemoryFetcher) string
		sentinel error
		contains string
	}{
		{
			name:     "bad path",
			setup:    func(f *testhelpers.MemoryFetcher) string { return "/usr/lib/foo" },
			sentinel: narscan.ErrInvalidPath,
			contains: "hash:",
		},
		{
			name: "server error on narinfo",
			setup: func(f *testhelpers.MemoryFetcher) string {
				f.SetResponse("dddd4444.narinfo", testhelpers.Response{Status: 500})
				return "/nix/store/dddd4444-x"
			},
			sentinel: narscan.ErrMetadataFetch,
			contains: "narinfo:",
		},
		{
			name: "narinfo missing key",
			setup: func(f *testhelpers.MemoryFetcher) string {
				f.Set("dddd4444.narinfo", []byte("URL: nar/x.nar\n"))
				return "/nix/store/dddd4444-x"
			},
			sentinel: narscan.ErrMetadataParse,
			contains: "Compression",
		},
		{
			name: "unsupported compression",
			setup: func(f *testhelpers.MemoryFetcher) string {
				f.Set("dddd4444.narinfo", []byte(fixtures.NarInfo("dddd4444", "nar/x.nar.bz2", "bzip2", 10)))
				return "/nix/store/dddd4444-x"
			},
			sentinel: narscan.ErrUnsupportedCompression,
			contains: "bzip2",
		},
		{
			name: "corrupt archive",
			setup: func(f *testhelpers.MemoryFetcher) string {
				return fixtures.AddStorePath(f, "dddd4444", "x", "none", []byte("garbage"))
			},
			sentinel: narscan.ErrArchiveParse,
			contains: "nar:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testhelpers.NewMemoryFetcher()
			target := tt.setup(f)

			out := newNeedlePipeline(t, f, "evil").Process(context.Background(), target)
			require.True(t, out.Failed())
			assert.Nil(t, out.Matches)
			assert.True(t, errors.Is(out.Err, tt.sentinel), "got %v", out.Err)
			assert.Contains(t, out.Err.Error(), `error while analyzing path "`+target+`"`)
			assert.Contains(t, out.Err.Error(), tt.contains)
		})
	}
}

func TestProcess_MatcherFailure(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()
	target := fixtures.AddStorePath(f, "eeee5555", "x", "xz",
		fixtures.NewNARBuilder().AddFile("/a", "content", false).Build())

	m := failingMatcher{err: narscan.ErrMatchEngine}
	out := New(f, m, nil).Process(context.Background(), target)
	require.True(t, out.Failed())
	assert.True(t, errors.Is(out.Err, narscan.ErrMatchEngine))
	assert.Contains(t, out.Err.Error(), "failing: /a")
}

type failingMatcher struct{ err error }

func (m failingMatcher) Name() string { return "failing" }

func (m failingMatcher) Match(context.Context, []byte) ([]string, error) {
	return nil, m.err
}

// TestProcess_MixedBatch runs the three canonical cases against one shared
// fetcher: absent target, matching target, unsupported compression.
func TestProcess_MixedBatch(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()

	absent := "/nix/store/aaaa0000-absent-1.0"

	matching := fixtures.AddStorePath(f, "bbbb0000", "xz-5.6.1", "xz",
		fixtures.NewNARBuilder().
			AddFile("/lib/liblzma.so.5", "\x7fELF...NEEDLE...", false).
			AddFile("/bin/xz", "\x7fELF", true).
			Build())

	f.Set("cccc0000.narinfo", []byte(fixtures.NarInfo("cccc0000", "nar/cccc0000.nar.bz2", "bzip2", 100)))
	unsupported := "/nix/store/cccc0000-bzipped-1.0"

	p := newNeedlePipeline(t, f, "NEEDLE")

	outA := p.Process(context.Background(), absent)
	require.NoError(t, outA.Err)
	assert.True(t, outA.Matches.Empty())

	outB := p.Process(context.Background(), matching)
	require.NoError(t, outB.Err)
	assert.Equal(t, []string{"/lib/liblzma.so.5"}, outB.Matches.Files())

	outC := p.Process(context.Background(), unsupported)
	require.Error(t, outC.Err)
	assert.Contains(t, outC.Err.Error(), "bzip2")
	assert.Contains(t, outC.Err.Error(), unsupported)
}

func TestNew_NilMatcher(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for nil matcher")
		}
	}()
	New(testhelpers.NewMemoryFetcher(), nil, nil)
}

func TestNew_NilLoggerDiscards(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()
	target := fixtures.AddStorePath(f, "eeee5555", "hello", "none", fixtures.SingleFileNAR("evil", false))
	m, err := matcher.NewNeedleMatcher([]byte("evil"))
	require.NoError(t, err)

	p := New(f, m, nil)
	out := p.Process(context.Background(), target)
	require.NoError(t, out.Err)
	assert.Equal(t, narscan.MatchResult{"/": {narscan.NeedleTag}}, out.Matches)

	out = p.Process(context.Background(), "/nix/store/ffff6666-absent")
	require.NoError(t, out.Err, "not-in-cache logging goes to the null logger")
}

func TestProcess_OversizedEntryFailsTarget(t *testing.T) {
	f := testhelpers.NewMemoryFetcher()
	nar := fixtures.SingleFileNAR("0123456789abcdef", false)
	// The contents length word sits right before the payload.
	idx := bytes.Index(nar, []byte("0123456789abcdef"))
	require.Greater(t, idx, 8)
	binary.LittleEndian.PutUint64(nar[idx-8:idx], 1<<50)
	target := fixtures.AddStorePath(f, "abab1212", "corrupt", "none", nar)

	out := newNeedlePipeline(t, f, "evil").Process(context.Background(), target)
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, narscan.ErrArchiveParse), "got %v", out.Err)
}
