package narinfo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/narscan/pkg/narscan"
)

const sampleNarInfo = `StorePath: /nix/store/0c0xlcqzz8k5g0hdcsmjxjscmz5sn6qh-xz-5.6.1
URL: nar/1w3ij7a3p0fhy3kfsp8lq1hl5w6mmqc3c6r0h4wfg5h6dqbsdmkw.nar.xz
Compression: xz
FileHash: sha256:1w3ij7a3p0fhy3kfsp8lq1hl5w6mmqc3c6r0h4wfg5h6dqbsdmkw
FileSize: 106080
NarHash: sha256:0l8w9d3qq0yb4hqd4m1pqi5b2fq6m0nn3iy5d7d9ipp1c1r0l3dr
NarSize: 464400
References: 0c0xlcqzz8k5g0hdcsmjxjscmz5sn6qh-xz-5.6.1
Deriver: 3f1yq4r0w2bs4k3g2vzkd8c6i2h0ymxl-xz-5.6.1.drv
Sig: cache.nixos.org-1:AAAA
`

func TestParse_Valid(t *testing.T) {
	desc, err := Parse([]byte(sampleNarInfo))
	require.NoError(t, err)
	require.NotNil(t, desc)

	assert.Equal(t, "nar/1w3ij7a3p0fhy3kfsp8lq1hl5w6mmqc3c6r0h4wfg5h6dqbsdmkw.nar.xz", desc.URL)
	assert.Equal(t, "xz", desc.Compression)
	assert.Equal(t, uint64(464400), desc.NarSize)
}

func TestParse_OnlyRequiredKeys(t *testing.T) {
	desc, err := Parse([]byte("URL: nar/a.nar\nCompression: none\nNarSize: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, narscan.ArchiveDescriptor{URL: "nar/a.nar", Compression: "none", NarSize: 0}, *desc)
}

func TestParse_CRLFAndNoTrailingNewline(t *testing.T) {
	desc, err := Parse([]byte("URL: nar/a.nar.xz\r\nCompression: xz\r\nNarSize: 12"))
	require.NoError(t, err)
	assert.Equal(t, "xz", desc.Compression)
	assert.Equal(t, uint64(12), desc.NarSize)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		errContains string
	}{
		{"missing URL", "Compression: xz\nNarSize: 10\n", "URL"},
		{"missing Compression", "URL: nar/a.nar.xz\nNarSize: 10\n", "Compression"},
		{"missing NarSize", "URL: nar/a.nar.xz\nCompression: xz\n", "NarSize"},
		{"non-numeric NarSize", "URL: nar/a.nar.xz\nCompression: xz\nNarSize: big\n", "NarSize"},
		{"negative NarSize", "URL: nar/a.nar.xz\nCompression: xz\nNarSize: -1\n", "NarSize"},
		{"empty", "", "URL"},
		{"key without separator", "URL nar/a.nar.xz\nCompression: xz\nNarSize: 1\n", "URL"},
		{"invalid utf-8", "URL: nar/\xff.nar\nCompression: xz\nNarSize: 1\n", "UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Parse([]byte(tt.text))
			require.Error(t, err)
			assert.Nil(t, desc)
			assert.True(t, errors.Is(err, narscan.ErrMetadataParse), "expected ErrMetadataParse, got %v", err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
