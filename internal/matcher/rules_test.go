package matcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/narscan/pkg/narscan"
)

const sampleRules = `
rules:
  - id: backdoor_magic
    strings:
      - hex: "f3 0f 1e fa"
      - text: "yolAbejyiejuvnup"
  - id: both_markers
    condition: all
    strings:
      - text: "alpha"
      - regex: "beta[0-9]+"
  - id: shouty
    strings:
      - text: "HELLO"
        nocase: true
`

func mustCompile(t *testing.T, doc string, opts ...RuleOption) *RuleMatcher {
	t.Helper()
	m, err := CompileRules([]byte(doc), opts...)
	require.NoError(t, err)
	return m
}

func TestCompileRules_Valid(t *testing.T) {
	m := mustCompile(t, sampleRules)
	assert.Equal(t, []string{"backdoor_magic", "both_markers", "shouty"}, m.Rules())
	assert.Equal(t, "rules", m.Name())
}

func TestRuleMatcher_Match(t *testing.T) {
	m := mustCompile(t, sampleRules)

	tests := []struct {
		name string
		data string
		want []string
	}{
		{"nothing", "plain text", nil},
		{"hex", "xx\xf3\x0f\x1e\xfaxx", []string{"backdoor_magic"}},
		{"any takes one string", "...yolAbejyiejuvnup...", []string{"backdoor_magic"}},
		{"all needs every string", "alpha only", nil},
		{"all satisfied", "alpha and beta42", []string{"both_markers"}},
		{"regex alone is not enough", "beta7", nil},
		{"nocase text", "well hello there", []string{"shouty"}},
		{"several rules in file order", "hElLo alpha beta1 \xf3\x0f\x1e\xfa", []string{"backdoor_magic", "both_markers", "shouty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(context.Background(), []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleMatcher_NocaseTextIsLiteral(t *testing.T) {
	m := mustCompile(t, `
rules:
  - id: dotted
    strings:
      - text: "a.b"
        nocase: true
`)
	got, err := m.Match(context.Background(), []byte("AXB"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.Match(context.Background(), []byte("xA.By"))
	require.NoError(t, err)
	assert.Equal(t, []string{"dotted"}, got)
}

func TestCompileRules_Errors(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		errContains string
	}{
		{"invalid yaml", "rules: [", "invalid YAML"},
		{"no rules", "rules: []", "no rules"},
		{"empty document", "", "no rules"},
		{"missing id", "rules:\n  - strings:\n      - text: x\n", "id is required"},
		{"duplicate id", "rules:\n  - id: a\n    strings: [{text: x}]\n  - id: a\n    strings: [{text: y}]\n", "duplicate id"},
		{"no strings", "rules:\n  - id: a\n", "at least one string"},
		{"two kinds in one string", "rules:\n  - id: a\n    strings: [{text: x, hex: '00'}]\n", "exactly one of"},
		{"empty string", "rules:\n  - id: a\n    strings: [{nocase: true}]\n", "exactly one of"},
		{"bad hex", "rules:\n  - id: a\n    strings: [{hex: 'zz'}]\n", "invalid hex"},
		{"odd hex", "rules:\n  - id: a\n    strings: [{hex: 'abc'}]\n", "invalid hex"},
		{"nocase hex", "rules:\n  - id: a\n    strings: [{hex: 'ab', nocase: true}]\n", "nocase"},
		{"bad regex", "rules:\n  - id: a\n    strings: [{regex: '(unclosed'}]\n", "invalid regex"},
		{"bad condition", "rules:\n  - id: a\n    condition: most\n    strings: [{text: x}]\n", "unknown condition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := CompileRules([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, narscan.ErrRuleCompile), "got %v", err)
			assert.Equal(t, narscan.ExitConfigError, narscan.ExitCodeForError(err))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestCompileRules_ReportsAllProblems(t *testing.T) {
	_, err := CompileRules([]byte(`
rules:
  - id: first
    strings: [{hex: 'zz'}]
  - id: second
    strings: [{regex: '('}]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "first"`)
	assert.Contains(t, err.Error(), `rule "second"`)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	m, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, m.Rules(), 3)

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, narscan.ErrRuleCompile))
}

func TestRuleMatcher_ExpiredContextIsTimeout(t *testing.T) {
	m := mustCompile(t, sampleRules)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Match(ctx, []byte("anything"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, narscan.ErrMatchTimeout), "got %v", err)
}

func TestRuleMatcher_RegexTimeout(t *testing.T) {
	m := mustCompile(t, `
rules:
  - id: catastrophic
    strings:
      - regex: "^(a+)+$"
`, WithTimeout(50*time.Millisecond))

	data := []byte(strings.Repeat("a", 64) + "!")

	start := time.Now()
	_, err := m.Match(context.Background(), data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, narscan.ErrMatchTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.NotContains(t, err.Error(), string(data), "the scanned buffer must not leak into the error")
}

func TestRuleMatcher_ConcurrentUse(t *testing.T) {
	m := mustCompile(t, sampleRules)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := m.Match(context.Background(), []byte("alpha beta9 hello"))
				assert.NoError(t, err)
				assert.Equal(t, []string{"both_markers", "shouty"}, got)
			}
		}()
	}
	wg.Wait()
}
