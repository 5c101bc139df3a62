package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// TestLogger forwards log lines to t.Log and records them for assertions.
// Safe for concurrent use by multiple goroutines.
type TestLogger struct {
	t     testing.TB
	mu    sync.Mutex
	lines []string
}

// NewTestLogger creates a logger bound to t.
func NewTestLogger(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) record(level, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.lines = append(l.lines, level+" "+line)
	l.mu.Unlock()
	l.t.Helper()
	l.t.Log(level + " " + line)
}

// Verbose implements narscan.Logger.
func (l *TestLogger) Verbose(format string, args ...interface{}) {
	l.record("[VERBOSE]", format, args...)
}

// Info implements narscan.Logger.
func (l *TestLogger) Info(format string, args ...interface{}) {
	l.record("[INFO]", format, args...)
}

// Error implements narscan.Logger.
func (l *TestLogger) Error(format string, args ...interface{}) {
	l.record("[ERROR]", format, args...)
}

// Lines returns a copy of everything logged so far, prefixed by level.
func (l *TestLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

var _ narscan.Logger = (*TestLogger)(nil)
