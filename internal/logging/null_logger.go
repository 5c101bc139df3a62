package logging

import "github.com/vvka-141/narscan/pkg/narscan"

// NullLogger discards everything. Components that accept an optional
// narscan.Logger fall back to it when given nil.
type NullLogger struct{}

// NewNullLogger returns a logger that discards all messages.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Verbose(string, ...interface{}) {}

func (*NullLogger) Info(string, ...interface{}) {}

func (*NullLogger) Error(string, ...interface{}) {}

var _ narscan.Logger = (*NullLogger)(nil)
