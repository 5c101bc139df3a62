package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file sink.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// Options configures a ConsoleLogger.
type Options struct {
	// Verbose enables Verbose() output on the console
	Verbose bool

	// Output is the console destination; defaults to os.Stderr
	Output io.Writer

	// File, if set, receives every message including verbose ones,
	// with timestamps, rotated by size
	File string
}

// ConsoleLogger writes log messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	console *log.Logger
	file    *log.Logger
	closer  io.Closer
}

// NewConsoleLogger creates a new ConsoleLogger writing to stderr.
// If verbose is true, Verbose() calls will produce output.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return New(Options{Verbose: verbose})
}

// New creates a ConsoleLogger from opts.
func New(opts Options) *ConsoleLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	l := &ConsoleLogger{
		console: log.NewWithOptions(out, log.Options{Level: level}),
	}

	if opts.File != "" {
		sink := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}
		l.file = log.NewWithOptions(sink, log.Options{
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})
		l.closer = sink
	}

	return l
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	msg := sprintf(format, args)
	l.console.Debug(msg)
	if l.file != nil {
		l.file.Debug(msg)
	}
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	msg := sprintf(format, args)
	l.console.Info(msg)
	if l.file != nil {
		l.file.Info(msg)
	}
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	msg := sprintf(format, args)
	l.console.Error(msg)
	if l.file != nil {
		l.file.Error(msg)
	}
}

// sprintf leaves format untouched without args, so a literal % survives.
func sprintf(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Close flushes and closes the log file, if any.
func (l *ConsoleLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
