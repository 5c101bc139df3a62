// Package logging provides concrete implementations of the narscan.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes levelled messages to stderr and optionally to a rotated log file
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
