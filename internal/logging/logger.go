// Package logging provides the CLI's stderr logger and secret redaction
// helpers. Diagnostics always go to stderr so that resolved key values
// printed on stdout stay clean for scripting.
package logging

import (
	"fmt"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// Logger writes leveled diagnostics to stderr.
type Logger struct {
	debug   bool
	noColor bool
}

// New creates a logger. With debug false, Debug output is suppressed.
func New(debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
	}
}

// Info logs a success or progress message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("✓", "\033[32m", format, args...)
}

// Warn logs a non-fatal problem.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("⚠", "\033[33m", format, args...)
}

// Error logs a failure.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("✗", "\033[31m", format, args...)
}

// Debug logs resolution internals when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("[DEBUG]", "\033[36m", format, args...)
}

func (l *Logger) emit(symbol, color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", symbol, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s\033[0m %s\n", color, symbol, msg)
}

// Secret wraps a sensitive value so that accidental formatting with %s, %v,
// or %#v never leaks it. Use it whenever a key value has to travel through
// a log call.
type Secret string

// String implements fmt.Stringer, always returning the redaction marker.
func (s Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer so %#v is safe too.
func (s Secret) GoString() string {
	return redacted
}

// Redact replaces every occurrence of the given values in s with the
// redaction marker. Values shorter than four characters are skipped to
// avoid shredding ordinary words; callers use this to scrub backend error
// messages that may echo a key back.
func Redact(s string, values ...string) string {
	result := s
	for _, v := range values {
		if len(v) > 3 {
			result = strings.ReplaceAll(result, v, redacted)
		}
	}
	return result
}
