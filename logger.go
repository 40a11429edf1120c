package vecio

import (
	"log/slog"
	"os"
)

// Diagnostics are a capability handed to each operation, not process-wide
// state: every Options struct takes a *slog.Logger, nil meaning no-op.
// These constructors cover the common cases.

// NewTextLogger returns a logger writing human-readable records to stderr.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger returns a logger writing JSON records to stderr.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger returns a logger that discards everything.
func NoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
