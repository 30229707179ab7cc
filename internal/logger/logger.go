package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a structured logger writing JSON to stderr
func New(verbose bool) *slog.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a structured logger writing JSON to w
func NewWithWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
