// Package logger builds the slog loggers used by the allocator and the CLI.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvVar enables allocator diagnostics on stderr when set. A value of
// "json" switches to the JSON handler; any other non-empty value uses text.
const EnvVar = "PAGEALLOC_LOG"

// Options configures a logger.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Writer  io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
	JSON    bool       // JSON handler instead of text
}

// New returns a logger for opts. A disabled logger discards everything.
func New(opts Options) *slog.Logger {
	if !opts.Enabled {
		return Discard()
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	ho := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FromEnv returns a debug-level stderr logger when EnvVar is set, otherwise
// a discarding one.
func FromEnv() *slog.Logger {
	v := os.Getenv(EnvVar)
	if v == "" {
		return Discard()
	}
	return New(Options{
		Enabled: true,
		Level:   slog.LevelDebug,
		JSON:    strings.EqualFold(v, "json"),
	})
}
