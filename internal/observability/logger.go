package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls the logger built by New.
type Options struct {
	Level string // debug, info, warn, error
	File  string // log file path; empty logs to stderr
}

// New builds the application logger. The TUI owns the terminal, so the
// default sink is a JSON file; stderr is the fallback when no file is
// configured. The returned close func releases the file and is safe to
// call once the logger is no longer used.
func New(opts Options) (*slog.Logger, func(), error) {
	var (
		w       io.Writer = os.Stderr
		cleanup           = func() {}
	)

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", opts.File, err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	})

	return slog.New(handler), cleanup, nil
}

// Discard returns a logger that drops everything, for tests and for
// components constructed before configuration is loaded.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
