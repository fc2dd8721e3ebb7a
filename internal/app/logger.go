package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates the process JSON logger on stdout and makes it the slog default.
func NewLogger(level string) *slog.Logger {
	log := newLogger(os.Stdout, level)
	slog.SetDefault(log)
	return log
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
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
