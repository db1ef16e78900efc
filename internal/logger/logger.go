package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	envLocal = "local"
)

// New builds the process logger. The local environment always gets a
// debug-level text handler; other environments honor LOG_LEVEL and LOG_FORMAT.
func New(env, level, format string) *slog.Logger {
	return newWithWriter(os.Stdout, env, level, format)
}

func newWithWriter(w io.Writer, env, level, format string) *slog.Logger {
	if env == envLocal {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Discard is used by tests and tools that do not want output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
