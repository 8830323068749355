package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the process-wide console logger and installs it as the slog
// default. Unknown or empty level strings fall back to info so a
// misconfigured deployment stays readable.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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
