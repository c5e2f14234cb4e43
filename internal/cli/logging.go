package cli

import (
	"io"
	"log/slog"
	"strings"
)

// DefaultLogLevel keeps the interactive prompt free of routine log lines.
const DefaultLogLevel = slog.LevelWarn

// NewLogger creates a JSON logger writing to w.
// Logs go to stderr in practice so stdout carries only the menu and status text.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: a.Value,
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// ParseLogLevelOrDefault parses a log level name, ignoring case.
// Unknown names yield DefaultLogLevel.
func ParseLogLevelOrDefault(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return DefaultLogLevel
	}
}
