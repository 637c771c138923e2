package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a logger at the named level on the handler returned by handler.
func New(level string, handler func(level slog.Level) slog.Handler) *slog.Logger {
	return slog.New(handler(ParseLevel(level)))
}

// ParseLevel accepts slog level names, case-insensitively and with optional
// offsets such as "debug-4" or "warn+2". Anything else is info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// HandlerFor picks the output format: "text" for local runs, Cloud Run JSON otherwise.
func HandlerFor(format string) func(level slog.Level) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return NewTextHandler
	}
	return NewCloudRunHandler
}

func NewTextHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}

// NewTestHandler drops everything; tests assert on behaviour, not log lines.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}
