// Package logging provides structured logger setup and masking helpers
// for the service's sensitive fields (emails, reset tokens).
package logging

import (
	"io"
	"log/slog"
	"os"

	"lexhub/gatekeeper/pkg/config"
)

// New creates a slog.Logger from the logging configuration, writing to w.
// A nil writer defaults to stderr.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level string to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
