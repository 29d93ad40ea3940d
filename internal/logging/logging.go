// Package logging carries the engine's slog logger through request contexts
// and builds the JSON logger the assigner binary runs with.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type loggerKey struct{}

// New returns a JSON-emitting logger for the assigner. Every service keys its
// records with "service" and "operation"; the handler only sets the floor
// level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ContextWithLogger attaches a logger to the context so per-plan attributes
// (date, period) survive across service boundaries. A nil logger leaves the
// context untouched.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached by ContextWithLogger, or nil when
// the context carries none. Callers fall back to their own base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger
}
