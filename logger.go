package neighbour

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with neighbour-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogFetch logs the outcome of an artifact download.
func (l *Logger) LogFetch(ctx context.Context, url string, bytes int64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact download failed",
			"url", url,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "artifact downloaded",
			"url", url,
			"bytes", bytes,
			"duration_ms", d.Milliseconds(),
		)
	}
}

// LogLoad logs the outcome of a load through the engine.
func (l *Logger) LogLoad(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
	}
}

// LogSearch logs a search operation. Lookups for unknown names are expected
// user input and only logged at debug level.
func (l *Logger) LogSearch(ctx context.Context, name string, k, resultsFound int, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "search completed",
			"name", name,
			"k", k,
			"results", resultsFound,
		)
	case IsNotFound(err):
		l.DebugContext(ctx, "horse not found",
			"name", name,
		)
	case IsEmbeddingNotFound(err):
		l.WarnContext(ctx, "embedding missing for horse",
			"name", name,
			"error", err,
		)
	default:
		l.ErrorContext(ctx, "search failed",
			"name", name,
			"k", k,
			"error", err,
		)
	}
}
