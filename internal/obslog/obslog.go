// Package obslog provides structured slog loggers for build-time
// diagnostics. The recorder-demo CLI uses it for its own log output; the
// recording engine packages do not log. Adapted from
// [[jmylchreest-tvarr]] internal/observability/logger.go, trimmed down
// to the level-var/handler/With* shape this engine actually needs - no
// HTTP request logging or field redaction, since build-time recording
// never touches untrusted network input.
package obslog

import (
	"io"
	"log/slog"
	"os"
)

// Level is the shared, dynamically adjustable log level every logger
// built by this package honors.
var Level = &slog.LevelVar{}

// New creates a slog.Logger writing format ("json" or "text") to w at
// the current Level.
func New(format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// Default returns a JSON logger writing to stderr, for callers that do
// not need a custom writer or format.
func Default() *slog.Logger {
	return New("json", os.Stderr)
}

// SetLevel parses one of "debug", "info", "warn", "error" and updates
// Level in place.
func SetLevel(level string) {
	switch level {
	case "debug":
		Level.Set(slog.LevelDebug)
	case "warn":
		Level.Set(slog.LevelWarn)
	case "error":
		Level.Set(slog.LevelError)
	default:
		Level.Set(slog.LevelInfo)
	}
}

// WithComponent tags logger with the engine component emitting the line
// (e.g. "recorder", "emit", "serialize").
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithOperation tags logger with the specific operation in progress
// (e.g. "dispatch", "emit-file").
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String("operation", operation))
}

// WithError attaches err's message to logger, a no-op if err is nil.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}
