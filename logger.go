package vstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with store-specific helpers.
// Field names are consistent across operations: key, fingerprint, path.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithPublishID tags every entry of one publish with a correlation ID.
func (l *Logger) WithPublishID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("publish_id", id),
	}
}

// WithVersion adds key and fingerprint fields to the logger.
func (l *Logger) WithVersion(key, fingerprint string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key, "fingerprint", fingerprint),
	}
}

// LogPublish logs the outcome of a publish.
func (l *Logger) LogPublish(ctx context.Context, key, fingerprint, sha1 string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"key", key,
			"fingerprint", fingerprint,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "publish completed",
			"key", key,
			"fingerprint", fingerprint,
			"sha1", sha1,
			"bytes", size,
		)
	}
}

// LogDangling logs a publish that stopped after the record was indexed.
func (l *Logger) LogDangling(ctx context.Context, key, fingerprint, step string, err error) {
	l.WarnContext(ctx, "version left pending",
		"key", key,
		"fingerprint", fingerprint,
		"step", step,
		"error", err,
	)
}

// LogVerify logs a digest verification.
func (l *Logger) LogVerify(ctx context.Context, key, fingerprint string, err error) {
	if err != nil {
		l.WarnContext(ctx, "verify failed",
			"key", key,
			"fingerprint", fingerprint,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "verify completed",
			"key", key,
			"fingerprint", fingerprint,
		)
	}
}

// LogVerifyAll logs a full verification pass.
func (l *Logger) LogVerifyAll(ctx context.Context, total, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "verification completed with failures",
			"total", total,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "verification completed",
			"total", total,
		)
	}
}

// LogRemove logs the removal of a version.
func (l *Logger) LogRemove(ctx context.Context, key, fingerprint string, blobDeleted bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed",
			"key", key,
			"fingerprint", fingerprint,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "version removed",
			"key", key,
			"fingerprint", fingerprint,
			"blob_deleted", blobDeleted,
		)
	}
}
