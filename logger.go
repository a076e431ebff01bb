package featmatch

import (
	"context"
	"log/slog"
	"os"

	"github.com/gomvg/featmatch/core"
)

// Logger wraps slog.Logger with featmatch-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithView adds a view id field to the logger.
func (l *Logger) WithView(id core.ViewID) *Logger {
	return &Logger{
		Logger: l.Logger.With("view", uint32(id)),
	}
}

// WithPair adds the view pair fields to the logger.
func (l *Logger) WithPair(p core.Pair) *Logger {
	return &Logger{
		Logger: l.Logger.With("view_i", uint32(p.I), "view_j", uint32(p.J)),
	}
}

// LogRunStart logs the start of a matching run.
func (l *Logger) LogRunStart(ctx context.Context, views, pairs int) {
	l.InfoContext(ctx, "matching started",
		"views", views,
		"pairs", pairs,
	)
}

// LogIndexBuilt logs construction of one per-view index.
func (l *Logger) LogIndexBuilt(ctx context.Context, id core.ViewID, descriptors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"view", uint32(id),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index built",
			"view", uint32(id),
			"descriptors", descriptors,
		)
	}
}

// LogPairMatched logs the outcome of one pair comparison.
func (l *Logger) LogPairMatched(ctx context.Context, p core.Pair, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "pair matching failed",
			"view_i", uint32(p.I),
			"view_j", uint32(p.J),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "pair matched",
			"view_i", uint32(p.I),
			"view_j", uint32(p.J),
			"correspondences", found,
		)
	}
}

// LogPairSkipped logs a pair that was skipped without a comparison.
func (l *Logger) LogPairSkipped(ctx context.Context, p core.Pair) {
	l.DebugContext(ctx, "pair skipped",
		"view_i", uint32(p.I),
		"view_j", uint32(p.J),
	)
}

// LogRunDone logs completion of a matching run.
func (l *Logger) LogRunDone(ctx context.Context, pairs, matched int, cancelled bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matching failed",
			"pairs", pairs,
			"matched", matched,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "matching completed",
			"pairs", pairs,
			"matched", matched,
			"cancelled", cancelled,
		)
	}
}
