package pyrox

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pyrox-specific context.
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

// WithSeason adds a season field to the logger.
func (l *Logger) WithSeason(season int) *Logger {
	return &Logger{
		Logger: l.Logger.With("season", season),
	}
}

// WithLocation adds a location field to the logger.
func (l *Logger) WithLocation(location string) *Logger {
	return &Logger{
		Logger: l.Logger.With("location", location),
	}
}

// LogFetch logs a single race fetch.
func (l *Logger) LogFetch(ctx context.Context, season int, location string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "race fetch failed",
			"season", season,
			"location", location,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "race fetch completed",
			"season", season,
			"location", location,
			"rows", rows,
		)
	}
}

// LogSeasonFetch logs a season aggregation. A successful call with zero
// locations was served whole from the cache.
func (l *Logger) LogSeasonFetch(ctx context.Context, season, locations, missing, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "season fetch failed",
			"season", season,
			"locations", locations,
			"error", err,
		)
	} else if locations == 0 {
		l.DebugContext(ctx, "season served from cache",
			"season", season,
			"rows", rows,
		)
	} else if missing > 0 {
		l.WarnContext(ctx, "season fetch completed with missing races",
			"season", season,
			"locations", locations,
			"missing", missing,
			"rows", rows,
		)
	} else {
		l.InfoContext(ctx, "season fetch completed",
			"season", season,
			"locations", locations,
			"rows", rows,
		)
	}
}

// LogEvict logs a cache eviction.
func (l *Logger) LogEvict(ctx context.Context, pattern string, removed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache evict failed",
			"pattern", pattern,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache evict completed",
			"pattern", pattern,
			"removed", removed,
		)
	}
}
