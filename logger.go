package shardscan

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with shardscan-specific context.
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

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(table string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", table),
	}
}

// WithPartition adds a partition index field to the logger.
func (l *Logger) WithPartition(index int) *Logger {
	return &Logger{
		Logger: l.Logger.With("partition", index),
	}
}

// WithScanID adds a scan ID field to the logger (useful for correlating one
// partition's lifecycle across log lines).
func (l *Logger) WithScanID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("scan_id", id),
	}
}

// LogResolve logs a partition resolution.
func (l *Logger) LogResolve(ctx context.Context, table string, partitions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition resolution failed",
			"table", table,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "partition resolution completed",
			"table", table,
			"partitions", partitions,
		)
	}
}

// LogPartitionScan logs the completion of one partition's scan.
func (l *Logger) LogPartitionScan(ctx context.Context, path ScanPath, rows int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition scan failed",
			"path", path.String(),
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "partition scan completed",
			"path", path.String(),
			"rows", rows,
		)
	}
}
