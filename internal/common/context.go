package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID    contextKey = "run_id"
	ContextKeyFilePath contextKey = "file_path"
)

// WithRunID adds the batch run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithFilePath records the file currently being processed
func WithFilePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyFilePath, path)
}

// FilePathFromContext extracts the file path from context
func FilePathFromContext(ctx context.Context) string {
	if path, ok := ctx.Value(ContextKeyFilePath).(string); ok {
		return path
	}
	return ""
}

// LoggerFromContext returns logger enriched with the run and file carried by ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if runID := RunIDFromContext(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	if path := FilePathFromContext(ctx); path != "" {
		logger = logger.With("file", path)
	}
	return logger
}
