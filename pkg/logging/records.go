package logging

import (
	"context"
	"log/slog"
	"time"
)

// Audit records a committed state change, e.g. a movement or a price entry
func (l *Logger) Audit(ctx context.Context, action, resource, resourceID string, details map[string]any) {
	args := append([]any{
		"auditAction", action,
		"resource", resource,
		"resourceId", resourceID,
	}, flatten(details)...)
	l.WithContext(ctx).InfoContext(ctx, "Audit event", args...)
}

// Performance reports how long an operation took and whether it succeeded
func (l *Logger) Performance(ctx context.Context, operation string, took time.Duration, success bool, details map[string]any) {
	args := append([]any{
		"operation", operation,
		"durationMs", took.Milliseconds(),
		"success", success,
	}, flatten(details)...)
	l.WithContext(ctx).InfoContext(ctx, "Performance metric", args...)
}

// DatabaseQuery logs one statement: debug on success, error on failure
func (l *Logger) DatabaseQuery(ctx context.Context, table, operation string, took time.Duration, success bool, rows int64) {
	level := slog.LevelDebug
	if !success {
		level = slog.LevelError
	}
	l.WithContext(ctx).Log(ctx, level, "Database query",
		"table", table,
		"operation", operation,
		"durationMs", took.Milliseconds(),
		"success", success,
		"rowsAffected", rows,
	)
}
