// Package logging emits JSON log lines through log/slog with service and request fields attached.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is the textual level accepted by LOG_LEVEL
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var slogLevels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// ParseLevel is case-insensitive and falls back to info
func ParseLevel(s string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := slogLevels[level]; ok {
		return level
	}
	return LevelInfo
}

// Config holds logger configuration
type Config struct {
	Level       LogLevel
	ServiceName string
	Environment string
	Version     string
	Output      io.Writer
	AddSource   bool
}

// DefaultConfig logs at info to stdout
func DefaultConfig(serviceName string) *Config {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return &Config{
		Level:       LevelInfo,
		ServiceName: serviceName,
		Environment: env,
		Version:     os.Getenv("VERSION"),
		Output:      os.Stdout,
	}
}

// Logger is a slog.Logger with a few helpers for the fuel services
type Logger struct {
	*slog.Logger
}

// New builds a JSON logger. Timestamps are written in UTC.
func New(config *Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	level, ok := slogLevels[config.Level]
	if !ok {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		AddSource:   config.AddSource,
		ReplaceAttr: utcTime,
	})

	attrs := []any{"service", config.ServiceName}
	if config.Environment != "" {
		attrs = append(attrs, "environment", config.Environment)
	}
	if config.Version != "" {
		attrs = append(attrs, "version", config.Version)
	}
	return &Logger{Logger: slog.New(handler).With(attrs...)}
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
	}
	return a
}

// Discard drops everything
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// SetDefault installs l as the slog default
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

func (l *Logger) with(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithContext attaches the request, correlation and trace IDs carried by ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.with(contextAttrs(ctx)...)
}

// WithComponent tags lines with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithError records err.Error() under "error". A nil error is a no-op.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// WithFields attaches each entry of fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.with(flatten(fields)...)
}

func flatten(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
