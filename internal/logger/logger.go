package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

var (
	// default logger instance
	defaultLogger *slog.Logger
)

// initializes the logger based on environment
func init() {
	defaultLogger = New(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))
}

// builds a logger for env; level overrides the environment's default when it parses
func New(env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level, env)}

	if env == "production" {
		// production: JSON output for structured logging
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	// development: human-readable text output
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// returns the level named by level, falling back to INFO in production and DEBUG elsewhere
func ParseLevel(level, env string) slog.Level {
	var l slog.Level
	if level != "" && l.UnmarshalText([]byte(strings.TrimSpace(level))) == nil {
		return l
	}

	if env == "production" {
		return slog.LevelInfo
	}

	return slog.LevelDebug
}

// replaces the default logger, e.g. to silence output in tests
func SetDefault(l *slog.Logger) {
	defaultLogger = l
}

// returns the default logger instance
func Default() *slog.Logger {
	return defaultLogger
}

// creates a logger with additional context fields
func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// creates a logger with context
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}

	// extract any logger from context if present
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}

	return defaultLogger
}

// adds logger to context
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// helper type for context key
type loggerKey struct{}

// convenience functions for common log levels

// logs a debug message
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// logs an info message
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// logs a warning message
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// logs an error message
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// logs an error with context
func ErrorErr(err error, msg string, args ...any) {
	args = append(args, "error", err)
	defaultLogger.Error(msg, args...)
}

// logs a fatal error and exits (for CLI tools)
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}

// logs a fatal error with error and exits (for CLI tools)
func FatalErr(err error, msg string, args ...any) {
	args = append(args, "error", err)
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}
