package logging

import (
	"context"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger defines the interface for logging.
// FileLogger writes JSON or text lines, and NewNullLogger returns one that
// discards everything.
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an info message
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional fields
	WithFields(fields Fields) Logger

	// Close flushes and closes the logger
	Close() error
}

type fieldsKey struct{}

// ContextWithFields returns a context carrying fields added to every entry
// logged with it
func ContextWithFields(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, fieldsKey{}, mergeFields(FieldsFromContext(ctx), fields))
}

// FieldsFromContext returns the fields attached to ctx, or nil
func FieldsFromContext(ctx context.Context) Fields {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(Fields)
	return fields
}

// discardLogger backs runs without --log
type discardLogger struct{}

// NewNullLogger returns a Logger that drops every entry
func NewNullLogger() Logger { return discardLogger{} }

func (discardLogger) Debug(context.Context, string, Fields) {}
func (discardLogger) Info(context.Context, string, Fields) {}
func (discardLogger) Warn(context.Context, string, Fields) {}
func (discardLogger) Error(context.Context, string, error, Fields) {}
func (d discardLogger) WithFields(Fields) Logger { return d }
func (discardLogger) Close() error { return nil }
