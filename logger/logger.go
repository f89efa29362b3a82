// Package logger provides the structured, context-aware logging used across scriptvault.
package logger

import "context"

// Fields are the structured key/value pairs attached to a log entry.
type Fields = map[string]interface{}

// Logger writes leveled entries with structured fields. Nil fields are allowed.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, msg string, fields Fields)

	// WithField and WithFields derive a logger that adds the fields to every entry.
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
}
