package port

import "time"

// Field represents a structured logging field.
type Field struct {
	Key   string
	Value any
}

// String returns a string field.
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int returns an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 returns an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Duration returns a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.Milliseconds()}
}

// Bool returns a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any returns a field holding an arbitrary value.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Error returns an error field.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger interface for structured logging.
// Domain and adapter code log through it so the zap wiring stays in infrastructure.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, fields ...Field)
	// Info logs an info message.
	Info(msg string, fields ...Field)
	// Warn logs a warning message.
	Warn(msg string, fields ...Field)
	// Error logs an error message.
	Error(msg string, fields ...Field)
	// With returns a new logger with the given fields.
	With(fields ...Field) Logger
}

// NopLogger is a no-op logger implementation for testing.
type NopLogger struct{}

func (n *NopLogger) Debug(msg string, fields ...Field) {}
func (n *NopLogger) Info(msg string, fields ...Field)  {}
func (n *NopLogger) Warn(msg string, fields ...Field)  {}
func (n *NopLogger) Error(msg string, fields ...Field) {}
func (n *NopLogger) With(fields ...Field) Logger       { return n }
