package domainerror

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// ErrorTypePattern represents malformed content-type patterns.
	ErrorTypePattern ErrorType = "pattern"
	// ErrorTypeConfig represents configuration errors.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeExchange represents exchange lifecycle errors.
	ErrorTypeExchange ErrorType = "exchange"
	// ErrorTypeSink represents failures to deliver a trace.
	ErrorTypeSink ErrorType = "sink"
	// ErrorTypeInternal represents internal errors.
	ErrorTypeInternal ErrorType = "internal"
)

// ErrorCode represents a specific error code.
type ErrorCode string

const (
	CodeInvalidPattern    ErrorCode = "INVALID_PATTERN"
	CodeConfigLoad        ErrorCode = "CONFIG_LOAD_ERROR"
	CodeConfigValidation  ErrorCode = "CONFIG_VALIDATION_ERROR"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeStopped           ErrorCode = "INTERCEPTION_STOPPED"
	CodeSinkFailed        ErrorCode = "SINK_FAILED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// SnifferError represents a structured error raised by the sniffer itself.
// Errors of the intercepted exchange are never wrapped in it.
type SnifferError struct {
	Type    ErrorType
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SnifferError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SnifferError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target by code.
func (e *SnifferError) Is(target error) bool {
	t, ok := target.(*SnifferError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new SnifferError.
func New(errType ErrorType, code ErrorCode, message string) *SnifferError {
	return &SnifferError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with SnifferError context.
func Wrap(err error, errType ErrorType, code ErrorCode, message string) *SnifferError {
	return &SnifferError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	var snifferErr *SnifferError
	if errors.As(err, &snifferErr) {
		return snifferErr.Type == errType
	}
	return false
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code ErrorCode) bool {
	var snifferErr *SnifferError
	if errors.As(err, &snifferErr) {
		return snifferErr.Code == code
	}
	return false
}

// Sentinel values usable with errors.Is.
var (
	ErrInvalidTransition = &SnifferError{Code: CodeInvalidTransition}
	ErrStopped           = &SnifferError{Code: CodeStopped}
)

// NewInvalidPattern creates a malformed content-type pattern error.
func NewInvalidPattern(pattern string) *SnifferError {
	return New(ErrorTypePattern, CodeInvalidPattern, fmt.Sprintf("content type pattern %q must have exactly two segments", pattern))
}

// NewInvalidTransition creates an exchange state machine error.
func NewInvalidTransition(from, event string) *SnifferError {
	return New(ErrorTypeExchange, CodeInvalidTransition, fmt.Sprintf("event %s is not valid in state %s", event, from))
}

// NewStopped creates an error for work attempted on a stopped interception.
func NewStopped() *SnifferError {
	return New(ErrorTypeExchange, CodeStopped, "interception already stopped")
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *SnifferError {
	return Wrap(cause, ErrorTypeConfig, CodeConfigLoad, message)
}

// NewSinkError creates a trace delivery error.
func NewSinkError(sink string, cause error) *SnifferError {
	return Wrap(cause, ErrorTypeSink, CodeSinkFailed, fmt.Sprintf("sink %s failed", sink))
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *SnifferError {
	return Wrap(cause, ErrorTypeInternal, CodeInternal, message)
}
