package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a pipeline failure.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrModalityMismatch    ErrorCode = "MODALITY_MISMATCH"
	ErrUnsupportedTask     ErrorCode = "UNSUPPORTED_TASK"
	ErrEmptyInput          ErrorCode = "EMPTY_INPUT"
	ErrPreprocessFailed    ErrorCode = "PREPROCESS_FAILED"
	ErrProcessingFailed    ErrorCode = "PROCESSING_FAILED"
	ErrFusionFailed        ErrorCode = "FUSION_FAILED"
	ErrPostprocessFailed   ErrorCode = "POSTPROCESS_FAILED"
	ErrNoEndpointAvailable ErrorCode = "NO_ENDPOINT_AVAILABLE"
)

// Error is a structured error carrying the failing pipeline stage's code and,
// where relevant, the modality being processed when the failure occurred.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Modality  Modality  `json:"modality,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithModality records the modality being processed when the error occurred.
func (e *Error) WithModality(m Modality) *Error {
	e.Modality = m
	return e
}

// WithRetryable marks the error as retryable by the caller.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// CodeOf extracts the error code from err or any error it wraps. It returns
// an empty code when err carries no structured error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
