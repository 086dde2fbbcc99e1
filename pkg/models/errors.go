package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode is a stable string surfaced to callers on terminal failures.
type ErrorCode string

const (
	ErrUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"
	ErrParseFailed       ErrorCode = "PARSE_FAILED"
	ErrLLMUnavailable    ErrorCode = "LLM_UNAVAILABLE"
	ErrLLMTransient      ErrorCode = "LLM_TRANSIENT"
	ErrGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrAuth              ErrorCode = "AUTH"
	ErrCancelled         ErrorCode = "CANCELLED"
	ErrInternal          ErrorCode = "INTERNAL"
)

// CodedError carries an ErrorCode alongside a human-readable message.
type CodedError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.Err }

// NewError creates a CodedError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and message to an underlying error.
func WrapError(code ErrorCode, err error, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the ErrorCode from err. Context cancellation maps to
// ErrCancelled; anything uncoded is ErrInternal.
func CodeOf(err error) ErrorCode {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return ErrInternal
}

// Retryable reports whether the code participates in the generate/validate
// retry loop. Everything else is terminal.
func (c ErrorCode) Retryable() bool {
	return c == ErrGenerationFailed || c == ErrValidationFailed
}
