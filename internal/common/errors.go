package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeUnreadable = "UNREADABLE"
	CodeReport     = "REPORT_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConfig       = errors.New("configuration error")
	ErrUnreadable   = errors.New("file unreadable")
	ErrUnsupported  = errors.New("unsupported format")
	ErrInference    = errors.New("inference failed")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError wraps cause so that errors.Is(err, ErrConfig) holds.
func ConfigError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrConfig
	} else if !errors.Is(cause, ErrConfig) {
		cause = fmt.Errorf("%w: %w", ErrConfig, cause)
	}
	return NewAppError(CodeConfig, message, cause)
}

// IsConfigError reports whether err must abort the run.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
