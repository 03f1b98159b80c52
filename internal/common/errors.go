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

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrProviderNotConfigured is raised on first use of a provider whose
	// credential is absent. Never retried.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Conversion precondition errors. Callers match these with errors.Is to
// decide per-item continue-vs-abort.
var (
	ErrTenderNotFound   = errors.New("Tender not found")
	ErrTenderNoItems    = errors.New("Tender has no items")
	ErrDeliveryNotFound = errors.New("Delivery not found")
	ErrDeliveryNoItems  = errors.New("Delivery has no items")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
