package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so handlers can pick a status code
type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation_error"
	ErrorKindNotFound      ErrorKind = "not_found"
	ErrorKindConflict      ErrorKind = "conflict"
	ErrorKindVerification  ErrorKind = "verification_failed"
	ErrorKindConfiguration ErrorKind = "configuration_error"
	ErrorKindUpstream      ErrorKind = "upstream_error"
	ErrorKindStorage       ErrorKind = "storage_error"
	ErrorKindInternal      ErrorKind = "internal_error"
)

// AppError carries a kind, a client-safe message and the underlying cause
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports malformed or missing input
func NewValidationError(message string) *AppError {
	return &AppError{Kind: ErrorKindValidation, Message: message}
}

// NewNotFoundError reports an unknown booking or location
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: ErrorKindNotFound, Message: message}
}

// NewConflictError reports a full slot or a booking already in a terminal state
func NewConflictError(message string) *AppError {
	return &AppError{Kind: ErrorKindConflict, Message: message}
}

// NewVerificationError reports a signature mismatch
func NewVerificationError(message string) *AppError {
	return &AppError{Kind: ErrorKindVerification, Message: message}
}

// NewConfigurationError reports missing provider credentials
func NewConfigurationError(message string) *AppError {
	return &AppError{Kind: ErrorKindConfiguration, Message: message}
}

// NewUpstreamError wraps a payment provider failure
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{Kind: ErrorKindUpstream, Message: message, Err: err}
}

// NewStorageError wraps a persistence failure
func NewStorageError(message string, err error) *AppError {
	return &AppError{Kind: ErrorKindStorage, Message: message, Err: err}
}

// ErrorKindOf returns the kind of err, or ErrorKindInternal for untyped errors
func ErrorKindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrorKindInternal
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && ErrorKindOf(err) == kind
}

// Sentinel errors returned by repositories
var (
	ErrBookingNotFound   = NewNotFoundError("booking not found")
	ErrLocationNotFound  = NewNotFoundError("location not found")
	ErrBookingNotPending = NewConflictError("booking is not in pending status")
	ErrOrderMismatch     = NewConflictError("booking is not linked to this order")
	ErrCapacityExhausted = NewConflictError("no pods available for this date")
	ErrLatePayment       = NewConflictError("payment completed after the booking was closed")
)
