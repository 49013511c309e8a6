package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Ledger errors
var (
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPendingNotFound      = errors.New("pending change not found")
	ErrStudentNotFound      = errors.New("student not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrAccountantNotFound   = errors.New("accountant not found")
	ErrLoginIDExists        = errors.New("login id already in use")
)

// Store errors
var (
	// ErrStoreUnavailable wraps any network or server failure of the remote store.
	ErrStoreUnavailable = errors.New("data store unavailable")
	// ErrRefreshSuperseded is returned by a refresh that was overtaken by a newer one.
	ErrRefreshSuperseded = errors.New("refresh superseded by a newer refresh")
)

// DuplicateTransactionError reports the payment that already uses a transaction id.
type DuplicateTransactionError struct {
	TransactionID string
	PaymentID     string
	StudentName   string
}

func (e *DuplicateTransactionError) Error() string {
	owner := e.StudentName
	if owner == "" {
		owner = "another record"
	}
	return fmt.Sprintf("duplicate transaction: id (%s) used for %s", e.TransactionID, owner)
}

// Unwrap lets errors.Is match ErrDuplicateTransaction.
func (e *DuplicateTransactionError) Unwrap() error {
	return ErrDuplicateTransaction
}

// Validation builds a validation error carrying a user-facing message.
func Validation(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// Message returns the user-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var dup *DuplicateTransactionError
	if errors.As(err, &dup) {
		return dup.Error()
	}
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}
