package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrNotFound        = NewNotFoundError("resource", "resource not found")
	ErrAlreadyExists   = NewAlreadyExistsError("resource", "resource already exists")
	ErrInvalidArgument = NewInvalidArgumentError("", "invalid argument")
	ErrInternal        = NewInternalError("internal server error", nil)
)

// ValidationError represents a request-shape validation failure.
// Fields carries one entry per offending field; it is logged but never
// returned to HTTP clients.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

// FieldError describes a single failed field rule.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

// NewValidationError creates a new validation error
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return "validation failed"
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// AlreadyExistsError represents a resource already exists error
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// ConflictError signals that a request contradicts the addressed resource,
// e.g. a body id that differs from the path id.
type ConflictError struct {
	Message string
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// PasswordMismatchError signals a wrong current password or a
// confirmation that does not match the new password.
type PasswordMismatchError struct {
	Message string
}

// NewPasswordMismatchError creates a new password mismatch error
func NewPasswordMismatchError(message string) *PasswordMismatchError {
	return &PasswordMismatchError{Message: message}
}

// Error implements the error interface
func (e *PasswordMismatchError) Error() string {
	return e.Message
}

// InvalidArgumentError represents a malformed request parameter
type InvalidArgumentError struct {
	Field   string
	Message string
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(field, message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *InvalidArgumentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error kind to its HTTP status code.
// Wrapped errors are inspected with errors.As.
func HTTPStatus(err error) int {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		existsErr     *AlreadyExistsError
		conflictErr   *ConflictError
		passwordErr   *PasswordMismatchError
		argumentErr   *InvalidArgumentError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusNotAcceptable
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &existsErr), errors.As(err, &conflictErr), errors.As(err, &passwordErr):
		return http.StatusConflict
	case errors.As(err, &argumentErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable code for an error kind.
func Code(err error) string {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		existsErr     *AlreadyExistsError
		conflictErr   *ConflictError
		passwordErr   *PasswordMismatchError
		argumentErr   *InvalidArgumentError
	)

	switch {
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &existsErr):
		return "already_exists"
	case errors.As(err, &conflictErr):
		return "conflict"
	case errors.As(err, &passwordErr):
		return "password_mismatch"
	case errors.As(err, &argumentErr):
		return "invalid_argument"
	default:
		return "internal_error"
	}
}

// IsPasswordMismatch reports whether err is a password mismatch.
func IsPasswordMismatch(err error) bool {
	var passwordErr *PasswordMismatchError
	return errors.As(err, &passwordErr)
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// PublicMessage returns the text that is safe to show to API clients.
// Internal and unknown errors collapse to a generic message.
func PublicMessage(err error) string {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		existsErr     *AlreadyExistsError
		conflictErr   *ConflictError
		passwordErr   *PasswordMismatchError
		argumentErr   *InvalidArgumentError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Message == "" {
			return "validation failed"
		}
		return validationErr.Message
	case errors.As(err, &notFoundErr):
		return notFoundErr.Error()
	case errors.As(err, &existsErr):
		return existsErr.Error()
	case errors.As(err, &conflictErr):
		return conflictErr.Message
	case errors.As(err, &passwordErr):
		return passwordErr.Message
	case errors.As(err, &argumentErr):
		return argumentErr.Message
	default:
		return "Internal server error."
	}
}
