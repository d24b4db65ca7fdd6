package services

import (
	"errors"
	"fmt"
)

// ErrorType classifies a DomainError for the transport layer
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError is an account-service failure with a user-facing Message.
// Err holds the underlying cause and is never shown to clients.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Type == t.Type
}

// WithDetail records a per-field detail and returns e
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a DomainError
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Account errors. Compare with errors.Is; never mutate them.
var (
	ErrUserNotFound       = NewDomainError(ErrorTypeNotFound, "User not found.", nil)
	ErrInvalidPagination  = NewDomainError(ErrorTypeValidation, "Page and pageSize must be positive integers.", nil)
	ErrInvalidRole        = NewDomainError(ErrorTypeValidation, "Role must be USER or ADMIN.", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "Invalid credentials.", nil)
	ErrForbidden          = NewDomainError(ErrorTypeForbidden, "Access denied.", nil)
	ErrDuplicateEmail     = NewDomainError(ErrorTypeConflict, "User with this email already exists.", nil)
)

func asDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	ok := errors.As(err, &domainErr)
	return domainErr, ok
}

// GetErrorType returns the ErrorType of err, or "" if err is not a DomainError
func GetErrorType(err error) ErrorType {
	if domainErr, ok := asDomainError(err); ok {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details of err, or nil if err is not a DomainError
func GetErrorDetails(err error) map[string]interface{} {
	if domainErr, ok := asDomainError(err); ok {
		return domainErr.Details
	}
	return nil
}

func IsNotFoundError(err error) bool     { return GetErrorType(err) == ErrorTypeNotFound }
func IsValidationError(err error) bool   { return GetErrorType(err) == ErrorTypeValidation }
func IsUnauthorizedError(err error) bool { return GetErrorType(err) == ErrorTypeUnauthorized }
func IsForbiddenError(err error) bool    { return GetErrorType(err) == ErrorTypeForbidden }
func IsConflictError(err error) bool     { return GetErrorType(err) == ErrorTypeConflict }
func IsInternalError(err error) bool     { return GetErrorType(err) == ErrorTypeInternal }

// WrapInternal wraps a storage or crypto failure as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
