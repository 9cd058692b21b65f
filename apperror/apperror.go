// Package apperror defines a centralized system for application-specific errors.
// Every failure the API can report is one of the types below, so handlers can
// map any error to a consistent HTTP status and response envelope.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of an application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// MissingCredentialsError: login request without email or password
	MissingCredentialsError
	// InvalidCredentialsError: unknown email or wrong password. The two cases
	// share one type and one message so callers cannot enumerate accounts.
	InvalidCredentialsError
	// AccountDisabledError: the matched account has is_active = false
	AccountDisabledError
	// AccountLockedError: the matched account is under a lockout window
	AccountLockedError
	// MissingTokenError: protected request without an Authorization header
	MissingTokenError
	// InvalidTokenError: malformed token or bad signature
	InvalidTokenError
	// ExpiredTokenError: token past its expiry claim
	ExpiredTokenError
	// ValidationError: one or more request fields violated their constraints
	ValidationError
	// NotFoundError: resource absent, or owned by someone else (same shape)
	NotFoundError
	// ConflictError: resource already exists, e.g. duplicate email
	ConflictError
	// StorageError wraps any backing-store fault
	StorageError
	// NotificationError: email dispatch failure; logged, never sent to clients
	NotificationError
	// InternalError is a generic internal server error
	InternalError
)

// FieldError carries a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field" example:"amount"`
	Message string `json:"message" example:"Amount must be a positive number"`
}

// AppError is the application's error type. It wraps an optional underlying
// error for debugging and, for validation failures, the full list of violated
// fields.
type AppError struct {
	Type    ErrorType
	Message string
	Fields  []FieldError
	Err     error // underlying error, never serialized
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case MissingCredentialsError, ValidationError:
		return http.StatusBadRequest
	case InvalidCredentialsError, MissingTokenError, InvalidTokenError, ExpiredTokenError:
		return http.StatusUnauthorized
	case AccountDisabledError, AccountLockedError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	case NotificationError:
		return http.StatusBadGateway
	case StorageError, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. Generic constructor for cases where the
// error type is determined dynamically.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewMissingCredentialsError creates a MissingCredentials error.
func NewMissingCredentialsError(message string) *AppError {
	return NewAppError(MissingCredentialsError, message, nil)
}

// NewInvalidCredentialsError creates an InvalidCredentials error.
func NewInvalidCredentialsError(message string) *AppError {
	return NewAppError(InvalidCredentialsError, message, nil)
}

// NewAccountDisabledError creates an AccountDisabled error.
func NewAccountDisabledError(message string) *AppError {
	return NewAppError(AccountDisabledError, message, nil)
}

// NewAccountLockedError creates an AccountLocked error.
func NewAccountLockedError(message string) *AppError {
	return NewAppError(AccountLockedError, message, nil)
}

// NewMissingTokenError creates a MissingToken error.
func NewMissingTokenError(message string) *AppError {
	return NewAppError(MissingTokenError, message, nil)
}

// NewInvalidTokenError creates an InvalidToken error.
func NewInvalidTokenError(message string, underlyingError error) *AppError {
	return NewAppError(InvalidTokenError, message, underlyingError)
}

// NewExpiredTokenError creates an ExpiredToken error.
func NewExpiredTokenError(message string, underlyingError error) *AppError {
	return NewAppError(ExpiredTokenError, message, underlyingError)
}

// NewValidationError creates a ValidationError carrying every violated field.
func NewValidationError(message string, fields []FieldError) *AppError {
	return &AppError{
		Type:    ValidationError,
		Message: message,
		Fields:  fields,
	}
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(message string) *AppError {
	return NewAppError(NotFoundError, message, nil)
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// NewStorageError creates a StorageError wrapping a backing-store fault.
func NewStorageError(message string, underlyingError error) *AppError {
	return NewAppError(StorageError, message, underlyingError)
}

// NewNotificationError creates a NotificationError. These are logged by the
// caller and never written to an HTTP response.
func NewNotificationError(message string, underlyingError error) *AppError {
	return NewAppError(NotificationError, message, underlyingError)
}

// NewInternalError creates a generic InternalError.
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// ErrorResponse is the JSON error envelope for API clients. Only the
// user-facing message and field errors are included, never the underlying
// error or any storage detail.
type ErrorResponse struct {
	Success bool         `json:"success" example:"false"`
	Message string       `json:"message" example:"A description of the error"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API
// responses.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Success: false, Message: e.Message, Errors: e.Fields}
}

// FromError attempts to convert a generic error to an *AppError.
// It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsAccountLocked checks if an error is an AccountLocked error.
func IsAccountLocked(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == AccountLockedError
}

// IsConflictError checks if an error is a Conflict error.
func IsConflictError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ConflictError
}
