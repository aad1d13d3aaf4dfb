// Package apperror provides domain-specific error types for Parley.
// These errors carry an HTTP status code, a machine-readable error code
// matching the auth/chat error taxonomy, and a user-safe message. The Echo
// error handler maps them to JSON responses automatically, and the client
// maps the Type field back to fixed user-facing strings.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes. These travel over the wire in the JSON
// error envelope and are the contract the client-side error mapper keys on.
const (
	TypeEmailInUse      = "email-already-in-use"
	TypeInvalidEmail    = "invalid-email"
	TypeWeakPassword    = "weak-password"
	TypeUserNotFound    = "user-not-found"
	TypeWrongPassword   = "wrong-password"
	TypeTooManyRequests = "too-many-requests"
	TypeUserDisabled    = "user-disabled"
	TypeUnauthorized    = "unauthorized"
	TypeValidation      = "validation_error"
	TypeBadRequest      = "bad_request"
	TypeNotFound        = "not_found"
	TypeInternal        = "internal_error"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error classifier, and a
// human-readable message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "wrong-password").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the auth error taxonomy ---

// NewEmailInUse creates a 409 error for duplicate registration attempts.
func NewEmailInUse() *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeEmailInUse,
		Message: "an account with this email already exists",
	}
}

// NewInvalidEmail creates a 422 error for malformed email addresses.
func NewInvalidEmail() *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeInvalidEmail,
		Message: "invalid email address",
	}
}

// NewWeakPassword creates a 422 error for passwords below the minimum length.
func NewWeakPassword() *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeWeakPassword,
		Message: "password is too weak",
	}
}

// NewUserNotFound creates a 404 error for sign-in against an unknown account.
func NewUserNotFound() *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeUserNotFound,
		Message: "no account found with this email",
	}
}

// NewWrongPassword creates a 401 error for a failed credential check.
func NewWrongPassword() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeWrongPassword,
		Message: "incorrect password",
	}
}

// NewUserDisabled creates a 403 error for sign-in against a disabled account.
func NewUserDisabled() *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    TypeUserDisabled,
		Message: "this account has been disabled",
	}
}

// --- Generic constructors ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeUnauthorized,
		Message: message,
	}
}

// NewValidation creates a 422 Unprocessable Entity error for validation failures.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeInternal,
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// As extracts an *AppError from an error chain. Returns nil, false when the
// chain contains no AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
