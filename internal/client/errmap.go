package client

import (
	"errors"
	"fmt"
)

// ErrTypeNetwork marks a transport-level failure: the request never got a
// well-formed answer from the backend. Produced client-side, never by the
// backend itself.
const ErrTypeNetwork = "network-request-failed"

// APIError is a failure reported by (or on the way to) the backend,
// carrying the machine-readable taxonomy type from the wire envelope.
type APIError struct {
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NetworkError wraps a transport failure as an APIError.
func NetworkError(err error) *APIError {
	return &APIError{Type: ErrTypeNetwork, Message: err.Error()}
}

// UserMessage translates an operation error into the string shown to the
// user. Known taxonomy types map to fixed phrasings; anything else falls
// back to the backend's own message text.
func UserMessage(err error) string {
	var api *APIError
	if !errors.As(err, &api) {
		return "Network error. Please check your connection"
	}
	switch api.Type {
	case "email-already-in-use":
		return "This email is already registered"
	case "invalid-email":
		return "Invalid email address"
	case "weak-password":
		return "Password is too weak"
	case "user-not-found":
		return "No account found with this email"
	case "wrong-password":
		return "Incorrect password"
	case "too-many-requests":
		return "Too many failed attempts. Please try again later"
	case ErrTypeNetwork:
		return "Network error. Please check your connection"
	case "user-disabled":
		return "This account has been disabled"
	}
	if api.Message != "" {
		return api.Message
	}
	return "An unexpected error occurred"
}
