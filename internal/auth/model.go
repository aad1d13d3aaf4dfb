// Package auth implements the authentication service for Parley: account
// creation, credential verification, Redis-backed session lifecycle, and
// password reset. Sessions are random hex tokens mapped to JSON session
// blobs in Redis with a TTL that depends on the remember-me choice.
package auth

import (
	"time"
)

// User represents a registered Parley user. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use this
// struct directly.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	IsDisabled   bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted to the register endpoint.
// Display name is set by a separate call, mirroring the account-then-profile
// registration sequence the client drives.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest holds the data submitted to the login endpoint. Remember
// selects the durable session TTL instead of the session-scoped one.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// DisplayNameRequest holds the data for updating the current account's name.
type DisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// ResetRequest holds the email submitted to the password-reset endpoint.
type ResetRequest struct {
	Email string `json:"email"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// --- Session ---

// Session represents an authenticated user session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse is returned on successful sign-in.
type LoginResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}
