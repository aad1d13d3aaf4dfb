// Package profile stores per-user profile records. A profile is written once
// at registration, keyed by the user id, and is never read back by the chat
// client; it exists for other consumers (admin tooling, exports).
package profile

import "time"

// Profile is the per-user profile record.
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertRequest is the payload for writing the caller's profile.
type UpsertRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
