// Package client implements the chat client's controllers: form validation,
// the registration saga, session handling, the live feed subscription, and
// message rendering. Controllers talk to the backend through the AuthAPI,
// ProfileStore, and MessageFeed contracts and drive the UI through the view
// interfaces -- they never touch a concrete UI toolkit.
package client

import (
	"context"
	"strings"
	"time"
)

// Session is the authenticated identity of the current client. The client
// holds only a transient, read-only reference; it is reset to nil on
// sign-out or when the backend reports no session.
type Session struct {
	ID          string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// AuthorName returns the display name, defaulting to the part of the email
// before the @ when no display name is set.
func (s *Session) AuthorName() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if at := strings.Index(s.Email, "@"); at > 0 {
		return s.Email[:at]
	}
	return s.Email
}

// Message is one entry in the shared feed. ServerTS is the authoritative
// ordering timestamp assigned by the backend; ClientCreatedAt is the
// sender's clock, used for display only while ServerTS is absent.
type Message struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	AuthorID        string    `json:"author_id"`
	AuthorEmail     string    `json:"author_email"`
	AuthorName      string    `json:"author_name"`
	ServerTS        time.Time `json:"server_ts"`
	ClientCreatedAt time.Time `json:"client_created_at"`
}

// UserProfile is the record written once at registration. It is keyed by
// the session id server-side and never read back by this client.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FeedUpdate is one delivery from the live subscription: either a complete
// snapshot superseding any prior one, or a terminal error for this
// subscription attempt.
type FeedUpdate struct {
	Messages []Message
	Err      error
}

// AuthAPI is the client's contract with the authentication service.
type AuthAPI interface {
	// SignIn authenticates and establishes a session. remember selects the
	// durable persistence mode over the session-scoped one.
	SignIn(ctx context.Context, email, password string, remember bool) (*Session, error)

	// CreateAccount registers a new account and establishes a session for it.
	CreateAccount(ctx context.Context, email, password string) (*Session, error)

	// SetDisplayName updates the current account's display name.
	SetDisplayName(ctx context.Context, name string) error

	// DeleteAccount removes the current account. Compensating action for a
	// failed registration sequence.
	DeleteAccount(ctx context.Context) error

	// SendPasswordReset requests a reset email for the address.
	SendPasswordReset(ctx context.Context, email string) error

	// SignOut ends the current session.
	SignOut(ctx context.Context) error

	// CurrentSession returns the active session, or nil when there is none.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a listener invoked with the session (or nil)
	// whenever it changes, and immediately with the current state. The
	// returned cancel detaches the listener.
	OnSessionChange(fn func(*Session)) (cancel func())
}

// ProfileStore is the client's contract with the profile collection of the
// document store: a single-document upsert keyed by the session id.
type ProfileStore interface {
	SaveProfile(ctx context.Context, name string) error
}

// MessageFeed is the client's contract with the message collection of the
// document store.
type MessageFeed interface {
	// Subscribe opens a live subscription to the feed. Every update carries
	// a complete snapshot. The returned cancel tears the subscription down;
	// after cancel (or a terminal error) the channel is closed.
	Subscribe(ctx context.Context) (<-chan FeedUpdate, func(), error)

	// Send submits a new message.
	Send(ctx context.Context, text string, clientCreatedAt time.Time) error
}
