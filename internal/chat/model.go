// Package chat implements the shared message feed: message storage, the
// send path, and the live feed that pushes full snapshots to websocket
// subscribers whenever the feed changes.
package chat

import (
	"time"
)

// Message is a single chat message. Messages are immutable once stored and
// ordered by ServerTS, the authoritative timestamp assigned by the server at
// insert. ClientCreatedAt is the sender's local clock, kept only so a
// renderer has something to show before the authoritative timestamp is
// available (e.g. a local echo).
type Message struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	AuthorID        string    `json:"author_id"`
	AuthorEmail     string    `json:"author_email"`
	AuthorName      string    `json:"author_name"`
	ServerTS        time.Time `json:"server_ts"`
	ClientCreatedAt time.Time `json:"client_created_at"`
}

// SendRequest is the payload for posting a new message.
type SendRequest struct {
	Text            string    `json:"text"`
	ClientCreatedAt time.Time `json:"client_created_at"`
}

// Snapshot is a complete point-in-time view of the feed, superseding any
// prior one. The live feed only ever delivers whole snapshots -- subscribers
// re-render rather than patch.
type Snapshot struct {
	Type     string    `json:"type"` // "snapshot" or "error"
	Messages []Message `json:"messages,omitempty"`
	Error    string    `json:"error,omitempty"`
}
