package chat

import (
	"context"
	"database/sql"
	"fmt"
)

// MessageRepository defines the data access contract for messages.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type MessageRepository interface {
	Insert(ctx context.Context, m *Message) error
	Latest(ctx context.Context, limit int) ([]Message, error)
}

// messageRepository implements MessageRepository with hand-written MariaDB queries.
type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository backed by the given DB pool.
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Insert stores a new message row.
func (r *messageRepository) Insert(ctx context.Context, m *Message) error {
	query := `INSERT INTO messages (id, text, author_id, author_email, author_name, server_ts, client_created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.Text,
		m.AuthorID,
		m.AuthorEmail,
		m.AuthorName,
		m.ServerTS,
		m.ClientCreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}

// Latest returns the most recent `limit` messages ordered by server
// timestamp ascending (oldest of the window first). The limit is a query
// cap, not a retention policy: older rows stay in the table, they just fall
// out of the feed window.
func (r *messageRepository) Latest(ctx context.Context, limit int) ([]Message, error) {
	query := `SELECT id, text, author_id, author_email, author_name, server_ts, client_created_at
	          FROM (
	              SELECT id, text, author_id, author_email, author_name, server_ts, client_created_at
	              FROM messages ORDER BY server_ts DESC LIMIT ?
	          ) window
	          ORDER BY server_ts ASC`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying latest messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.Text, &m.AuthorID, &m.AuthorEmail, &m.AuthorName,
			&m.ServerTS, &m.ClientCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
