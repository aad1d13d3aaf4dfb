package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mwhitby/parley/internal/apperror"
	"github.com/mwhitby/parley/internal/auth"
	"github.com/mwhitby/parley/internal/sanitize"
)

// feedChannel is the Redis pub/sub channel the service publishes to after
// every insert. The hub listens on it and rebroadcasts full snapshots.
const feedChannel = "chat:feed"

// ChatService defines the business logic contract for the message feed.
type ChatService interface {
	Send(ctx context.Context, session *auth.Session, input SendRequest) (*Message, error)
	Latest(ctx context.Context) ([]Message, error)
}

// chatService implements ChatService over MariaDB storage with Redis fanout.
type chatService struct {
	repo      MessageRepository
	redis     *redis.Client
	feedLimit int
}

// NewChatService creates a new chat service with the given dependencies.
func NewChatService(repo MessageRepository, rdb *redis.Client, feedLimit int) ChatService {
	return &chatService{
		repo:      repo,
		redis:     rdb,
		feedLimit: feedLimit,
	}
}

// Send validates and stores a new message, then notifies the feed. The
// server timestamp is assigned here and is authoritative for ordering.
// The author name falls back to the email local-part when the account has
// no display name.
func (s *chatService) Send(ctx context.Context, session *auth.Session, input SendRequest) (*Message, error) {
	text := sanitize.Text(input.Text)
	if text == "" {
		return nil, apperror.NewValidation("message text is required")
	}

	clientCreatedAt := input.ClientCreatedAt
	if clientCreatedAt.IsZero() {
		clientCreatedAt = time.Now().UTC()
	}

	m := &Message{
		ID:              uuid.NewString(),
		Text:            text,
		AuthorID:        session.UserID,
		AuthorEmail:     session.Email,
		AuthorName:      authorName(session),
		ServerTS:        time.Now().UTC(),
		ClientCreatedAt: clientCreatedAt,
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing message: %w", err))
	}

	// Wake the hub. Failure here is non-fatal: the message is stored and
	// will appear in the next snapshot any other insert triggers.
	if err := s.redis.Publish(ctx, feedChannel, m.ID).Err(); err != nil {
		slog.Warn("failed to publish feed notification",
			slog.String("message_id", m.ID),
			slog.Any("error", err),
		)
	}

	return m, nil
}

// Latest returns the current feed window.
func (s *chatService) Latest(ctx context.Context) ([]Message, error) {
	messages, err := s.repo.Latest(ctx, s.feedLimit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading messages: %w", err))
	}
	return messages, nil
}

// authorName resolves the display name for a message, defaulting to the
// part of the email before the @ when no display name is set.
func authorName(session *auth.Session) string {
	if session.Name != "" {
		return session.Name
	}
	if at := strings.Index(session.Email, "@"); at > 0 {
		return session.Email[:at]
	}
	return session.Email
}
