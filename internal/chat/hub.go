package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/mwhitby/parley/internal/apperror"
)

// writeTimeout bounds how long a single websocket write may block before
// the subscriber is considered dead.
const writeTimeout = 10 * time.Second

// Hub fans the live feed out to websocket subscribers. It listens on the
// Redis feed channel; every notification triggers a fresh snapshot query
// which is broadcast whole to every subscriber. Snapshot semantics make
// overlapping deliveries safe: the last snapshot wins, there is no partial
// state to corrupt.
type Hub struct {
	service ChatService
	redis   *redis.Client

	register    chan *subscriber
	unregister  chan *subscriber
	subscribers map[*subscriber]bool

	// done is closed when Run returns so pump goroutines never block on
	// the register/unregister channels after the event loop has stopped.
	done chan struct{}
}

// subscriber is one websocket connection attached to the hub.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new feed hub.
func NewHub(service ChatService, rdb *redis.Client) *Hub {
	return &Hub{
		service:     service,
		redis:       rdb,
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		subscribers: make(map[*subscriber]bool),
		done:        make(chan struct{}),
	}
}

// Run is the hub's event loop. It owns the subscriber set; all mutation
// happens here, so no locking is needed. Run blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, feedChannel)
	defer pubsub.Close()
	notifications := pubsub.Channel()

	defer func() {
		close(h.done)
		for sub := range h.subscribers {
			close(sub.send)
			delete(h.subscribers, sub)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			h.subscribers[sub] = true
			// New subscribers get an immediate snapshot so the view can
			// render without waiting for the next insert.
			sub.deliver(h.snapshot(ctx))

		case sub := <-h.unregister:
			if h.subscribers[sub] {
				delete(h.subscribers, sub)
				close(sub.send)
			}

		case _, ok := <-notifications:
			if !ok {
				return
			}
			payload := h.snapshot(ctx)
			for sub := range h.subscribers {
				sub.deliver(payload)
			}
		}
	}
}

// snapshot builds the current feed snapshot as a wire payload. Query
// failures become an error frame; the feed contract says errors are
// terminal per attempt and the subscriber should refresh.
func (h *Hub) snapshot(ctx context.Context) []byte {
	messages, err := h.service.Latest(ctx)
	if err != nil {
		slog.Error("failed to build feed snapshot", slog.Any("error", err))
		payload, _ := json.Marshal(Snapshot{Type: "error", Error: apperror.SafeMessage(err)})
		return payload
	}

	payload, err := json.Marshal(Snapshot{Type: "snapshot", Messages: messages})
	if err != nil {
		payload, _ = json.Marshal(Snapshot{Type: "error", Error: "failed to encode snapshot"})
		return payload
	}
	return payload
}

// deliver queues a payload for the subscriber, dropping it if the send
// buffer is full. A dropped snapshot is harmless: the next one supersedes it.
func (s *subscriber) deliver(payload []byte) {
	select {
	case s.send <- payload:
	default:
	}
}

// Attach registers a websocket connection with the hub and starts its
// read/write pumps. The connection is owned by the hub from here on and is
// closed when the peer goes away or the hub shuts down.
func (h *Hub) Attach(conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, 8),
	}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return
	}

	go sub.writePump()
	go sub.readPump(h)
}

// writePump forwards queued payloads to the websocket until the send
// channel is closed or a write fails.
func (s *subscriber) writePump() {
	defer s.conn.Close()

	for payload := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	// Hub closed the channel: tell the peer we're done.
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump drains inbound frames (the feed is one-way; clients send
// nothing) and unregisters the subscriber when the connection drops.
func (s *subscriber) readPump(h *Hub) {
	defer func() {
		h.detach(s)
		s.conn.Close()
	}()

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// detach hands the subscriber back to the event loop. When Run has already
// returned there is nobody left to receive, so give up instead of blocking.
func (h *Hub) detach(s *subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}
