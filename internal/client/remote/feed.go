package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mwhitby/parley/internal/client"
)

// snapshotFrame mirrors the server's websocket frame: a full feed
// snapshot or a terminal error.
type snapshotFrame struct {
	Type     string           `json:"type"`
	Messages []client.Message `json:"messages"`
	Error    string           `json:"error"`
}

// Subscribe dials the feed websocket and translates its frames into
// FeedUpdates. The token travels in the query string because websocket
// dials cannot carry an Authorization header from every environment.
func (c *Client) Subscribe(ctx context.Context) (<-chan client.FeedUpdate, func(), error) {
	tok := c.currentToken()
	if tok == "" {
		return nil, nil, &client.APIError{Type: "unauthorized", Message: "no active session"}
	}

	u := c.wsURL("/api/messages/feed") + "?token=" + tok
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, nil, &client.APIError{Type: "unauthorized", Message: "session expired"}
		}
		return nil, nil, client.NetworkError(err)
	}

	updates := make(chan client.FeedUpdate, 1)
	var once sync.Once
	closed := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(closed)
			conn.Close()
		})
	}

	go func() {
		defer close(updates)
		defer cancel()
		for {
			var frame snapshotFrame
			if err := conn.ReadJSON(&frame); err != nil {
				select {
				case <-closed:
					// Cancelled locally; not an error.
				default:
					updates <- client.FeedUpdate{Err: client.NetworkError(err)}
				}
				return
			}
			switch frame.Type {
			case "snapshot":
				updates <- client.FeedUpdate{Messages: frame.Messages}
			case "error":
				updates <- client.FeedUpdate{Err: &client.APIError{
					Type:    "internal",
					Message: frame.Error,
				}}
				return
			default:
				updates <- client.FeedUpdate{Err: client.NetworkError(
					fmt.Errorf("unknown frame type %q", frame.Type))}
				return
			}
		}
	}()

	return updates, cancel, nil
}
