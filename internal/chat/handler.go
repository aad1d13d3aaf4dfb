package chat

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mwhitby/parley/internal/apperror"
	"github.com/mwhitby/parley/internal/auth"
)

// upgrader performs the websocket handshake for feed subscriptions.
// Origin checking is left permissive: the feed requires a valid session
// token and carries no per-origin state.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler handles HTTP requests for the message feed.
type Handler struct {
	service ChatService
	hub     *Hub
}

// NewHandler creates a new chat handler.
func NewHandler(service ChatService, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// Send stores a new message (POST /api/messages). Requires a session; the
// author fields come from the session, never from the request body.
func (h *Handler) Send(c echo.Context) error {
	session := auth.SessionFrom(c)
	if session == nil {
		return apperror.NewUnauthorized("no active session")
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	m, err := h.service.Send(c.Request().Context(), session, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, m)
}

// Latest returns the current feed window (GET /api/messages). Useful for
// consumers that don't hold a live subscription.
func (h *Handler) Latest(c echo.Context) error {
	messages, err := h.service.Latest(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Snapshot{Type: "snapshot", Messages: messages})
}

// Feed upgrades to a websocket and attaches the connection to the hub
// (GET /api/messages/feed). The subscriber receives an immediate snapshot
// and then a fresh snapshot after every feed change until it disconnects.
func (h *Handler) Feed(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	h.hub.Attach(conn)
	return nil
}
