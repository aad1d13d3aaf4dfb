package chat

import (
	"github.com/labstack/echo/v4"

	"github.com/mwhitby/parley/internal/auth"
)

// RegisterRoutes sets up all message feed routes behind the session
// middleware. The websocket endpoint accepts the token as a query
// parameter because not every websocket client can set headers.
func RegisterRoutes(e *echo.Echo, h *Handler, service auth.AuthService) {
	g := e.Group("/api/messages", auth.RequireSession(service))
	g.POST("", h.Send)
	g.GET("", h.Latest)
	g.GET("/feed", h.Feed)
}
