package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mwhitby/parley/internal/middleware"
)

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// The session middleware is exported separately for other packages to use on
// their route groups.
//
// POST endpoints are rate-limited to prevent brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for login, 5 for register
// and reset. Exceeding the limit surfaces the too-many-requests error code.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	// Public routes -- no session required.
	e.POST("/api/auth/register", h.Register, middleware.RateLimit(5, time.Minute))
	e.POST("/api/auth/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/api/auth/reset-request", h.RequestPasswordReset, middleware.RateLimit(5, time.Minute))
	e.POST("/api/auth/reset", h.ResetPassword, middleware.RateLimit(5, time.Minute))

	// Logout is deliberately public: it destroys whatever token is presented
	// and succeeds even when the session already expired.
	e.POST("/api/auth/logout", h.Logout)

	// Session-scoped routes.
	authed := e.Group("/api/auth", RequireSession(service))
	authed.GET("/session", h.Session)
	authed.PUT("/display-name", h.SetDisplayName)
	authed.DELETE("/account", h.DeleteAccount)
}
