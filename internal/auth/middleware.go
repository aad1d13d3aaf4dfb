package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mwhitby/parley/internal/apperror"
)

// sessionContextKey is the Echo context key under which the validated
// session is stored by RequireSession.
const sessionContextKey = "parley_session"

// RequireSession returns middleware that validates the bearer token on every
// request and stores the resulting session in the context. Requests without
// a valid session get a 401 with the unauthorized error code.
func RequireSession(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(sessionContextKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by RequireSession, or nil when the
// route was not behind the middleware.
func SessionFrom(c echo.Context) *Session {
	session, _ := c.Get(sessionContextKey).(*Session)
	return session
}

// bearerToken extracts the token from the Authorization header. Websocket
// upgrades can't set headers from every client, so a token query parameter
// is accepted as a fallback.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam("token")
}
