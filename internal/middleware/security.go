package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders returns middleware that sets security-related HTTP
// headers on every response. Parley serves JSON and websockets only, so
// the headers lock responses down rather than whitelist resources.
//
// TLS is expected to terminate at a reverse proxy in front of the server.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// An API response has nothing to load; deny everything.
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			// Enforce HTTPS for a year including subdomains.
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

			// Prevent MIME type sniffing of JSON responses.
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent framing (redundant with CSP frame-ancestors for modern
			// browsers, kept for older ones).
			h.Set("X-Frame-Options", "DENY")

			// Limit referrer information leaked to external sites.
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			return next(c)
		}
	}
}
