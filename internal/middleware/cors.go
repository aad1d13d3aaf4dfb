package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests to the API. Use ["*"] to allow all (not recommended for
	// production). Browser-based chat frontends served from a different
	// origin need their origin listed here; the terminal client is not
	// subject to CORS at all.
	AllowedOrigins []string
}

// CORS returns middleware that handles Cross-Origin Resource Sharing
// headers for the JSON API. Origins not in the whitelist get no CORS
// headers; the browser blocks the response on its side.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[strings.TrimRight(o, "/")] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			origin := req.Header.Get("Origin")
			if origin == "" {
				// Same-origin or non-browser client.
				return next(c)
			}

			if !allowAll && !originSet[origin] {
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Set("Vary", "Origin")

			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods",
					strings.Join([]string{
						http.MethodGet,
						http.MethodPost,
						http.MethodPut,
						http.MethodDelete,
						http.MethodOptions,
					}, ", "))
				res.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")

				// Cache preflight responses for an hour.
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
