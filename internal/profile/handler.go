package profile

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mwhitby/parley/internal/apperror"
	"github.com/mwhitby/parley/internal/auth"
	"github.com/mwhitby/parley/internal/sanitize"
)

// Handler handles HTTP requests for profile records.
type Handler struct {
	repo Repository
}

// NewHandler creates a new profile handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Upsert writes the caller's profile record (PUT /api/profiles/me).
// The record is keyed by the session's user id; callers cannot write
// anyone else's profile.
func (h *Handler) Upsert(c echo.Context) error {
	session := auth.SessionFrom(c)
	if session == nil {
		return apperror.NewUnauthorized("no active session")
	}

	var req UpsertRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	name := sanitize.Text(req.Name)
	if name == "" {
		return apperror.NewValidation("name is required")
	}

	p := &Profile{
		UserID:    session.UserID,
		Name:      name,
		Email:     session.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.Upsert(c.Request().Context(), p); err != nil {
		return apperror.NewInternal(fmt.Errorf("writing profile: %w", err))
	}

	return c.JSON(http.StatusOK, p)
}

// RegisterRoutes sets up profile routes behind the session middleware.
func RegisterRoutes(e *echo.Echo, h *Handler, service auth.AuthService) {
	g := e.Group("/api/profiles", auth.RequireSession(service))
	g.PUT("/me", h.Upsert)
}
