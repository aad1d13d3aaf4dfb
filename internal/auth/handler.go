package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mwhitby/parley/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and render the JSON response. No
// business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register processes account creation (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login processes sign-in (POST /api/auth/login). The remember flag selects
// the durable session TTL instead of the session-scoped one.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, session, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token, Session: *session})
}

// Session returns the session for the presented token (GET /api/auth/session).
// The client uses this at startup to decide between the login and chat views.
func (h *Handler) Session(c echo.Context) error {
	session := SessionFrom(c)
	if session == nil {
		return apperror.NewUnauthorized("no active session")
	}
	return c.JSON(http.StatusOK, session)
}

// Logout destroys the presented session (POST /api/auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	token := bearerToken(c)
	if token != "" {
		// Destroy the session in Redis. Ignore errors -- the client drops
		// its token regardless.
		_ = h.service.DestroySession(c.Request().Context(), token)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetDisplayName updates the current account's display name
// (PUT /api/auth/display-name). Requires an active session.
func (h *Handler) SetDisplayName(c echo.Context) error {
	session := SessionFrom(c)
	if session == nil {
		return apperror.NewUnauthorized("no active session")
	}

	var req DisplayNameRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if err := h.service.SetDisplayName(c.Request().Context(), session.UserID, req.DisplayName); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAccount removes the current account (DELETE /api/auth/account).
// This is the compensating action for a failed registration sequence.
func (h *Handler) DeleteAccount(c echo.Context) error {
	session := SessionFrom(c)
	if session == nil {
		return apperror.NewUnauthorized("no active session")
	}

	if err := h.service.DeleteAccount(c.Request().Context(), session.UserID); err != nil {
		return err
	}

	// The session is now orphaned; destroy it too.
	if token := bearerToken(c); token != "" {
		_ = h.service.DestroySession(c.Request().Context(), token)
	}

	return c.NoContent(http.StatusNoContent)
}

// RequestPasswordReset initiates the reset flow (POST /api/auth/reset-request).
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Email == "" {
		return apperror.NewValidation("email is required")
	}

	if err := h.service.InitiatePasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.NoContent(http.StatusAccepted)
}

// ResetPassword consumes a reset token and sets a new password
// (POST /api/auth/reset).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Token == "" {
		return apperror.NewValidation("token is required")
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
