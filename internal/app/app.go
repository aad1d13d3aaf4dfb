// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance) and wires together the auth, profile, and chat packages.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mwhitby/parley/internal/apperror"
	"github.com/mwhitby/parley/internal/auth"
	"github.com/mwhitby/parley/internal/chat"
	"github.com/mwhitby/parley/internal/config"
	"github.com/mwhitby/parley/internal/middleware"
	"github.com/mwhitby/parley/internal/profile"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all packages.
	DB *sql.DB

	// Redis is the Redis client shared for sessions and feed fanout.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// hub is the live feed fanout loop, started with Start.
	hub *chat.Hub

	// hubCancel stops the hub's event loop on shutdown.
	hubCancel context.CancelFunc
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. Rate limiting depends on this.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",    // Localhost
		"10.0.0.0/8",     // Docker default bridge
		"172.16.0.0/12",  // Docker bridge (alternate range)
		"192.168.0.0/16", // Common LAN
		"fd00::/8",       // IPv6 private
	})

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to JSON responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers on every response.
	a.Echo.Use(middleware.SecurityHeaders())

	// Cross-origin access for browser frontends, when configured.
	if len(a.Config.CORSAllowedOrigins) > 0 {
		a.Echo.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: a.Config.CORSAllowedOrigins,
		}))
	}
}

// RegisterRoutes wires up every package: repositories, services, handlers,
// and their routes.
func (a *App) RegisterRoutes() {
	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(
		userRepo,
		a.Redis,
		auth.LogMailer{},
		a.Config.BaseURL,
		a.Config.Auth.SessionTTL,
		a.Config.Auth.RememberTTL,
		a.Config.Auth.ResetTokenTTL,
	)
	auth.RegisterRoutes(a.Echo, auth.NewHandler(authService), authService)

	profileRepo := profile.NewRepository(a.DB)
	profile.RegisterRoutes(a.Echo, profile.NewHandler(profileRepo), authService)

	messageRepo := chat.NewMessageRepository(a.DB)
	chatService := chat.NewChatService(messageRepo, a.Redis, a.Config.Chat.FeedLimit)
	a.hub = chat.NewHub(chatService, a.Redis)
	chat.RegisterRoutes(a.Echo, chat.NewHandler(chatService, a.hub), authService)
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to the JSON error envelope the client's error mapper keys on:
// {"error": "...", "type": "...", "message": "..."}.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errType := apperror.TypeInternal
	message := "An unexpected error occurred"

	// Check if it's our domain error type.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		errType = appErr.Type
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		// Check for Echo's built-in HTTP errors (e.g., 404 from router).
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			errType = apperror.TypeBadRequest
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		} else {
			// Truly unexpected error -- log it.
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	c.JSON(code, map[string]string{
		"error":   http.StatusText(code),
		"type":    errType,
		"message": message,
	})
}

// Start launches the feed hub and begins listening for HTTP requests on the
// configured port.
func (a *App) Start() error {
	if a.hub != nil {
		var ctx context.Context
		ctx, a.hubCancel = context.WithCancel(context.Background())
		go a.hub.Run(ctx)
	}

	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Parley server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the feed hub.
func (a *App) Shutdown(ctx context.Context) error {
	if a.hubCancel != nil {
		a.hubCancel()
	}
	return a.Echo.Shutdown(ctx)
}
