// Package remote implements the client's backend contracts against the
// Parley HTTP and websocket API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mwhitby/parley/internal/client"
)

// Client talks to one Parley server. It implements client.AuthAPI,
// client.ProfileStore, and client.MessageFeed, and caches the bearer
// token and session between calls.
type Client struct {
	base *url.URL
	http *http.Client

	mu        sync.Mutex
	token     string
	session   *client.Session
	listeners map[int]func(*client.Session)
	nextID    int
}

// New returns a Client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Client{
		base:      u,
		http:      &http.Client{Timeout: 15 * time.Second},
		listeners: make(map[int]func(*client.Session)),
	}, nil
}

// wireError is the server's JSON error envelope.
type wireError struct {
	Error   string `json:"error"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// do performs one JSON round trip. A nil out discards the response body.
// Non-2xx responses become *client.APIError carrying the envelope's type;
// transport failures become network errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.currentToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return client.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var we wireError
		if err := json.NewDecoder(resp.Body).Decode(&we); err != nil || we.Type == "" {
			return client.NetworkError(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		return &client.APIError{Type: we.Type, Message: we.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return client.NetworkError(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// setSession stores the new token and session and notifies listeners.
func (c *Client) setSession(token string, s *client.Session) {
	c.mu.Lock()
	c.token = token
	c.session = s
	fns := make([]func(*client.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// --- AuthAPI ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type loginResponse struct {
	Token   string         `json:"token"`
	Session client.Session `json:"session"`
}

func (c *Client) SignIn(ctx context.Context, email, password string, remember bool) (*client.Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
		Remember: remember,
	}, &resp)
	if err != nil {
		return nil, err
	}
	sess := resp.Session
	c.setSession(resp.Token, &sess)
	return &sess, nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccount registers the account and then signs it in, so the
// follow-up profile calls run authenticated as the new user.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*client.Session, error) {
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{
		Email:    email,
		Password: password,
	}, nil); err != nil {
		return nil, err
	}
	return c.SignIn(ctx, email, password, false)
}

func (c *Client) SetDisplayName(ctx context.Context, name string) error {
	err := c.do(ctx, http.MethodPut, "/api/auth/display-name", map[string]string{"display_name": name}, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.session != nil {
		c.session.DisplayName = name
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/auth/account", nil, nil); err != nil {
		return err
	}
	c.setSession("", nil)
	return nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-request", map[string]string{"email": email}, nil)
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setSession("", nil)
	return err
}

// CurrentSession asks the server whether the cached token is still good.
// An invalid or missing token is not an error, just no session.
func (c *Client) CurrentSession(ctx context.Context) (*client.Session, error) {
	if c.currentToken() == "" {
		return nil, nil
	}
	var sess client.Session
	err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &sess)
	if err != nil {
		var api *client.APIError
		if errors.As(err, &api) && api.Type != client.ErrTypeNetwork {
			c.setSession("", nil)
			return nil, nil
		}
		return nil, err
	}
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()
	return &sess, nil
}

func (c *Client) OnSessionChange(fn func(*client.Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.session
	c.mu.Unlock()

	// Match subscription semantics: the listener hears the current state
	// right away, then every change.
	go fn(current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// --- ProfileStore ---

func (c *Client) SaveProfile(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPut, "/api/profiles/me", map[string]string{"name": name}, nil)
}

// --- MessageFeed (HTTP half) ---

type sendRequest struct {
	Text            string    `json:"text"`
	ClientCreatedAt time.Time `json:"client_created_at"`
}

func (c *Client) Send(ctx context.Context, text string, clientCreatedAt time.Time) error {
	return c.do(ctx, http.MethodPost, "/api/messages", sendRequest{
		Text:            text,
		ClientCreatedAt: clientCreatedAt,
	}, nil)
}

// wsURL derives the websocket endpoint from the HTTP base URL.
func (c *Client) wsURL(path string) string {
	u := *c.base.JoinPath(path)
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	return u.String()
}
