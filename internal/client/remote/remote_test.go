package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitby/parley/internal/client"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, srv
}

func recvUpdate(t *testing.T, updates <-chan client.FeedUpdate) client.FeedUpdate {
	t.Helper()
	select {
	case u, ok := <-updates:
		require.True(t, ok, "update channel closed early")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a feed update")
		return client.FeedUpdate{}
	}
}

func TestSignIn_DecodesSessionAndStoresToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pat@example.com", req.Email)
		assert.Equal(t, "hunter22", req.Password)
		assert.True(t, req.Remember)

		json.NewEncoder(w).Encode(loginResponse{
			Token: "tok-1",
			Session: client.Session{
				ID:          "u1",
				Email:       "pat@example.com",
				DisplayName: "Pat",
			},
		})
	}))

	sess, err := c.SignIn(context.Background(), "pat@example.com", "hunter22", true)
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.ID)
	assert.Equal(t, "Pat", sess.DisplayName)
	assert.Equal(t, "tok-1", c.currentToken())
}

func TestDo_ErrorEnvelopeBecomesAPIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(wireError{
			Error:   "unauthorized",
			Type:    "wrong-password",
			Message: "wrong password",
		})
	}))

	_, err := c.SignIn(context.Background(), "pat@example.com", "nope", false)
	var api *client.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, "wrong-password", api.Type)
	assert.Equal(t, "wrong password", api.Message)
	assert.Empty(t, c.currentToken(), "a failed login must not store a token")
}

func TestDo_MalformedEnvelopeIsNetworkError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := c.SignIn(context.Background(), "pat@example.com", "hunter22", false)
	var api *client.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, client.ErrTypeNetwork, api.Type)
}

func TestDo_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.SignIn(context.Background(), "pat@example.com", "hunter22", false)
	var api *client.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, client.ErrTypeNetwork, api.Type)
	assert.Equal(t, "Network error. Please check your connection", client.UserMessage(err))
}

func TestCreateAccount_RegistersThenSignsIn(t *testing.T) {
	var calls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/auth/register":
			var req registerRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "new@example.com", req.Email)
			w.WriteHeader(http.StatusCreated)
		case "/api/auth/login":
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.False(t, req.Remember, "the registration sign-in is session-scoped")
			json.NewEncoder(w).Encode(loginResponse{
				Token:   "tok-2",
				Session: client.Session{ID: "u2", Email: "new@example.com"},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	sess, err := c.CreateAccount(context.Background(), "new@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u2", sess.ID)
	assert.Equal(t, "tok-2", c.currentToken())
	assert.Equal(t, []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
	}, calls)
}

func TestCreateAccount_StopsWhenRegistrationFails(t *testing.T) {
	var calls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(wireError{
			Error:   "conflict",
			Type:    "email-already-in-use",
			Message: "email already in use",
		})
	}))

	_, err := c.CreateAccount(context.Background(), "taken@example.com", "hunter22")
	var api *client.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, "email-already-in-use", api.Type)
	assert.Equal(t, []string{"/api/auth/register"}, calls)
}

func TestDo_SendsBearerToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	c.setSession("tok-3", &client.Session{ID: "u3"})

	require.NoError(t, c.SaveProfile(context.Background(), "Pat"))
	assert.Equal(t, "Bearer tok-3", gotAuth)
}

func TestSubscribe_RequiresSession(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())

	_, _, err := c.Subscribe(context.Background())
	var api *client.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, "unauthorized", api.Type)
}

func TestSubscribe_TranslatesFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/feed", r.URL.Path)
		assert.Equal(t, "tok-4", r.URL.Query().Get("token"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteJSON(snapshotFrame{
			Type: "snapshot",
			Messages: []client.Message{
				{ID: "m1", Text: "hello", AuthorEmail: "pat@example.com"},
			},
		})
		conn.WriteJSON(snapshotFrame{Type: "error", Error: "feed unavailable"})

		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	c.setSession("tok-4", &client.Session{ID: "u4"})

	updates, cancel, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancel()

	first := recvUpdate(t, updates)
	require.NoError(t, first.Err)
	require.Len(t, first.Messages, 1)
	assert.Equal(t, "m1", first.Messages[0].ID)

	second := recvUpdate(t, updates)
	var api *client.APIError
	require.True(t, errors.As(second.Err, &api))
	assert.Equal(t, "internal", api.Type)
	assert.Equal(t, "feed unavailable", api.Message)

	select {
	case _, ok := <-updates:
		assert.False(t, ok, "channel should close after a terminal error")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after the error frame")
	}
}

func TestSubscribe_CancelClosesQuietly(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	c.setSession("tok-5", &client.Session{ID: "u5"})

	updates, cancel, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	cancel()

	select {
	case u, ok := <-updates:
		if ok {
			assert.NoError(t, u.Err, "local cancellation is not an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
