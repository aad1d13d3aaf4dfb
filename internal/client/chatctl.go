package client

import (
	"context"
	"strings"
	"sync"
	"time"
)

// nearBottomPx is how close to the feed's bottom edge the user must be
// for a re-render to keep following new messages.
const nearBottomPx = 100

// ChatController owns the chat screen: the live feed subscription, the
// snapshot re-render, and message submission.
type ChatController struct {
	feed   MessageFeed
	view   ChatView
	alerts *AlertPresenter
	nav    *Navigator

	mu         sync.Mutex
	session    *Session
	cancelFeed func()
}

func NewChatController(feed MessageFeed, view ChatView, nav *Navigator, sched Scheduler) *ChatController {
	return &ChatController{
		feed:   feed,
		view:   view,
		alerts: NewAlertPresenter(view, sched),
		nav:    nav,
	}
}

// HandleSessionChange reacts to session notifications while the chat
// screen is current. A missing session sends the user back to the login
// page; a present one starts (or restarts) the feed subscription.
func (c *ChatController) HandleSessionChange(ctx context.Context, s *Session) {
	if s == nil {
		c.stopFeed()
		c.setSession(nil)
		c.nav.To(PageLogin)
		return
	}
	c.setSession(s)
	c.view.SetSessionEmail(s.Email)
	c.Subscribe(ctx)
}

func (c *ChatController) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *ChatController) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Subscribe opens the live feed subscription, replacing any previous one.
// Each update is a full snapshot and triggers a full re-render; a
// subscription error replaces the feed with an error notice.
func (c *ChatController) Subscribe(ctx context.Context) {
	c.stopFeed()
	c.view.ShowFeedLoading()

	updates, cancel, err := c.feed.Subscribe(ctx)
	if err != nil {
		c.view.ShowFeedError(UserMessage(err) + ". Please refresh the page")
		return
	}

	c.mu.Lock()
	c.cancelFeed = cancel
	c.mu.Unlock()

	go func() {
		for u := range updates {
			if u.Err != nil {
				c.view.ShowFeedError(UserMessage(u.Err) + ". Please refresh the page")
				return
			}
			c.render(u.Messages)
		}
	}()
}

func (c *ChatController) stopFeed() {
	c.mu.Lock()
	cancel := c.cancelFeed
	c.cancelFeed = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// render replaces the feed contents with a snapshot. Whether to follow
// the new bottom is decided from the scroll position before anything is
// replaced.
func (c *ChatController) render(messages []Message) {
	pinned := c.view.NearBottom(nearBottomPx)
	c.view.ClearMessages()

	if len(messages) == 0 {
		c.view.ShowFeedEmpty()
		return
	}

	sess := c.currentSession()
	for _, m := range messages {
		c.view.AppendMessage(renderMessage(m, sess))
	}
	if pinned {
		c.view.ScrollToBottom()
	}
}

// renderMessage prepares one message for display. Ownership is decided at
// render time against the current session, so a snapshot arriving after
// login attributes past messages correctly.
func renderMessage(m Message, sess *Session) RenderedMessage {
	class := "other"
	if sess != nil && m.AuthorID == sess.ID {
		class = "own"
	}
	ts := m.ServerTS
	if ts.IsZero() {
		ts = m.ClientCreatedAt
	}
	return RenderedMessage{
		Sender: EscapeHTML(m.AuthorName),
		Body:   EscapeHTML(m.Text),
		Time:   FormatTimestamp(ts, time.Now()),
		Class:  class,
	}
}

// Send submits the composer text. Blank input is silently ignored; the
// composer is cleared only on success so a failed message can be retried
// as typed.
func (c *ChatController) Send(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if c.currentSession() == nil {
		c.alerts.Show(SeverityDanger, "You must be logged in to send messages")
		return
	}

	c.view.SetLoading(ControlSend, true)
	defer func() {
		c.view.SetLoading(ControlSend, false)
		c.view.FocusInput()
	}()

	if err := c.feed.Send(ctx, trimmed, time.Now()); err != nil {
		c.alerts.Show(SeverityDanger, "Failed to send message: "+UserMessage(err))
		return
	}
	c.view.ClearInput()
}

// Close tears down the subscription. Call when the chat screen goes away.
func (c *ChatController) Close() {
	c.stopFeed()
}
