package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	feed   *fakeFeed
	view   *fakeChatView
	sched  *fakeScheduler
	nav    *Navigator
	navLog []Page
	ctl    *ChatController
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		feed:  newFakeFeed(),
		view:  newFakeChatView(),
		sched: &fakeScheduler{},
	}
	f.nav = NewNavigator(PageChat, func(p Page) { f.navLog = append(f.navLog, p) })
	f.ctl = NewChatController(f.feed, f.view, f.nav, f.sched)
	return f
}

func (f *chatFixture) withSession() *chatFixture {
	f.ctl.setSession(&Session{ID: "me", Email: "me@example.com"})
	return f
}

func TestSendIgnoresBlankInput(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.Send(context.Background(), "")
	f.ctl.Send(context.Background(), "   \n\t ")

	assert.Empty(t, f.feed.sentTexts())
	_, shown := f.view.lastAlert()
	assert.False(t, shown, "blank input is a silent no-op")
}

func TestSendRequiresSession(t *testing.T) {
	f := newChatFixture()

	f.ctl.Send(context.Background(), "hello")

	assert.Empty(t, f.feed.sentTexts())
	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeverityDanger, alert.sev)
	assert.Equal(t, "You must be logged in to send messages", alert.msg)
}

func TestSendSuccess(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.Send(context.Background(), "  hello there  ")

	assert.Equal(t, []string{"hello there"}, f.feed.sentTexts(), "exactly one message, trimmed")
	assert.Equal(t, []bool{true, false}, f.view.loading[ControlSend])
	assert.Equal(t, 1, f.view.inputCleared)
	assert.Equal(t, 1, f.view.focused)
}

func TestSendFailureKeepsInput(t *testing.T) {
	f := newChatFixture().withSession()
	f.feed.sendErr = &APIError{Type: ErrTypeNetwork, Message: "dial tcp: refused"}

	f.ctl.Send(context.Background(), "hello")

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, "Failed to send message: Network error. Please check your connection", alert.msg)
	assert.Zero(t, f.view.inputCleared, "input kept for retry")
	assert.Equal(t, []bool{true, false}, f.view.loading[ControlSend], "sending state restored")
	assert.Equal(t, 1, f.view.focused)
}

func TestRenderSnapshotOrderingAndOwnership(t *testing.T) {
	f := newChatFixture().withSession()
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	f.ctl.render([]Message{
		{ID: "1", Text: "first", AuthorID: "me", AuthorName: "Me", ServerTS: t0},
		{ID: "2", Text: "second", AuthorID: "them", AuthorName: "Them", ServerTS: t0.Add(time.Minute)},
		{ID: "3", Text: "third", AuthorID: "me", AuthorName: "Me", ServerTS: t0.Add(2 * time.Minute)},
	})

	require.Len(t, f.view.appended, 3)
	assert.Equal(t, "first", f.view.appended[0].Body)
	assert.Equal(t, "second", f.view.appended[1].Body)
	assert.Equal(t, "third", f.view.appended[2].Body)
	assert.Equal(t, "own", f.view.appended[0].Class)
	assert.Equal(t, "other", f.view.appended[1].Class)
	assert.Equal(t, "own", f.view.appended[2].Class)
	assert.Equal(t, 1, f.view.clears, "full re-render clears the feed first")
}

func TestRenderEscapesContent(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.render([]Message{{
		ID:         "1",
		Text:       `<img src=x onerror=alert(1)>`,
		AuthorID:   "them",
		AuthorName: `<b>Them</b>`,
		ServerTS:   time.Now(),
	}})

	require.Len(t, f.view.appended, 1)
	assert.NotContains(t, f.view.appended[0].Body, "<img")
	assert.NotContains(t, f.view.appended[0].Sender, "<b>")
}

func TestRenderEmptySnapshot(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.render(nil)

	assert.Equal(t, 1, f.view.feedEmpty)
	assert.Empty(t, f.view.appended)
}

func TestRenderScrollPinning(t *testing.T) {
	msg := []Message{{ID: "1", Text: "hi", AuthorID: "them", ServerTS: time.Now()}}

	pinned := newChatFixture().withSession()
	pinned.view.nearBottom = true
	pinned.ctl.render(msg)
	assert.Equal(t, 1, pinned.view.scrolls)
	assert.Equal(t, []int{nearBottomPx}, pinned.view.nearBottomPx)

	scrolled := newChatFixture().withSession()
	scrolled.view.nearBottom = false
	scrolled.ctl.render(msg)
	assert.Zero(t, scrolled.view.scrolls, "reading history is not interrupted")
}

func TestSubscribeRendersUpdates(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.Subscribe(context.Background())
	assert.Equal(t, 1, f.view.feedLoading)

	f.feed.ch <- FeedUpdate{Messages: []Message{
		{ID: "1", Text: "hi", AuthorID: "them", ServerTS: time.Now()},
	}}

	assert.Eventually(t, func() bool {
		f.view.mu.Lock()
		defer f.view.mu.Unlock()
		return len(f.view.appended) == 1
	}, time.Second, 5*time.Millisecond)

	f.ctl.Close()
	f.feed.mu.Lock()
	cancels := f.feed.cancels
	f.feed.mu.Unlock()
	assert.Equal(t, 1, cancels)
}

func TestSubscribeSurfacesFeedError(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.Subscribe(context.Background())
	f.feed.ch <- FeedUpdate{Err: &APIError{Type: ErrTypeNetwork, Message: "gone"}}

	assert.Eventually(t, func() bool {
		f.view.mu.Lock()
		defer f.view.mu.Unlock()
		return len(f.view.feedErrors) == 1
	}, time.Second, 5*time.Millisecond)

	f.view.mu.Lock()
	msg := f.view.feedErrors[0]
	f.view.mu.Unlock()
	assert.Contains(t, msg, "Please refresh the page")
}

func TestHandleSessionChangeSignedOut(t *testing.T) {
	f := newChatFixture().withSession()

	f.ctl.HandleSessionChange(context.Background(), nil)

	assert.Equal(t, []Page{PageLogin}, f.navLog)
	assert.Nil(t, f.ctl.currentSession())
}
