package client

import "sync"

// Page identifies a top-level screen.
type Page int

const (
	PageLogin Page = iota
	PageChat
)

// Navigator serializes page transitions and makes them idempotent: asking
// for the page that is already current is a no-op, so a session-change
// notification and a deferred redirect that race each other produce a
// single transition.
type Navigator struct {
	mu      sync.Mutex
	current Page
	fn      func(Page)
}

// NewNavigator returns a Navigator starting at page start. fn performs the
// actual transition and is called at most once per page change, with the
// navigator's lock held.
func NewNavigator(start Page, fn func(Page)) *Navigator {
	return &Navigator{current: start, fn: fn}
}

// To transitions to p unless it is already the current page.
func (n *Navigator) To(p Page) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == p {
		return
	}
	n.current = p
	n.fn(p)
}

// Current returns the page the navigator last transitioned to.
func (n *Navigator) Current() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
