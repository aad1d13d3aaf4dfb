package client

import (
	"sync"
	"time"
)

// Scheduler runs a function after a delay. Controllers schedule their
// deferred panel switches and navigations through it so tests can fire
// timers deterministically and Close can cancel whatever is pending.
type Scheduler interface {
	// AfterFunc runs fn after d on an unspecified goroutine. The returned
	// cancel prevents the run if it has not started; calling it afterwards
	// is a no-op.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by the runtime timer.
func NewScheduler() Scheduler { return realScheduler{} }

func (realScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// timerSet tracks the cancel handles of pending deferred actions so a
// controller can drop all of them on Close. Fired timers remove
// themselves.
type timerSet struct {
	mu      sync.Mutex
	next    int
	pending map[int]func()
	closed  bool
}

func newTimerSet() *timerSet {
	return &timerSet{pending: make(map[int]func())}
}

// schedule registers fn with the scheduler and tracks its cancel handle.
func (ts *timerSet) schedule(s Scheduler, d time.Duration, fn func()) {
	ts.mu.Lock()
	if ts.closed {
		ts.mu.Unlock()
		return
	}
	id := ts.next
	ts.next++
	ts.mu.Unlock()

	cancel := s.AfterFunc(d, func() {
		ts.mu.Lock()
		_, live := ts.pending[id]
		delete(ts.pending, id)
		ts.mu.Unlock()
		if live {
			fn()
		}
	})

	ts.mu.Lock()
	if ts.closed {
		ts.mu.Unlock()
		cancel()
		return
	}
	ts.pending[id] = cancel
	ts.mu.Unlock()
}

// close cancels every pending action and rejects new ones.
func (ts *timerSet) close() {
	ts.mu.Lock()
	cancels := make([]func(), 0, len(ts.pending))
	for _, c := range ts.pending {
		cancels = append(cancels, c)
	}
	ts.pending = make(map[int]func())
	ts.closed = true
	ts.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}
