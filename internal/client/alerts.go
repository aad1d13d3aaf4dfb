package client

import (
	"sync"
	"time"
)

const alertDismissDelay = 5 * time.Second

// AlertPresenter shows alert banners on a view and auto-dismisses them
// after five seconds. A new alert replaces the previous one and restarts
// the dismissal clock, so only the newest alert's timer can clear the
// display.
type AlertPresenter struct {
	view  AlertView
	sched Scheduler

	mu     sync.Mutex
	cancel func()
}

func NewAlertPresenter(view AlertView, sched Scheduler) *AlertPresenter {
	return &AlertPresenter{view: view, sched: sched}
}

// Show displays msg and schedules its dismissal.
func (a *AlertPresenter) Show(sev Severity, msg string) {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.view.ShowAlert(sev, msg)
	a.cancel = a.sched.AfterFunc(alertDismissDelay, a.Clear)
	a.mu.Unlock()
}

// Clear removes the visible alert and its pending dismissal.
func (a *AlertPresenter) Clear() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.view.ClearAlert()
	a.mu.Unlock()
}
