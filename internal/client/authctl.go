package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	minPasswordLen = 6

	loginRedirectDelay  = 1500 * time.Millisecond
	registerSwitchDelay = 2 * time.Second
	resetSwitchDelay    = 3 * time.Second
)

// AuthController owns the authentication screen: the three panels, their
// submissions, and the transition into the chat page once a session
// exists.
type AuthController struct {
	api      AuthAPI
	profiles ProfileStore
	view     AuthView
	alerts   *AlertPresenter
	nav      *Navigator
	sched    Scheduler
	timers   *timerSet
}

func NewAuthController(api AuthAPI, profiles ProfileStore, view AuthView, nav *Navigator, sched Scheduler) *AuthController {
	return &AuthController{
		api:      api,
		profiles: profiles,
		view:     view,
		alerts:   NewAlertPresenter(view, sched),
		nav:      nav,
		sched:    sched,
		timers:   newTimerSet(),
	}
}

// HandleSessionChange reacts to the backend's session notifications while
// the auth screen is current: a present session means this page has
// nothing left to do and the chat page takes over.
func (c *AuthController) HandleSessionChange(s *Session) {
	if s == nil {
		return
	}
	if c.nav.Current() == PageLogin {
		c.nav.To(PageChat)
	}
}

// ShowPanel switches the visible panel and drops any lingering alert from
// the previous one.
func (c *AuthController) ShowPanel(p Panel) {
	c.view.ShowPanel(p)
	c.alerts.Clear()
}

// SubmitLogin validates and performs the login flow.
func (c *AuthController) SubmitLogin(ctx context.Context, email, password string, remember bool) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		c.alerts.Show(SeverityDanger, "Please fill in all fields")
		return
	}

	c.view.SetLoading(ControlLogin, true)
	defer c.view.SetLoading(ControlLogin, false)

	sess, err := c.api.SignIn(ctx, email, password, remember)
	if err != nil {
		c.alerts.Show(SeverityDanger, UserMessage(err))
		return
	}

	c.alerts.Show(SeveritySuccess, fmt.Sprintf("Welcome back, %s!", sess.Email))
	c.view.ResetLoginForm()
	c.timers.schedule(c.sched, loginRedirectDelay, func() {
		c.nav.To(PageChat)
	})
}

// SubmitRegistration validates the form and runs the registration
// sequence: create the account, set its display name, write its profile
// document. A failure after account creation deletes the account again so
// no half-initialized account survives.
func (c *AuthController) SubmitRegistration(ctx context.Context, name, email, password, confirm string, agreed bool) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" || confirm == "" {
		c.alerts.Show(SeverityDanger, "Please fill in all fields")
		return
	}
	if len(password) < minPasswordLen {
		c.alerts.Show(SeverityDanger, "Password must be at least 6 characters")
		return
	}
	if password != confirm {
		c.alerts.Show(SeverityDanger, "Passwords do not match")
		return
	}
	if !agreed {
		c.alerts.Show(SeverityDanger, "Please agree to the Terms & Conditions")
		return
	}

	c.view.SetLoading(ControlRegister, true)
	defer c.view.SetLoading(ControlRegister, false)

	if _, err := c.api.CreateAccount(ctx, email, password); err != nil {
		c.alerts.Show(SeverityDanger, UserMessage(err))
		return
	}

	if err := c.api.SetDisplayName(ctx, name); err != nil {
		c.compensate(ctx)
		c.alerts.Show(SeverityDanger, UserMessage(err))
		return
	}
	if err := c.profiles.SaveProfile(ctx, name); err != nil {
		c.compensate(ctx)
		c.alerts.Show(SeverityDanger, UserMessage(err))
		return
	}

	// Registration leaves the new account signed in; end that session so
	// the user lands on the login panel unauthenticated, as announced.
	_ = c.api.SignOut(ctx)

	c.alerts.Show(SeveritySuccess, "Registration successful! Please login")
	c.view.ResetRegisterForm()
	c.timers.schedule(c.sched, registerSwitchDelay, func() {
		c.ShowPanel(PanelLogin)
	})
}

// compensate unwinds a partially created account. Best effort: when the
// delete itself fails the original error is still what the user sees.
func (c *AuthController) compensate(ctx context.Context) {
	if err := c.api.DeleteAccount(ctx); err != nil {
		slog.Warn("failed to undo account creation", slog.Any("error", err))
	}
}

// SubmitPasswordReset validates and performs the reset-request flow.
func (c *AuthController) SubmitPasswordReset(ctx context.Context, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		c.alerts.Show(SeverityDanger, "Please enter your email address")
		return
	}

	c.view.SetLoading(ControlReset, true)
	defer c.view.SetLoading(ControlReset, false)

	if err := c.api.SendPasswordReset(ctx, email); err != nil {
		c.alerts.Show(SeverityDanger, UserMessage(err))
		return
	}

	c.alerts.Show(SeveritySuccess, "Password reset email sent! Check your inbox")
	c.view.ResetResetForm()
	c.timers.schedule(c.sched, resetSwitchDelay, func() {
		c.ShowPanel(PanelLogin)
	})
}

// Close cancels pending deferred transitions. Call when the auth screen
// is torn down.
func (c *AuthController) Close() {
	c.timers.close()
}
