package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	api      *fakeAuthAPI
	profiles *fakeProfiles
	view     *fakeAuthView
	sched    *fakeScheduler
	nav      *Navigator
	navLog   []Page
	ctl      *AuthController
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		api:      &fakeAuthAPI{},
		profiles: &fakeProfiles{},
		view:     newFakeAuthView(),
		sched:    &fakeScheduler{},
	}
	f.nav = NewNavigator(PageLogin, func(p Page) { f.navLog = append(f.navLog, p) })
	f.ctl = NewAuthController(f.api, f.profiles, f.view, f.nav, f.sched)
	return f
}

func TestSubmitLoginEmptyFields(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitLogin(context.Background(), "  ", "secret", false)

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeverityDanger, alert.sev)
	assert.Equal(t, "Please fill in all fields", alert.msg)
	assert.Empty(t, f.api.callNames(), "no backend call on a failed validation")
	assert.Empty(t, f.view.loading[ControlLogin])
}

func TestSubmitLoginSuccess(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitLogin(context.Background(), "pat@example.com", "hunter22", true)

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeveritySuccess, alert.sev)
	assert.Equal(t, "Welcome back, pat@example.com!", alert.msg)
	assert.Equal(t, 1, f.view.resetLogin)
	assert.Equal(t, []bool{true, false}, f.view.loading[ControlLogin])

	// Navigation waits for the deferred redirect.
	assert.Empty(t, f.navLog)
	f.sched.fire(loginRedirectDelay)
	assert.Equal(t, []Page{PageChat}, f.navLog)
}

func TestSubmitLoginWrongPassword(t *testing.T) {
	f := newAuthFixture()
	f.api.signInErr = &APIError{Type: "wrong-password", Message: "incorrect password"}

	f.ctl.SubmitLogin(context.Background(), "pat@example.com", "nope", false)

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeverityDanger, alert.sev)
	assert.Equal(t, "Incorrect password", alert.msg)
	assert.Equal(t, []bool{true, false}, f.view.loading[ControlLogin], "loading restored after failure")

	f.sched.fire(loginRedirectDelay)
	assert.Empty(t, f.navLog, "no redirect on failure")
}

func TestSubmitRegistrationValidationOrder(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name                           string
		formName, email, pw, confirm   string
		agreed                         bool
		want                           string
	}{
		{"missing fields", "", "pat@example.com", "secret1", "secret1", true, "Please fill in all fields"},
		{"short password", "Pat", "pat@example.com", "abc12", "abc12", true, "Password must be at least 6 characters"},
		{"mismatch", "Pat", "pat@example.com", "secret1", "secret2", true, "Passwords do not match"},
		{"terms", "Pat", "pat@example.com", "secret1", "secret1", false, "Please agree to the Terms & Conditions"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture()
			f.ctl.SubmitRegistration(ctx, tc.formName, tc.email, tc.pw, tc.confirm, tc.agreed)

			alert, ok := f.view.lastAlert()
			require.True(t, ok)
			assert.Equal(t, SeverityDanger, alert.sev)
			assert.Equal(t, tc.want, alert.msg)
			assert.Empty(t, f.api.callNames(), "validation failures never reach the backend")
		})
	}
}

func TestSubmitRegistrationSuccess(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitRegistration(context.Background(), "Pat", "pat@example.com", "secret1", "secret1", true)

	assert.Equal(t, []string{"CreateAccount", "SetDisplayName", "SignOut"}, f.api.callNames())
	assert.Equal(t, []string{"Pat"}, f.profiles.saved)

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeveritySuccess, alert.sev)
	assert.Equal(t, "Registration successful! Please login", alert.msg)
	assert.Equal(t, 1, f.view.resetReg)

	assert.Empty(t, f.view.panels)
	f.sched.fire(registerSwitchDelay)
	assert.Equal(t, []Panel{PanelLogin}, f.view.panels)
}

func TestSubmitRegistrationCompensatesOnDisplayNameFailure(t *testing.T) {
	f := newAuthFixture()
	f.api.nameErr = &APIError{Type: "internal", Message: "name update failed"}

	f.ctl.SubmitRegistration(context.Background(), "Pat", "pat@example.com", "secret1", "secret1", true)

	assert.Equal(t, []string{"CreateAccount", "SetDisplayName", "DeleteAccount"}, f.api.callNames())
	assert.Empty(t, f.profiles.saved)

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeverityDanger, alert.sev)
	assert.Equal(t, "name update failed", alert.msg)
}

func TestSubmitRegistrationCompensatesOnProfileFailure(t *testing.T) {
	f := newAuthFixture()
	f.profiles.err = &APIError{Type: "internal", Message: "profile write failed"}

	f.ctl.SubmitRegistration(context.Background(), "Pat", "pat@example.com", "secret1", "secret1", true)

	assert.Equal(t, []string{"CreateAccount", "SetDisplayName", "DeleteAccount"}, f.api.callNames())

	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, "profile write failed", alert.msg)
}

func TestSubmitPasswordReset(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitPasswordReset(context.Background(), "")
	alert, ok := f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, "Please enter your email address", alert.msg)
	assert.Empty(t, f.api.callNames())

	f.ctl.SubmitPasswordReset(context.Background(), "pat@example.com")
	alert, ok = f.view.lastAlert()
	require.True(t, ok)
	assert.Equal(t, SeveritySuccess, alert.sev)
	assert.Equal(t, "Password reset email sent! Check your inbox", alert.msg)
	assert.Equal(t, 1, f.view.resetReset)

	f.sched.fire(resetSwitchDelay)
	assert.Equal(t, []Panel{PanelLogin}, f.view.panels)
}

func TestShowPanelClearsAlert(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitPasswordReset(context.Background(), "")
	before := f.view.cleared
	f.ctl.ShowPanel(PanelRegister)

	assert.Equal(t, []Panel{PanelRegister}, f.view.panels)
	assert.Greater(t, f.view.cleared, before)
}

func TestAlertAutoDismiss(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitPasswordReset(context.Background(), "")
	assert.Zero(t, f.view.cleared)

	f.sched.fire(alertDismissDelay)
	assert.Equal(t, 1, f.view.cleared)
}

func TestHandleSessionChange(t *testing.T) {
	f := newAuthFixture()

	f.ctl.HandleSessionChange(nil)
	assert.Empty(t, f.navLog)

	f.ctl.HandleSessionChange(&Session{ID: "u1", Email: "pat@example.com"})
	assert.Equal(t, []Page{PageChat}, f.navLog)
}

func TestNavigatorIdempotent(t *testing.T) {
	var log []Page
	nav := NewNavigator(PageLogin, func(p Page) { log = append(log, p) })

	nav.To(PageChat)
	nav.To(PageChat)
	nav.To(PageLogin)
	nav.To(PageLogin)

	assert.Equal(t, []Page{PageChat, PageLogin}, log)
}

func TestCloseCancelsDeferredNavigation(t *testing.T) {
	f := newAuthFixture()

	f.ctl.SubmitLogin(context.Background(), "pat@example.com", "hunter22", false)
	f.ctl.Close()
	f.sched.fire(loginRedirectDelay)

	assert.Empty(t, f.navLog, "cancelled timer must not navigate")
}
