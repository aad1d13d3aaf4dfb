package client

import (
	"html"
	"time"
)

// Severity classifies an alert banner.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityDanger
)

// Panel identifies one of the three authentication panels. Exactly one is
// visible at a time; PanelLogin is the initial one.
type Panel int

const (
	PanelLogin Panel = iota
	PanelRegister
	PanelReset
)

// Control identifies a submit control that can enter a loading state.
type Control int

const (
	ControlLogin Control = iota
	ControlRegister
	ControlReset
	ControlSend
)

// IdleLabel is the control's caption when it is interactive.
func (c Control) IdleLabel() string {
	switch c {
	case ControlLogin:
		return "Login"
	case ControlRegister:
		return "Register"
	case ControlReset:
		return "Send Reset Link"
	case ControlSend:
		return "Send"
	}
	return ""
}

// BusyLabel is the control's caption while its operation is in flight.
func (c Control) BusyLabel() string {
	if c == ControlSend {
		return "Sending..."
	}
	return "Please wait..."
}

// EscapeHTML makes user-provided text safe to interpolate into markup.
// Applied to message bodies and sender names before rendering; never to
// text headed back to the backend.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// FormatTimestamp renders t for display relative to now: HH:MM when both
// fall on the same calendar day, DD/MM HH:MM otherwise. The zero time
// renders as an empty string.
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now = now.Local()
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("15:04")
	}
	return t.Format("02/01 15:04")
}
