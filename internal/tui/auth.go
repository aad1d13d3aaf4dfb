package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwhitby/parley/internal/client"
)

type alertState struct {
	sev client.Severity
	msg string
}

// authModel renders the three authentication panels. Exactly one panel is
// visible; focus moves through its fields with tab.
type authModel struct {
	panel client.Panel
	focus int

	loginEmail    textinput.Model
	loginPassword textinput.Model
	remember      bool

	regName     textinput.Model
	regEmail    textinput.Model
	regPassword textinput.Model
	regConfirm  textinput.Model
	agree       bool

	resetEmail textinput.Model

	loading map[client.Control]bool
	alert   *alertState
}

func newAuthModel() authModel {
	mk := func(placeholder string, secret bool) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 255
		ti.Width = 36
		if secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		return ti
	}

	m := authModel{
		panel:         client.PanelLogin,
		loginEmail:    mk("email", false),
		loginPassword: mk("password", true),
		regName:       mk("name", false),
		regEmail:      mk("email", false),
		regPassword:   mk("password", true),
		regConfirm:    mk("confirm password", true),
		resetEmail:    mk("email", false),
		loading:       make(map[client.Control]bool),
	}
	m.loginEmail.Focus()
	return m
}

// fields returns the focusable text inputs of the visible panel, in tab
// order, plus how many extra focus stops (checkboxes, the submit button)
// follow them.
func (m *authModel) fields() ([]*textinput.Model, int) {
	switch m.panel {
	case client.PanelRegister:
		return []*textinput.Model{&m.regName, &m.regEmail, &m.regPassword, &m.regConfirm}, 2
	case client.PanelReset:
		return []*textinput.Model{&m.resetEmail}, 1
	default:
		return []*textinput.Model{&m.loginEmail, &m.loginPassword}, 2
	}
}

func (m *authModel) focusStops() int {
	inputs, extra := m.fields()
	return len(inputs) + extra
}

func (m *authModel) applyFocus() {
	inputs, _ := m.fields()
	for i, in := range inputs {
		if i == m.focus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (m *authModel) setPanel(p client.Panel) {
	m.panel = p
	m.focus = 0
	m.applyFocus()
}

func (m *authModel) control() client.Control {
	switch m.panel {
	case client.PanelRegister:
		return client.ControlRegister
	case client.PanelReset:
		return client.ControlReset
	default:
		return client.ControlLogin
	}
}

func (m *authModel) resetForm(p client.Panel) {
	switch p {
	case client.PanelLogin:
		m.loginEmail.SetValue("")
		m.loginPassword.SetValue("")
		m.remember = false
	case client.PanelRegister:
		m.regName.SetValue("")
		m.regEmail.SetValue("")
		m.regPassword.SetValue("")
		m.regConfirm.SetValue("")
		m.agree = false
	case client.PanelReset:
		m.resetEmail.SetValue("")
	}
}

// checkboxIndex returns the focus index of the panel's checkbox, or -1.
func (m *authModel) checkboxIndex() int {
	switch m.panel {
	case client.PanelLogin:
		return 2
	case client.PanelRegister:
		return 4
	}
	return -1
}

func (m *authModel) update(msg tea.Msg, ctl *client.AuthController) (tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg), true
	}

	switch key.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % m.focusStops()
		m.applyFocus()
		return nil, true
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + m.focusStops()) % m.focusStops()
		m.applyFocus()
		return nil, true
	case " ":
		if m.focus == m.checkboxIndex() {
			if m.panel == client.PanelLogin {
				m.remember = !m.remember
			} else {
				m.agree = !m.agree
			}
			return nil, true
		}
	case "enter":
		return m.submit(ctl), true
	case "ctrl+r":
		return func() tea.Msg { ctl.ShowPanel(client.PanelRegister); return nil }, true
	case "ctrl+l":
		return func() tea.Msg { ctl.ShowPanel(client.PanelLogin); return nil }, true
	case "ctrl+p":
		return func() tea.Msg { ctl.ShowPanel(client.PanelReset); return nil }, true
	}

	return m.updateInputs(msg), true
}

func (m *authModel) updateInputs(msg tea.Msg) tea.Cmd {
	inputs, _ := m.fields()
	var cmds []tea.Cmd
	for _, in := range inputs {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// submit snapshots the visible form and hands it to the controller on a
// worker goroutine. A busy control swallows the submission.
func (m *authModel) submit(ctl *client.AuthController) tea.Cmd {
	if m.loading[m.control()] {
		return nil
	}
	switch m.panel {
	case client.PanelLogin:
		email, password, remember := m.loginEmail.Value(), m.loginPassword.Value(), m.remember
		return func() tea.Msg {
			ctl.SubmitLogin(context.Background(), email, password, remember)
			return nil
		}
	case client.PanelRegister:
		name, email := m.regName.Value(), m.regEmail.Value()
		password, confirm, agreed := m.regPassword.Value(), m.regConfirm.Value(), m.agree
		return func() tea.Msg {
			ctl.SubmitRegistration(context.Background(), name, email, password, confirm, agreed)
			return nil
		}
	default:
		email := m.resetEmail.Value()
		return func() tea.Msg {
			ctl.SubmitPasswordReset(context.Background(), email)
			return nil
		}
	}
}

func (m *authModel) view() string {
	var b strings.Builder

	switch m.panel {
	case client.PanelLogin:
		b.WriteString(titleStyle.Render("Login to Parley") + "\n")
		b.WriteString(labelStyle.Render("Email") + "\n" + m.loginEmail.View() + "\n\n")
		b.WriteString(labelStyle.Render("Password") + "\n" + m.loginPassword.View() + "\n\n")
		b.WriteString(m.checkbox("Remember me", m.remember, 2) + "\n\n")
		b.WriteString(m.button(client.ControlLogin, 3))
	case client.PanelRegister:
		b.WriteString(titleStyle.Render("Create an account") + "\n")
		b.WriteString(labelStyle.Render("Name") + "\n" + m.regName.View() + "\n\n")
		b.WriteString(labelStyle.Render("Email") + "\n" + m.regEmail.View() + "\n\n")
		b.WriteString(labelStyle.Render("Password") + "\n" + m.regPassword.View() + "\n\n")
		b.WriteString(labelStyle.Render("Confirm password") + "\n" + m.regConfirm.View() + "\n\n")
		b.WriteString(m.checkbox("I agree to the Terms & Conditions", m.agree, 4) + "\n\n")
		b.WriteString(m.button(client.ControlRegister, 5))
	case client.PanelReset:
		b.WriteString(titleStyle.Render("Reset your password") + "\n")
		b.WriteString(labelStyle.Render("Email") + "\n" + m.resetEmail.View() + "\n\n")
		b.WriteString(m.button(client.ControlReset, 1))
	}

	body := panelStyle.Render(b.String())

	var parts []string
	if m.alert != nil {
		parts = append(parts, renderAlert(m.alert))
	}
	parts = append(parts, body)
	parts = append(parts, helpStyle.Render(
		"tab: next field • enter: submit • ctrl+l login • ctrl+r register • ctrl+p forgot password • ctrl+c quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *authModel) checkbox(label string, checked bool, focusIdx int) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	s := box + " " + label
	if m.focus == focusIdx {
		return lipgloss.NewStyle().Bold(true).Render(s)
	}
	return labelStyle.Render(s)
}

func (m *authModel) button(c client.Control, focusIdx int) string {
	label := c.IdleLabel()
	style := buttonStyle
	if m.loading[c] {
		label = c.BusyLabel()
		style = buttonBusyStyle
	}
	if m.focus != focusIdx {
		style = style.Copy().Faint(true)
	}
	return style.Render(label)
}

func renderAlert(a *alertState) string {
	if a.sev == client.SeveritySuccess {
		return alertSuccessStyle.Render(a.msg)
	}
	return alertDangerStyle.Render(a.msg)
}
