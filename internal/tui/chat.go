package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwhitby/parley/internal/client"
)

// nearBottomLines is the terminal stand-in for the near-bottom scroll
// threshold: within this many rows of the end, a re-render keeps
// following the feed.
const nearBottomLines = 6

type feedState int

const (
	feedLoading feedState = iota
	feedLive
	feedEmpty
	feedFailed
)

// chatModel renders the chat screen: the scrolling feed, the composer,
// and the alert line.
type chatModel struct {
	screen *ChatScreen

	vp    viewport.Model
	input textinput.Model
	spin  spinner.Model

	state    feedState
	errMsg   string
	messages []client.RenderedMessage

	email   string
	sending bool
	alert   *alertState

	width  int
	height int
	ready  bool
}

func newChatModel(screen *ChatScreen) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		screen: screen,
		input:  ti,
		spin:   sp,
		state:  feedLoading,
	}
}

func (m *chatModel) setSize(w, h int) {
	m.width = w
	m.height = h
	vpHeight := h - 5
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.vp = viewport.New(w, vpHeight)
		m.ready = true
	} else {
		m.vp.Width = w
		m.vp.Height = vpHeight
	}
	m.input.Width = w - 10
	m.rebuild()
	m.publishNearBottom()
}

// publishNearBottom mirrors the viewport's scroll position into the
// screen adapter, where the controller samples it before a re-render.
func (m *chatModel) publishNearBottom() {
	if !m.ready {
		m.screen.nearBottom.Store(true)
		return
	}
	remaining := m.vp.TotalLineCount() - (m.vp.YOffset + m.vp.Height)
	m.screen.nearBottom.Store(m.vp.AtBottom() || remaining <= nearBottomLines)
}

// rebuild regenerates the viewport content from the current feed state.
func (m *chatModel) rebuild() {
	if !m.ready {
		return
	}
	switch m.state {
	case feedLoading:
		m.vp.SetContent(placeholderStyle.Render(m.spin.View() + " Loading messages..."))
	case feedEmpty:
		m.vp.SetContent(placeholderStyle.Render("No messages yet. Be the first to say something!"))
	case feedFailed:
		m.vp.SetContent(feedErrorStyle.Render("Error loading messages. " + m.errMsg))
	case feedLive:
		var b strings.Builder
		for i, msg := range m.messages {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(renderFeedMessage(msg, m.width))
		}
		m.vp.SetContent(b.String())
	}
}

func renderFeedMessage(m client.RenderedMessage, width int) string {
	// Own messages carry no sender label; only the timestamp marks them.
	header := timeStyle.Render(m.Time)
	if m.Class != "own" {
		header = otherSenderStyle.Render(m.Sender) + " " + header
	}
	body := lipgloss.NewStyle().Width(max(width-2, 20)).Render(m.Body)
	return header + "\n" + body + "\n"
}

func (m *chatModel) update(msg tea.Msg, ctl *client.ChatController) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.state == feedLoading {
			m.rebuild()
			return cmd, true
		}
		return cmd, true

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.sending {
				return nil, true
			}
			text := m.input.Value()
			return func() tea.Msg {
				ctl.Send(context.Background(), text)
				return nil
			}, true
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			m.publishNearBottom()
			return cmd, true
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return cmd, true
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd, true
}

// apply handles the view-adapter messages targeted at the chat screen.
func (m *chatModel) apply(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case sessionEmailMsg:
		m.email = msg.email
	case feedLoadingMsg:
		m.state = feedLoading
		m.messages = nil
		m.rebuild()
		return m.spin.Tick
	case feedEmptyMsg:
		m.state = feedEmpty
		m.rebuild()
	case feedErrorMsg:
		m.state = feedFailed
		m.errMsg = msg.msg
		m.rebuild()
	case clearFeedMsg:
		m.state = feedLive
		m.messages = nil
		m.rebuild()
	case appendMsg:
		m.state = feedLive
		m.messages = append(m.messages, msg.m)
		m.rebuild()
		m.publishNearBottom()
	case scrollBottomMsg:
		m.vp.GotoBottom()
		m.publishNearBottom()
	case clearInputMsg:
		m.input.SetValue("")
	case focusInputMsg:
		return m.input.Focus()
	case showAlertMsg:
		m.alert = &alertState{sev: msg.sev, msg: msg.msg}
	case clearAlertMsg:
		m.alert = nil
	case setLoadingMsg:
		if msg.control == client.ControlSend {
			m.sending = msg.busy
		}
	}
	return nil
}

func (m *chatModel) view() string {
	if !m.ready {
		return "starting..."
	}

	header := titleStyle.Render("Parley") + "  " + labelStyle.Render(m.email)

	sendLabel := client.ControlSend.IdleLabel()
	style := buttonStyle
	if m.sending {
		sendLabel = client.ControlSend.BusyLabel()
		style = buttonBusyStyle
	}
	composer := lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), " ", style.Render(sendLabel))

	var parts []string
	parts = append(parts, header, m.vp.View())
	if m.alert != nil {
		parts = append(parts, renderAlert(m.alert))
	}
	parts = append(parts, composer)
	parts = append(parts, helpStyle.Render("enter: send • up/down: scroll • ctrl+o: sign out • ctrl+c: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
