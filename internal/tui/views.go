package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitby/parley/internal/client"
)

// Messages posted by the view adapters into the Bubble Tea update loop.
// Controllers run on their own goroutines; the adapters turn every view
// call into one of these so all model mutation happens in Update.
type (
	showPanelMsg    struct{ panel client.Panel }
	showAlertMsg    struct {
		sev client.Severity
		msg string
	}
	clearAlertMsg   struct{}
	setLoadingMsg   struct {
		control client.Control
		busy    bool
	}
	resetFormMsg    struct{ panel client.Panel }
	navigateMsg     struct{ page client.Page }
	sessionEmailMsg struct{ email string }
	feedLoadingMsg  struct{}
	feedEmptyMsg    struct{}
	feedErrorMsg    struct{ msg string }
	clearFeedMsg    struct{}
	appendMsg       struct{ m client.RenderedMessage }
	scrollBottomMsg struct{}
	clearInputMsg   struct{}
	focusInputMsg   struct{}
	sessionMsg      struct{ s *client.Session }
)

// sender delivers messages to the running program. The program is
// attached after construction, so sends before Attach are dropped.
type sender struct {
	mu sync.Mutex
	p  *tea.Program
}

func (s *sender) Attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *sender) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// AuthScreen adapts the auth terminal screen to client.AuthView.
type AuthScreen struct {
	sender
}

func NewAuthScreen() *AuthScreen { return &AuthScreen{} }

func (v *AuthScreen) ShowPanel(p client.Panel)  { v.send(showPanelMsg{panel: p}) }
func (v *AuthScreen) ShowAlert(sev client.Severity, msg string) {
	v.send(showAlertMsg{sev: sev, msg: msg})
}
func (v *AuthScreen) ClearAlert() { v.send(clearAlertMsg{}) }
func (v *AuthScreen) SetLoading(c client.Control, busy bool) {
	v.send(setLoadingMsg{control: c, busy: busy})
}
func (v *AuthScreen) ResetLoginForm()    { v.send(resetFormMsg{panel: client.PanelLogin}) }
func (v *AuthScreen) ResetRegisterForm() { v.send(resetFormMsg{panel: client.PanelRegister}) }
func (v *AuthScreen) ResetResetForm()    { v.send(resetFormMsg{panel: client.PanelReset}) }

// ChatScreen adapts the chat terminal screen to client.ChatView. The
// near-bottom flag is kept in an atomic because the controller samples it
// synchronously from the feed goroutine while the model owns the
// viewport.
type ChatScreen struct {
	sender
	nearBottom atomic.Bool
}

func NewChatScreen() *ChatScreen {
	s := &ChatScreen{}
	s.nearBottom.Store(true)
	return s
}

func (v *ChatScreen) SetSessionEmail(email string) { v.send(sessionEmailMsg{email: email}) }
func (v *ChatScreen) ShowAlert(sev client.Severity, msg string) {
	v.send(showAlertMsg{sev: sev, msg: msg})
}
func (v *ChatScreen) ClearAlert()      { v.send(clearAlertMsg{}) }
func (v *ChatScreen) ShowFeedLoading() { v.send(feedLoadingMsg{}) }
func (v *ChatScreen) ShowFeedEmpty()   { v.send(feedEmptyMsg{}) }
func (v *ChatScreen) ShowFeedError(msg string) {
	v.send(feedErrorMsg{msg: msg})
}
func (v *ChatScreen) ClearMessages() { v.send(clearFeedMsg{}) }
func (v *ChatScreen) AppendMessage(m client.RenderedMessage) {
	v.send(appendMsg{m: m})
}
func (v *ChatScreen) NearBottom(int) bool { return v.nearBottom.Load() }
func (v *ChatScreen) ScrollToBottom()     { v.send(scrollBottomMsg{}) }
func (v *ChatScreen) SetLoading(c client.Control, busy bool) {
	v.send(setLoadingMsg{control: c, busy: busy})
}
func (v *ChatScreen) ClearInput() { v.send(clearInputMsg{}) }
func (v *ChatScreen) FocusInput() { v.send(focusInputMsg{}) }

// Navigate lets the client.Navigator switch the top-level page.
func Navigate(s *sender, p client.Page) { s.send(navigateMsg{page: p}) }
