// Package tui is the terminal frontend: a Bubble Tea program with an
// authentication screen (login, registration, password reset) and a chat
// screen with the live feed. It owns presentation only; all behavior
// lives in the client controllers, which drive the screens through the
// view adapters in views.go.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitby/parley/internal/client"
)

// Model is the root Bubble Tea model, switching between the auth and
// chat screens.
type Model struct {
	page client.Page
	auth authModel
	chat chatModel

	api     client.AuthAPI
	authCtl *client.AuthController
	chatCtl *client.ChatController
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.chat.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+o":
			if m.page == client.PageChat {
				api := m.api
				return m, func() tea.Msg {
					_ = api.SignOut(context.Background())
					return nil
				}
			}
		}

	case navigateMsg:
		m.page = msg.page
		if msg.page == client.PageChat {
			api, ctl := m.api, m.chatCtl
			return m, func() tea.Msg {
				s, err := api.CurrentSession(context.Background())
				if err != nil {
					s = nil
				}
				ctl.HandleSessionChange(context.Background(), s)
				return nil
			}
		}
		return m, nil

	case sessionMsg:
		if m.page == client.PageChat {
			ctl := m.chatCtl
			s := msg.s
			return m, func() tea.Msg {
				ctl.HandleSessionChange(context.Background(), s)
				return nil
			}
		}
		ctl := m.authCtl
		s := msg.s
		return m, func() tea.Msg {
			ctl.HandleSessionChange(s)
			return nil
		}

	// Auth-screen view calls.
	case showPanelMsg:
		m.auth.setPanel(msg.panel)
		return m, nil
	case resetFormMsg:
		m.auth.resetForm(msg.panel)
		return m, nil

	// Shared view calls, routed by target.
	case showAlertMsg:
		if m.page == client.PageChat {
			return m, m.chat.apply(msg)
		}
		m.auth.alert = &alertState{sev: msg.sev, msg: msg.msg}
		return m, nil
	case clearAlertMsg:
		if m.page == client.PageChat {
			return m, m.chat.apply(msg)
		}
		m.auth.alert = nil
		return m, nil
	case setLoadingMsg:
		if msg.control == client.ControlSend {
			return m, m.chat.apply(msg)
		}
		m.auth.loading[msg.control] = msg.busy
		return m, nil

	// Chat-screen view calls.
	case sessionEmailMsg, feedLoadingMsg, feedEmptyMsg, feedErrorMsg,
		clearFeedMsg, appendMsg, scrollBottomMsg, clearInputMsg, focusInputMsg:
		return m, m.chat.apply(msg)
	}

	if m.page == client.PageChat {
		cmd, _ := m.chat.update(msg, m.chatCtl)
		return m, cmd
	}
	cmd, _ := m.auth.update(msg, m.authCtl)
	return m, cmd
}

func (m Model) View() string {
	if m.page == client.PageChat {
		return m.chat.view()
	}
	return m.auth.view()
}

// Run wires the controllers to the terminal screens and blocks until the
// program exits.
func Run(api client.AuthAPI, profiles client.ProfileStore, feed client.MessageFeed) error {
	authScreen := NewAuthScreen()
	chatScreen := NewChatScreen()

	nav := client.NewNavigator(client.PageLogin, func(p client.Page) {
		Navigate(&authScreen.sender, p)
	})
	sched := client.NewScheduler()
	authCtl := client.NewAuthController(api, profiles, authScreen, nav, sched)
	chatCtl := client.NewChatController(feed, chatScreen, nav, sched)

	m := Model{
		page:    client.PageLogin,
		auth:    newAuthModel(),
		chat:    newChatModel(chatScreen),
		api:     api,
		authCtl: authCtl,
		chatCtl: chatCtl,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	authScreen.Attach(p)
	chatScreen.Attach(p)

	detach := api.OnSessionChange(func(s *client.Session) {
		p.Send(sessionMsg{s: s})
	})
	defer detach()
	defer authCtl.Close()
	defer chatCtl.Close()

	_, err := p.Run()
	return err
}
