package client

// RenderedMessage is a display-ready feed entry. Sender and Body are
// HTML-escaped; Class is "own" for the current user's messages and
// "other" for everyone else's.
type RenderedMessage struct {
	Sender string
	Body   string
	Time   string
	Class  string
}

// AlertView is the slice of a view that displays transient alert banners.
type AlertView interface {
	// ShowAlert replaces any visible alert with a new one.
	ShowAlert(sev Severity, msg string)

	// ClearAlert removes the visible alert, if any.
	ClearAlert()
}

// AuthView is the surface the AuthController drives.
type AuthView interface {
	AlertView

	// ShowPanel makes p the single visible panel.
	ShowPanel(p Panel)

	// SetLoading toggles a control between its idle and busy presentation.
	// While busy the control must not accept another submission.
	SetLoading(c Control, busy bool)

	ResetLoginForm()
	ResetRegisterForm()
	ResetResetForm()
}

// ChatView is the surface the ChatController drives.
type ChatView interface {
	AlertView

	// SetSessionEmail shows whose session the chat screen belongs to.
	SetSessionEmail(email string)

	// ShowFeedLoading displays the placeholder shown until the first
	// snapshot arrives.
	ShowFeedLoading()

	// ShowFeedEmpty displays the empty-feed placeholder.
	ShowFeedEmpty()

	// ShowFeedError displays a terminal subscription error in place of
	// the feed.
	ShowFeedError(msg string)

	// ClearMessages empties the feed area before a snapshot re-render.
	ClearMessages()

	// AppendMessage adds one rendered message at the bottom of the feed.
	AppendMessage(m RenderedMessage)

	// NearBottom reports whether the feed is scrolled to within px of the
	// bottom. Sampled before a re-render to decide whether to follow it.
	NearBottom(px int) bool

	// ScrollToBottom pins the feed to its newest message.
	ScrollToBottom()

	// SetLoading toggles the send control between idle and busy.
	SetLoading(c Control, busy bool)

	// ClearInput empties the composer.
	ClearInput()

	// FocusInput returns keyboard focus to the composer.
	FocusInput()
}
