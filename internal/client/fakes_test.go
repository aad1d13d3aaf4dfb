package client

import (
	"context"
	"sync"
	"time"
)

// --- scheduler ---

type fakeTimer struct {
	d         time.Duration
	fn        func()
	cancelled bool
}

// fakeScheduler collects scheduled functions so tests can fire them
// deterministically.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.mu.Lock()
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.cancelled = true
		s.mu.Unlock()
	}
}

// fire runs every live timer scheduled with exactly delay d.
func (s *fakeScheduler) fire(d time.Duration) {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if t.d == d && !t.cancelled {
			t.cancelled = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// --- auth backend ---

type fakeAuthAPI struct {
	mu    sync.Mutex
	calls []string

	signInErr  error
	createErr  error
	nameErr    error
	deleteErr  error
	resetErr   error
	session    *Session
	curSession *Session
}

func (f *fakeAuthAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAuthAPI) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAuthAPI) SignIn(_ context.Context, email, _ string, _ bool) (*Session, error) {
	f.record("SignIn")
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &Session{ID: "u1", Email: email}, nil
}

func (f *fakeAuthAPI) CreateAccount(_ context.Context, email, _ string) (*Session, error) {
	f.record("CreateAccount")
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &Session{ID: "u1", Email: email}, nil
}

func (f *fakeAuthAPI) SetDisplayName(context.Context, string) error {
	f.record("SetDisplayName")
	return f.nameErr
}

func (f *fakeAuthAPI) DeleteAccount(context.Context) error {
	f.record("DeleteAccount")
	return f.deleteErr
}

func (f *fakeAuthAPI) SendPasswordReset(context.Context, string) error {
	f.record("SendPasswordReset")
	return f.resetErr
}

func (f *fakeAuthAPI) SignOut(context.Context) error {
	f.record("SignOut")
	return nil
}

func (f *fakeAuthAPI) CurrentSession(context.Context) (*Session, error) {
	f.record("CurrentSession")
	return f.curSession, nil
}

func (f *fakeAuthAPI) OnSessionChange(func(*Session)) func() {
	return func() {}
}

type fakeProfiles struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (f *fakeProfiles) SaveProfile(_ context.Context, name string) error {
	f.mu.Lock()
	f.saved = append(f.saved, name)
	f.mu.Unlock()
	return f.err
}

// --- views ---

type shownAlert struct {
	sev Severity
	msg string
}

type fakeAuthView struct {
	mu         sync.Mutex
	alerts     []shownAlert
	cleared    int
	panels     []Panel
	loading    map[Control][]bool
	resetLogin int
	resetReg   int
	resetReset int
}

func newFakeAuthView() *fakeAuthView {
	return &fakeAuthView{loading: make(map[Control][]bool)}
}

func (v *fakeAuthView) ShowAlert(sev Severity, msg string) {
	v.mu.Lock()
	v.alerts = append(v.alerts, shownAlert{sev, msg})
	v.mu.Unlock()
}

func (v *fakeAuthView) ClearAlert() {
	v.mu.Lock()
	v.cleared++
	v.mu.Unlock()
}

func (v *fakeAuthView) ShowPanel(p Panel) {
	v.mu.Lock()
	v.panels = append(v.panels, p)
	v.mu.Unlock()
}

func (v *fakeAuthView) SetLoading(c Control, busy bool) {
	v.mu.Lock()
	v.loading[c] = append(v.loading[c], busy)
	v.mu.Unlock()
}

func (v *fakeAuthView) ResetLoginForm()    { v.mu.Lock(); v.resetLogin++; v.mu.Unlock() }
func (v *fakeAuthView) ResetRegisterForm() { v.mu.Lock(); v.resetReg++; v.mu.Unlock() }
func (v *fakeAuthView) ResetResetForm()    { v.mu.Lock(); v.resetReset++; v.mu.Unlock() }

func (v *fakeAuthView) lastAlert() (shownAlert, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.alerts) == 0 {
		return shownAlert{}, false
	}
	return v.alerts[len(v.alerts)-1], true
}

type fakeChatView struct {
	mu           sync.Mutex
	alerts       []shownAlert
	cleared      int
	email        string
	feedLoading  int
	feedEmpty    int
	feedErrors   []string
	clears       int
	appended     []RenderedMessage
	nearBottom   bool
	nearBottomPx []int
	scrolls      int
	loading      map[Control][]bool
	inputCleared int
	focused      int
}

func newFakeChatView() *fakeChatView {
	return &fakeChatView{loading: make(map[Control][]bool)}
}

func (v *fakeChatView) ShowAlert(sev Severity, msg string) {
	v.mu.Lock()
	v.alerts = append(v.alerts, shownAlert{sev, msg})
	v.mu.Unlock()
}

func (v *fakeChatView) ClearAlert()            { v.mu.Lock(); v.cleared++; v.mu.Unlock() }
func (v *fakeChatView) SetSessionEmail(e string) { v.mu.Lock(); v.email = e; v.mu.Unlock() }
func (v *fakeChatView) ShowFeedLoading()       { v.mu.Lock(); v.feedLoading++; v.mu.Unlock() }
func (v *fakeChatView) ShowFeedEmpty()         { v.mu.Lock(); v.feedEmpty++; v.mu.Unlock() }

func (v *fakeChatView) ShowFeedError(msg string) {
	v.mu.Lock()
	v.feedErrors = append(v.feedErrors, msg)
	v.mu.Unlock()
}

func (v *fakeChatView) ClearMessages() { v.mu.Lock(); v.clears++; v.mu.Unlock() }

func (v *fakeChatView) AppendMessage(m RenderedMessage) {
	v.mu.Lock()
	v.appended = append(v.appended, m)
	v.mu.Unlock()
}

func (v *fakeChatView) NearBottom(px int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nearBottomPx = append(v.nearBottomPx, px)
	return v.nearBottom
}

func (v *fakeChatView) ScrollToBottom() { v.mu.Lock(); v.scrolls++; v.mu.Unlock() }

func (v *fakeChatView) SetLoading(c Control, busy bool) {
	v.mu.Lock()
	v.loading[c] = append(v.loading[c], busy)
	v.mu.Unlock()
}

func (v *fakeChatView) ClearInput() { v.mu.Lock(); v.inputCleared++; v.mu.Unlock() }
func (v *fakeChatView) FocusInput() { v.mu.Lock(); v.focused++; v.mu.Unlock() }

func (v *fakeChatView) lastAlert() (shownAlert, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.alerts) == 0 {
		return shownAlert{}, false
	}
	return v.alerts[len(v.alerts)-1], true
}

// --- feed ---

type fakeFeed struct {
	mu      sync.Mutex
	ch      chan FeedUpdate
	subErr  error
	sendErr error
	sent    []string
	cancels int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{ch: make(chan FeedUpdate, 4)}
}

func (f *fakeFeed) Subscribe(context.Context) (<-chan FeedUpdate, func(), error) {
	if f.subErr != nil {
		return nil, nil, f.subErr
	}
	return f.ch, func() {
		f.mu.Lock()
		f.cancels++
		f.mu.Unlock()
	}, nil
}

func (f *fakeFeed) Send(_ context.Context, text string, _ time.Time) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	return f.sendErr
}

func (f *fakeFeed) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}
