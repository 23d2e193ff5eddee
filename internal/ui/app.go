package ui

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/config"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/account"
	"github.com/pandamarket/panda/internal/ui/callback"
	"github.com/pandamarket/panda/internal/ui/home"
	"github.com/pandamarket/panda/internal/ui/login"
	"github.com/pandamarket/panda/internal/ui/messages"
	"github.com/pandamarket/panda/internal/ui/profile"
	"github.com/pandamarket/panda/internal/ui/register"
	"github.com/pandamarket/panda/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewHome ViewType = iota
	ViewLogin
	ViewRegister
	ViewProfile
	ViewAccount
	ViewCallback
)

const (
	pathProducts = "/products"
	pathArticles = "/articles"
	pathSignup   = "/signup"
	pathProfile  = "/profile"
	pathAccount  = "/settings/account"
)

// App is the root Bubble Tea model. It routes paths to views and keeps
// protected views behind the session guard.
type App struct {
	// View state
	activeView ViewType
	path       string
	history    []string
	// waiting is set while a protected view is held back until the
	// session settles; ready once its model has been built.
	waiting bool
	ready   bool

	// Child models
	home         home.Model
	homeLoaded   bool
	loginForm    login.Model
	registerForm register.Model
	profile      profile.Model
	account      account.Model
	callback     callback.Model
	statusBar    statusbar.Model
	spinner      spinner.Model

	// Shared state
	cfg     config.Config
	source  home.Source
	session *session.Manager
	snap    session.Snapshot
	log     *slog.Logger

	// Dimensions
	width  int
	height int

	unsubscribe func()
}

// NewApp creates the root model starting at startPath.
func NewApp(cfg config.Config, source home.Source, mgr *session.Manager, log *slog.Logger, startPath string) *App {
	if startPath == "" {
		startPath = cfg.LandingPath
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = placeholderStyle
	return &App{
		path:      startPath,
		home:      home.New(source, cfg.FetchPageSize, home.TabProducts),
		statusBar: statusbar.New(),
		spinner:   s,
		cfg:       cfg,
		source:    source,
		session:   mgr,
		snap:      mgr.Snapshot(),
		log:       log.With("component", "ui"),
	}
}

// SetProgram forwards session changes to p.
func (a *App) SetProgram(p *tea.Program) {
	a.Subscribe(p.Send)
}

// Subscribe forwards session changes to send.
func (a *App) Subscribe(send func(tea.Msg)) {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.unsubscribe = a.session.Subscribe(func(s session.Snapshot) {
		send(messages.SessionChangedMsg{Snapshot: s})
	})
}

// Close stops forwarding session changes.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Init starts the session and opens the start path.
func (a *App) Init() tea.Cmd {
	mgr := a.session
	start := func() tea.Msg {
		mgr.Start(context.Background())
		return nil
	}
	// The cache seed must land before a callback view starts its login.
	return tea.Sequence(start, a.open(a.path))
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case messages.SessionChangedMsg:
		if msg.Snapshot.Version < a.snap.Version {
			return a, nil
		}
		a.snap = msg.Snapshot
		a.statusBar.SetSession(a.snap)
		cmds = append(cmds, a.guard())

	case messages.NavigateMsg:
		return a, a.navigate(msg.Path)

	case messages.ReloadMsg:
		return a, a.reload(msg.Path)

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.LogoutResultMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("로그아웃 실패: "+msg.Err.Error(), true)
		}

	case messages.LandingLoadedMsg:
		// The home list keeps its data while other views are shown.
		var cmd tea.Cmd
		a.home, cmd = a.home.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		if a.waiting {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Route to active view.
	if !a.waiting {
		cmds = append(cmds, a.updateActive(msg))
	}

	var cmd tea.Cmd
	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	// Nothing behind the logout overlay takes input.
	if a.snap.IsLoggingOut() {
		return nil, true
	}
	if a.activeView == ViewLogin || a.activeView == ViewRegister {
		if key.Matches(msg, Keys.Back) {
			return a.goBack(), true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		if a.activeView == ViewHome {
			return tea.Quit, true
		}
		return a.goBack(), true
	case key.Matches(msg, Keys.Back):
		return a.goBack(), true
	case key.Matches(msg, Keys.Home):
		return a.navigate(a.cfg.LandingPath), true
	case key.Matches(msg, Keys.Login):
		if a.snap.IsAuthenticated() {
			return nil, true
		}
		return a.navigate(a.cfg.LoginPath), true
	case key.Matches(msg, Keys.Register):
		return a.navigate(pathSignup), true
	case key.Matches(msg, Keys.Logout):
		if !a.snap.IsAuthenticated() {
			return nil, true
		}
		return account.Logout(a.session), true
	case key.Matches(msg, Keys.Profile):
		return a.navigate(pathProfile), true
	case key.Matches(msg, Keys.Settings):
		return a.navigate(pathAccount), true
	}
	return nil, false
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.activeView {
	case ViewHome:
		a.home, cmd = a.home.Update(msg)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case ViewRegister:
		a.registerForm, cmd = a.registerForm.Update(msg)
	case ViewProfile:
		a.profile, cmd = a.profile.Update(msg)
	case ViewAccount:
		a.account, cmd = a.account.Update(msg)
	case ViewCallback:
		a.callback, cmd = a.callback.Update(msg)
	}
	return cmd
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch {
	case a.snap.IsLoggingOut():
		content = a.place(overlayStyle.Render("로그아웃 중..."))
	case a.waiting:
		content = a.place(a.spinner.View() + " " + placeholderStyle.Render("세션 확인 중..."))
	default:
		content = a.activeContent()
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) activeContent() string {
	switch a.activeView {
	case ViewHome:
		return a.home.View()
	case ViewLogin:
		return a.loginForm.View()
	case ViewRegister:
		return a.registerForm.View()
	case ViewProfile:
		return a.profile.View()
	case ViewAccount:
		return a.account.View()
	case ViewCallback:
		return a.callback.View()
	}
	return ""
}

func (a *App) place(s string) string {
	return lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center, s)
}

func (a *App) contentHeight() int {
	// Reserve 1 line for the status bar.
	return max(a.height-1, 0)
}

func (a *App) resize() {
	h := a.contentHeight()
	a.home.SetSize(a.width, h)
	a.statusBar.SetSize(a.width)
	switch a.activeView {
	case ViewLogin:
		a.loginForm.SetSize(a.width, h)
	case ViewRegister:
		a.registerForm.SetSize(a.width, h)
	case ViewProfile:
		a.profile.SetSize(a.width, h)
	case ViewCallback:
		a.callback.SetSize(a.width, h)
	}
}

// navigate opens path and remembers the current one for goBack.
func (a *App) navigate(path string) tea.Cmd {
	if path == a.path {
		return nil
	}
	a.history = append(a.history, a.path)
	return a.open(path)
}

func (a *App) goBack() tea.Cmd {
	if len(a.history) == 0 {
		if a.activeView == ViewHome {
			return nil
		}
		return a.open(a.cfg.LandingPath)
	}
	prev := a.history[len(a.history)-1]
	a.history = a.history[:len(a.history)-1]
	return a.open(prev)
}

// reload drops every view's state before opening path.
func (a *App) reload(path string) tea.Cmd {
	a.log.Debug("reloading", "path", path)
	a.history = nil
	a.home = home.New(a.source, a.cfg.FetchPageSize, home.TabProducts)
	a.homeLoaded = false
	a.loginForm = login.Model{}
	a.registerForm = register.Model{}
	a.profile = profile.Model{}
	a.account = account.Model{}
	a.callback = callback.Model{}
	a.statusBar.SetStatus("", false)
	return a.open(path)
}

// open shows the view for path without touching history.
func (a *App) open(path string) tea.Cmd {
	a.path = path
	a.waiting = false
	a.ready = false
	a.statusBar.SetPath(path)

	u, err := url.Parse(path)
	if err != nil {
		a.log.Warn("bad navigation path", "path", path, "err", err)
		return a.open(a.cfg.LandingPath)
	}
	route := strings.TrimRight(u.Path, "/")
	if route == "" {
		route = "/"
	}

	switch route {
	case "/", pathProducts, pathArticles:
		return a.openHome(route)
	case a.cfg.LoginPath:
		a.activeView = ViewLogin
		a.loginForm = login.New(a.session, u.Query(), a.cfg.LoginDestination)
		a.resize()
		return nil
	case pathSignup:
		a.activeView = ViewRegister
		a.registerForm = register.New(a.session)
		a.resize()
		return nil
	case "/auth/google/callback", "/auth/kakao/callback":
		cb, err := session.ParseCallback(path)
		if err != nil {
			a.statusBar.SetStatus(err.Error(), true)
			return a.open(a.cfg.LoginPath)
		}
		a.activeView = ViewCallback
		a.callback = callback.New(cb, a.session)
		a.resize()
		return a.callback.Init()
	case pathProfile:
		a.activeView = ViewProfile
	case pathAccount:
		a.activeView = ViewAccount
	default:
		a.statusBar.SetStatus("페이지를 찾을 수 없습니다: "+route, true)
		return a.openHome("/")
	}
	return a.guard()
}

func (a *App) openHome(route string) tea.Cmd {
	a.activeView = ViewHome
	tab := home.TabProducts
	if route == pathArticles {
		tab = home.TabArticles
	}
	a.home.SetTab(tab)
	a.resize()
	if a.homeLoaded {
		return nil
	}
	a.homeLoaded = true
	return a.home.Init()
}

// guard applies the session guard to the current path. Protected views
// are built only once access is allowed.
func (a *App) guard() tea.Cmd {
	if !session.IsProtected(a.path) {
		return nil
	}
	d := session.Guard(a.snap, a.path, a.cfg.LoginPath)
	switch d.Action {
	case session.Redirect:
		a.log.Debug("guard redirect", "from", a.path, "to", d.Location)
		return a.open(d.Location)
	case session.Wait:
		if a.waiting {
			return nil
		}
		a.waiting = true
		return a.spinner.Tick
	}

	a.waiting = false
	if a.ready {
		return nil
	}
	a.ready = true
	switch a.activeView {
	case ViewProfile:
		a.profile = profile.New(a.snap, a.session)
	case ViewAccount:
		a.account = account.New(a.snap, a.session)
	}
	a.resize()
	return nil
}
