package statusbar

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/messages"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	brandStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3692FF")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#555555")).
			Foreground(lipgloss.Color("#CCCCCC")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	optimisticUserStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#333333")).
				Foreground(lipgloss.Color("#6B8F6B")).
				Italic(true).
				Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	path       string
	snap       session.Snapshot
	statusText string
	isError    bool
}

// New creates a new status bar.
func New() Model {
	return Model{path: "/"}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetPath sets the path of the active view.
func (m *Model) SetPath(path string) {
	m.path = path
}

// SetSession sets the session shown on the right.
func (m *Model) SetSession(snap session.Snapshot) {
	m.snap = snap
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// Update picks up status messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(messages.StatusMsg); ok {
		m.SetStatus(msg.Text, msg.IsError)
	}
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := brandStyle.Render("판다마켓") + pathStyle.Render(m.path)

	var right string
	switch {
	case m.snap.IsLoggingOut():
		right += statusTextStyle.Render("로그아웃 중...")
	case m.snap.Optimistic():
		right += optimisticUserStyle.Render(m.snap.User.Nickname)
	case m.snap.User != nil:
		right += userStyle.Render(m.snap.User.Nickname)
	case m.snap.IsPending(), m.snap.IsLoggingIn():
		right += statusTextStyle.Render("확인 중...")
	default:
		right += statusTextStyle.Render("L:login")
	}
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
