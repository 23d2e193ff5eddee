package account

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/messages"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3692FF"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(12)
	selectedStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3692FF")).
			PaddingLeft(1)
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F74747"))
)

// Logouter ends the session.
type Logouter interface {
	Logout(ctx context.Context) error
}

// Session is what account settings needs from the session manager.
type Session interface {
	Logouter
	Refresh(ctx context.Context) (*api.User, error)
}

type action int

const (
	actionVerify action = iota
	actionLogout
)

var actionLabels = []string{"세션 다시 확인", "로그아웃"}

// Model is the account settings view.
type Model struct {
	snap    session.Snapshot
	session Session
	cursor  action
	busy    bool
	err     string
	notice  string
}

// New creates the account settings view.
func New(snap session.Snapshot, s Session) Model {
	return Model{snap: snap, session: s}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SessionChangedMsg:
		m.snap = msg.Snapshot
	case messages.RefreshResultMsg:
		m.busy = false
		m.err, m.notice = "", ""
		if msg.Err != nil {
			m.err = "세션을 확인하지 못했습니다."
		} else {
			m.notice = "세션이 확인되었습니다."
		}
	case messages.LogoutResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = "로그아웃하지 못했습니다: " + msg.Err.Error()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.cursor = actionVerify
		case "down", "j":
			m.cursor = actionLogout
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			s := m.session
			if m.cursor == actionLogout {
				return m, Logout(s)
			}
			return m, func() tea.Msg {
				u, err := s.Refresh(context.Background())
				return messages.RefreshResultMsg{User: u, Err: err}
			}
		}
	}
	return m, nil
}

// Logout runs a logout and reports it as LogoutResultMsg.
func Logout(s Logouter) tea.Cmd {
	return func() tea.Msg {
		return messages.LogoutResultMsg{Err: s.Logout(context.Background())}
	}
}

// View renders the settings.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("계정 설정"))
	sb.WriteString("\n\n")
	if u := m.snap.User; u != nil {
		sb.WriteString(labelStyle.Render("이메일") + u.Email + "\n")
		sb.WriteString(labelStyle.Render("닉네임") + u.Nickname + "\n")
		sb.WriteString(labelStyle.Render("가입 경로") + string(u.Provider) + "\n")
	}
	sb.WriteString("\n")
	for i, label := range actionLabels {
		if action(i) == m.cursor {
			sb.WriteString(selectedStyle.Render(label))
		} else {
			sb.WriteString(itemStyle.Render(label))
		}
		sb.WriteString("\n")
	}
	if m.err != "" {
		sb.WriteString("\n" + errorStyle.Render(m.err))
	} else if m.notice != "" {
		sb.WriteString("\n" + m.notice)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}
