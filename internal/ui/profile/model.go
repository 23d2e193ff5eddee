package profile

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/messages"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3692FF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F74747"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Refresher re-asks the server who is signed in.
type Refresher interface {
	Refresh(ctx context.Context) (*api.User, error)
}

// Model shows the signed-in user.
type Model struct {
	snap       session.Snapshot
	refresher  Refresher
	refreshing bool
	err        string
	width      int
	height     int
}

// New creates the profile view from the current session.
func New(snap session.Snapshot, refresher Refresher) Model {
	return Model{snap: snap, refresher: refresher}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SessionChangedMsg:
		m.snap = msg.Snapshot
	case messages.RefreshResultMsg:
		m.refreshing = false
		m.err = ""
		if msg.Err != nil {
			m.err = "세션을 확인하지 못했습니다."
		}
	case tea.KeyMsg:
		if msg.String() == "r" && !m.refreshing {
			m.refreshing = true
			return m, Refresh(m.refresher)
		}
	}
	return m, nil
}

// Refresh runs a session refresh and reports it as RefreshResultMsg.
func Refresh(r Refresher) tea.Cmd {
	return func() tea.Msg {
		u, err := r.Refresh(context.Background())
		return messages.RefreshResultMsg{User: u, Err: err}
	}
}

// View renders the profile.
func (m Model) View() string {
	u := m.snap.User
	if u == nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, hintStyle.Render("로그인이 필요합니다."))
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(u.Nickname))
	sb.WriteString("\n\n")
	rows := [][2]string{
		{"이름", u.FullName()},
		{"이메일", u.Email},
		{"가입 경로", providerLabel(u.Provider)},
	}
	if !u.CreatedAt.IsZero() {
		rows = append(rows, [2]string{"가입일", u.CreatedAt.Format("2006. 01. 02")})
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		sb.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	sb.WriteString("\n")
	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err) + "\n")
	}
	if m.refreshing {
		sb.WriteString(hintStyle.Render("확인 중..."))
	} else {
		sb.WriteString(hintStyle.Render(fmt.Sprintf("r: refresh  a: account settings  id %d", u.ID)))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

func providerLabel(p api.Provider) string {
	switch p {
	case api.ProviderGoogle:
		return "Google"
	case api.ProviderKakao:
		return "Kakao"
	case api.ProviderLocal, "":
		return "이메일"
	}
	return string(p)
}
