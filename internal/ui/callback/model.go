package callback

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/messages"
)

var (
	textStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F74747"))
)

// Completer finishes a provider redirect.
type Completer interface {
	CompleteSocialLogin(ctx context.Context, cb session.Callback) error
}

// Model is shown while a social login callback is processed. The session
// manager navigates away when it settles.
type Model struct {
	cb        session.Callback
	completer Completer
	spinner   spinner.Model
	done      bool
	err       string
	width     int
	height    int
}

// New creates the callback view for cb.
func New(cb session.Callback, completer Completer) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3692FF"))
	return Model{cb: cb, completer: completer, spinner: s}
}

// Init starts the exchange.
func (m Model) Init() tea.Cmd {
	completer := m.completer
	cb := m.cb
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return messages.SocialResultMsg{Err: completer.CompleteSocialLogin(context.Background(), cb)}
	})
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SocialResultMsg:
		m.done = true
		switch {
		case errors.Is(msg.Err, session.ErrCodeAlreadyUsed):
			m.err = "이미 처리된 로그인 요청입니다."
		case errors.Is(msg.Err, session.ErrConcurrentOperation):
			m.err = "다른 로그인 또는 로그아웃이 진행 중입니다."
		case errors.Is(msg.Err, session.ErrClosed):
			m.err = msg.Err.Error()
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the progress line.
func (m Model) View() string {
	var content string
	switch {
	case m.err != "":
		content = errorStyle.Render(m.err)
	default:
		content = m.spinner.View() + " " + textStyle.Render(providerName(m.cb.Provider)+" 로그인 처리 중...")
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func providerName(p api.Provider) string {
	if p == api.ProviderKakao {
		return "카카오"
	}
	return "구글"
}
