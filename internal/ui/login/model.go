package login

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/messages"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3692FF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F74747"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3692FF")).Bold(true).
			Padding(1, 0)
)

// Authenticator signs a user in.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials, destination string) error
}

// Model is the login form view.
type Model struct {
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	err           string
	submitting    bool
	auth          Authenticator
	destination   string
	width         int
	height        int
}

// New creates a login form. query is the login view's query string; it
// carries the return path and the reason of a failed social login.
func New(auth Authenticator, query url.Values, fallback string) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "이메일을 입력하세요."
	emailInput.Focus()
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "비밀번호를 입력하세요."
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 30

	return Model{
		emailInput:    emailInput,
		passwordInput: passwordInput,
		auth:          auth,
		destination:   session.ReturnDestination(query, fallback),
		err:           ReasonMessage(query.Get("error")),
	}
}

// ReasonMessage is the text shown for the error query of a failed social
// login.
func ReasonMessage(reason string) string {
	switch reason {
	case "":
		return ""
	case session.ReasonKakaoLoginFailed:
		return "카카오 로그인에 실패했습니다. 다시 시도해주세요."
	case session.ReasonServerError:
		return "서버 오류로 로그인하지 못했습니다. 잠시 후 다시 시도해주세요."
	case session.ReasonSessionFailed:
		return "로그인은 되었지만 세션을 확인하지 못했습니다."
	default:
		return "소셜 로그인에 실패했습니다."
	}
}

// Destination is where a successful login goes.
func (m Model) Destination() string {
	return m.destination
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.emailInput.Blur()
				m.passwordInput.Focus()
			} else {
				m.focusIndex = 0
				m.passwordInput.Blur()
				m.emailInput.Focus()
			}
			return m, nil
		case "enter":
			if m.submitting {
				return m, nil
			}
			email := strings.TrimSpace(m.emailInput.Value())
			password := m.passwordInput.Value()
			switch {
			case email == "":
				m.err = "이메일을 입력해주세요."
				return m, nil
			case password == "":
				m.err = "비밀번호를 입력해주세요."
				return m, nil
			}
			m.submitting = true
			m.err = ""
			auth := m.auth
			dest := m.destination
			creds := api.Credentials{Email: email, Password: password}
			return m, func() tea.Msg {
				return messages.LoginResultMsg{Err: auth.Login(context.Background(), creds, dest)}
			}
		}

	case messages.LoginResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = errorText(msg.Err)
			m.passwordInput.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func errorText(err error) string {
	var invalid *session.InvalidCredentialsError
	switch {
	case errors.As(err, &invalid):
		if invalid.Message != "" {
			return invalid.Message
		}
		return "이메일 또는 비밀번호가 일치하지 않습니다."
	case errors.Is(err, session.ErrConcurrentOperation):
		return "다른 로그인 또는 로그아웃이 진행 중입니다."
	case api.IsNetwork(err):
		return "서버에 연결할 수 없습니다."
	}
	return err.Error()
}

// View renders the login form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("판다마켓 로그인"))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("이메일"))
	sb.WriteString("\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("비밀번호"))
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString("처리 중...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to submit, " + focusedStyle.Render("Esc") + " to cancel")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
