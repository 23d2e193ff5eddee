package register

import (
	"context"
	"errors"
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

// Registrar creates an account and signs it in.
type Registrar interface {
	Register(ctx context.Context, reg api.Registration, destination string) error
}

type field int

const (
	fieldLastName field = iota
	fieldFirstName
	fieldEmail
	fieldPhone
	fieldNickname
	fieldPassword
	fieldPasswordConfirm
	fieldCount
)

var labels = [fieldCount]string{
	fieldLastName:        "성",
	fieldFirstName:       "이름",
	fieldEmail:           "이메일",
	fieldPhone:           "전화번호",
	fieldNickname:        "닉네임",
	fieldPassword:        "비밀번호",
	fieldPasswordConfirm: "비밀번호 확인",
}

// Model is the sign-up form.
type Model struct {
	inputs     [fieldCount]textinput.Model
	focusIndex field
	errs       map[field]string
	err        string
	submitting bool
	registrar  Registrar
	width      int
	height     int
}

// New creates an empty sign-up form.
func New(registrar Registrar) Model {
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.Width = 30
		if field(i) == fieldPassword || field(i) == fieldPasswordConfirm {
			in.EchoMode = textinput.EchoPassword
		}
		inputs[i] = in
	}
	inputs[0].Focus()
	return Model{inputs: inputs, registrar: registrar}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) focus(f field) {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = (f + fieldCount) % fieldCount
	m.inputs[m.focusIndex].Focus()
}

func (m Model) value(f field) string {
	return strings.TrimSpace(m.inputs[f].Value())
}

// validate returns per-field messages for an incomplete form.
func (m Model) validate() map[field]string {
	errs := make(map[field]string)
	required := map[field]string{
		fieldLastName:  "성을 입력해주세요.",
		fieldFirstName: "이름을 입력해주세요.",
		fieldEmail:     "이메일을 입력해주세요.",
		fieldPhone:     "전화번호를 입력해주세요.",
		fieldNickname:  "닉네임을 입력해주세요.",
	}
	for f, msg := range required {
		if m.value(f) == "" {
			errs[f] = msg
		}
	}
	if m.inputs[fieldPassword].Value() == "" {
		errs[fieldPassword] = "비밀번호를 입력해주세요."
	}
	if m.inputs[fieldPassword].Value() != m.inputs[fieldPasswordConfirm].Value() {
		errs[fieldPasswordConfirm] = "비밀번호가 일치하지 않습니다."
	}
	return errs
}

func (m Model) registration() api.Registration {
	return api.Registration{
		LastName:    m.value(fieldLastName),
		FirstName:   m.value(fieldFirstName),
		Email:       strings.ToLower(m.value(fieldEmail)),
		PhoneNumber: m.value(fieldPhone),
		Nickname:    m.value(fieldNickname),
		Password:    m.inputs[fieldPassword].Value(),
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			m.focus(m.focusIndex + 1)
			return m, nil
		case "shift+tab", "up":
			m.focus(m.focusIndex - 1)
			return m, nil
		case "enter":
			if m.submitting {
				return m, nil
			}
			m.err = ""
			m.errs = m.validate()
			if len(m.errs) > 0 {
				return m, nil
			}
			m.submitting = true
			registrar := m.registrar
			reg := m.registration()
			return m, func() tea.Msg {
				return messages.RegisterResultMsg{Err: registrar.Register(context.Background(), reg, "")}
			}
		}

	case messages.RegisterResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = errorText(msg.Err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func errorText(err error) string {
	var regErr *session.RegistrationError
	switch {
	case errors.As(err, &regErr):
		if regErr.StatusCode > 0 && regErr.Message != "" {
			return regErr.Message
		}
		return "회원가입 중 오류가 발생했습니다."
	case errors.Is(err, session.ErrConcurrentOperation):
		return "다른 로그인 또는 로그아웃이 진행 중입니다."
	case errors.Is(err, session.ErrSessionNotEstablished):
		return "회원가입은 완료되었지만 로그인하지 못했습니다. 다시 로그인해주세요."
	}
	return err.Error()
}

// View renders the form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("회원가입"))
	sb.WriteString("\n\n")
	for i := range m.inputs {
		f := field(i)
		sb.WriteString(labelStyle.Render(labels[f]))
		sb.WriteString("\n")
		sb.WriteString(m.inputs[f].View())
		sb.WriteString("\n")
		if msg := m.errs[f]; msg != "" {
			sb.WriteString(errorStyle.Render(msg))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString("처리 중...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to sign up, " + focusedStyle.Render("Esc") + " to cancel")
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
