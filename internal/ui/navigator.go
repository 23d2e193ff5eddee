package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pandamarket/panda/internal/ui/messages"
)

// Navigator turns session navigation requests into program messages. It
// is created before the program so the session manager can hold it.
type Navigator struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

// SetProgram routes navigation to p.
func (n *Navigator) SetProgram(p *tea.Program) {
	n.SetSender(p.Send)
}

// SetSender routes navigation to send. Requests made before a sender is
// set are dropped.
func (n *Navigator) SetSender(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

func (n *Navigator) Navigate(path string) {
	n.dispatch(messages.NavigateMsg{Path: path})
}

func (n *Navigator) Reload(path string) {
	n.dispatch(messages.ReloadMsg{Path: path})
}

func (n *Navigator) dispatch(msg tea.Msg) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
