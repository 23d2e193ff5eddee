// Package monitor revalidates a signed-in session in the background so an
// expired server session is noticed without user action.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui/messages"
)

// Sessions is the part of the session manager the monitor drives.
type Sessions interface {
	Snapshot() session.Snapshot
	Refresh(ctx context.Context) (*api.User, error)
}

// Monitor periodically re-asks the server who is signed in.
type Monitor struct {
	sessions Sessions
	interval time.Duration
	log      *slog.Logger
	send     func(tea.Msg)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a monitor polling every interval. A non-positive interval
// disables it.
func New(sessions Sessions, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		sessions: sessions,
		interval: interval,
		log:      log.With("component", "monitor"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop. send receives a status
// message when a session turns out to have expired.
func (m *Monitor) Start(send func(tea.Msg)) {
	if m.interval <= 0 {
		return
	}
	m.send = send
	go m.loop()
}

// Stop halts the background polling. A revalidation already in flight
// finishes on its own; the session manager discards it once closed.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	// Only a confirmed session is worth re-checking; anything else is
	// either settling or already logged out.
	if !m.sessions.Snapshot().IsAuthenticated() {
		return
	}

	// Not tied to stopCh: a cancelled /me call would resolve as logged out.
	_, err := m.sessions.Refresh(context.Background())
	switch {
	case err == nil:
		m.log.Debug("session still valid")
	case errors.Is(err, session.ErrClosed):
	case errors.Is(err, session.ErrNotAuthenticated):
		m.log.Info("session expired on the server")
		m.send(messages.StatusMsg{Text: "세션이 만료되었습니다. 다시 로그인해주세요.", IsError: true})
	default:
		m.log.Warn("revalidating session", "err", err)
	}
}
