package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/pandamarket/panda/internal/api"
)

// Memory is a process-local Store.
type Memory struct {
	mu        sync.Mutex
	user      *api.User
	loggedOut bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return Entry{LoggedOut: m.loggedOut}, nil
	}
	u := *m.user
	return Entry{User: &u}, nil
}

func (m *Memory) PutUser(_ context.Context, user *api.User) error {
	if user == nil {
		return errors.New("cache: nil user")
	}
	u := *user
	m.mu.Lock()
	m.user, m.loggedOut = &u, false
	m.mu.Unlock()
	return nil
}

func (m *Memory) PutLoggedOut(_ context.Context) error {
	m.mu.Lock()
	m.user, m.loggedOut = nil, true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
