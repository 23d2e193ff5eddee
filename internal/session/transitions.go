package session

import (
	"context"
	"fmt"

	"github.com/pandamarket/panda/internal/api"
)

// begin moves the session into a login or logout. Results of resolutions
// issued before this point can no longer be applied. It returns the status
// the session was in.
func (m *Manager) begin(to Status) (Status, error) {
	var prev Status
	var err error
	m.update(func() bool {
		switch {
		case m.closed:
			err = ErrClosed
			return false
		case m.status.inFlight():
			err = ErrConcurrentOperation
			return false
		}
		prev = m.status
		m.status = to
		m.applied = m.issued
		return true
	})
	return prev, err
}

// Login signs in with email and password, then asks /me who that is. The
// login response body is never trusted for the user. On success it
// navigates to destination, or the default landing page for logins.
func (m *Manager) Login(ctx context.Context, creds api.Credentials, destination string) error {
	if _, err := m.begin(StatusLoggingIn); err != nil {
		return err
	}

	if err := m.api.Login(ctx, creds); err != nil {
		m.update(func() bool {
			m.user, m.status = nil, StatusUnauthenticated
			return true
		})
		m.log.Info("login rejected", "err", err)
		return loginError(err)
	}

	if _, err := m.resolveOwned(ctx); err != nil {
		return err
	}

	if destination == "" {
		destination = m.opts.LoginDestination
	}
	m.navigate(destination)
	return nil
}

// resolveOwned settles a login with a fresh /me call. A stale outcome means
// a newer resolution won; the login succeeded if that one is authenticated.
func (m *Manager) resolveOwned(ctx context.Context) (*api.User, error) {
	seq, err := m.issue(true)
	if err != nil {
		return nil, err
	}
	user, err := m.resolve(ctx, seq, true)
	switch {
	case err == errStaleResponse:
		snap := m.Snapshot()
		if snap.IsAuthenticated() {
			return snap.User, nil
		}
		return nil, ErrSessionNotEstablished
	case err != nil:
		m.log.Warn("login accepted but /me failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrSessionNotEstablished, err)
	}
	m.log.Info("logged in", "user_id", user.ID, "provider", user.Provider)
	return user, nil
}

// Logout ends the session. A second call while one is in flight does
// nothing. The local session is only cleared once the server confirms;
// on failure the previous state is restored and the error returned.
func (m *Manager) Logout(ctx context.Context) error {
	var prev Status
	var err error
	var already bool
	m.update(func() bool {
		switch {
		case m.closed:
			err = ErrClosed
			return false
		case m.status == StatusLoggingOut:
			already = true
			return false
		case m.status == StatusLoggingIn:
			err = ErrConcurrentOperation
			return false
		}
		prev = m.status
		m.status = StatusLoggingOut
		m.applied = m.issued
		return true
	})
	if already {
		return nil
	}
	if err != nil {
		return err
	}

	if err := m.api.Logout(ctx); err != nil {
		m.update(func() bool {
			if m.status != StatusLoggingOut {
				return false
			}
			m.status = prev
			return true
		})
		m.log.Warn("logout failed, session kept", "err", err)
		if prev == StatusResolving {
			// The resolution that was pending got discarded when logout began.
			m.background(func(ctx context.Context) { m.Refresh(ctx) })
		}
		return serviceError("logout", err)
	}

	m.update(func() bool {
		m.user, m.status = nil, StatusUnauthenticated
		m.applied = m.issued
		m.writeCache(m.store.PutLoggedOut)
		return true
	})
	m.log.Info("logged out")

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if !closed {
		m.nav.Reload(m.opts.LandingPath)
	}
	return nil
}

// Register creates the account and signs in with the same credentials.
// A failed registration leaves the session untouched.
func (m *Manager) Register(ctx context.Context, reg api.Registration, destination string) error {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case m.status.inFlight():
		m.mu.Unlock()
		return ErrConcurrentOperation
	}
	m.mu.Unlock()

	if err := m.api.Register(ctx, reg); err != nil {
		m.log.Info("registration rejected", "err", err)
		return registrationError(err)
	}
	return m.Login(ctx, reg.Credentials(), destination)
}
