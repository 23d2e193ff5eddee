package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pandamarket/panda/internal/api"
)

// Reasons carried in the error query of the login view after a failed
// social login.
const (
	ReasonFailed           = "failed"
	ReasonServerError      = "server_error"
	ReasonKakaoLoginFailed = "kakao_login_failed"
	ReasonSessionFailed    = "session_failed"
)

// Callback is what a provider redirect hands back to the application.
type Callback struct {
	Provider api.Provider
	Code     string
	// Error is set when the provider or backend redirected with a failure.
	Error string
}

// ParseCallback reads a redirect URL such as
// /auth/google/callback?code=... or /auth/kakao/callback?error=...
func ParseCallback(raw string) (Callback, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Callback{}, fmt.Errorf("parsing callback url: %w", err)
	}
	var cb Callback
	switch strings.TrimRight(u.Path, "/") {
	case "/auth/google/callback":
		cb.Provider = api.ProviderGoogle
	case "/auth/kakao/callback":
		cb.Provider = api.ProviderKakao
	default:
		return Callback{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, u.Path)
	}
	q := u.Query()
	cb.Code = q.Get("code")
	cb.Error = q.Get("error")
	return cb, nil
}

// latchKey identifies one authorization. Kakao redirects carry no code;
// their latch only lasts while the callback is being processed.
func (cb Callback) latchKey() string {
	return string(cb.Provider) + ":" + cb.Code
}

// LoginWithSocialCode completes a provider login for code. The same code is
// never exchanged twice.
func (m *Manager) LoginWithSocialCode(ctx context.Context, code string, provider api.Provider) error {
	return m.CompleteSocialLogin(ctx, Callback{Provider: provider, Code: code})
}

// CompleteSocialLogin finishes a redirect callback: exchange the code
// where the provider needs it, resolve the session, then navigate to the
// provider's success page or to the login view with a reason.
func (m *Manager) CompleteSocialLogin(ctx context.Context, cb Callback) error {
	if cb.Provider != api.ProviderGoogle && cb.Provider != api.ProviderKakao {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, cb.Provider)
	}

	key := cb.latchKey()
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
		if _, used := m.codes[key]; used {
			err = ErrCodeAlreadyUsed
			return false
		}
		m.codes[key] = struct{}{}
		m.status = StatusLoggingIn
		m.applied = m.issued
		return true
	})
	if err != nil {
		return err
	}
	if cb.Code == "" {
		defer func() {
			m.mu.Lock()
			delete(m.codes, key)
			m.mu.Unlock()
		}()
	}

	if err := m.exchange(ctx, cb); err != nil {
		m.update(func() bool {
			m.user, m.status = nil, StatusUnauthenticated
			return true
		})
		reason := ReasonFailed
		switch {
		case cb.Provider == api.ProviderKakao:
			reason = ReasonKakaoLoginFailed
		case api.IsNetwork(err):
			reason = ReasonServerError
		}
		m.log.Warn("social login rejected", "provider", cb.Provider, "reason", reason, "err", err)
		m.navigate(m.errorPath(reason))
		return err
	}

	if _, err := m.resolveOwned(ctx); err != nil {
		reason := ReasonSessionFailed
		if cb.Provider == api.ProviderKakao {
			reason = ReasonKakaoLoginFailed
		}
		m.navigate(m.errorPath(reason))
		return err
	}

	if d := m.opts.SocialRedirectDelay; d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	m.navigate(successPath(cb.Provider))
	return nil
}

func (m *Manager) exchange(ctx context.Context, cb Callback) error {
	switch cb.Provider {
	case api.ProviderGoogle:
		if cb.Error != "" || cb.Code == "" {
			return &AuthServiceError{Op: "google login", Message: callbackMessage(cb)}
		}
		if err := m.api.ExchangeGoogleCode(ctx, cb.Code); err != nil {
			return serviceError("google login", err)
		}
		return nil
	case api.ProviderKakao:
		// The backend set the cookie before redirecting; only its verdict
		// in the query matters here.
		if cb.Error != "" {
			return &AuthServiceError{Op: "kakao login", Message: cb.Error}
		}
		return nil
	}
	return ErrUnsupportedProvider
}

func callbackMessage(cb Callback) string {
	if cb.Error != "" {
		return cb.Error
	}
	return "missing authorization code"
}

func successPath(p api.Provider) string {
	if p == api.ProviderKakao {
		return "/profile"
	}
	return "/"
}

func (m *Manager) errorPath(reason string) string {
	return m.opts.LoginPath + "?error=" + url.QueryEscape(reason)
}
