package api

import (
	"context"
	"net/http"
)

// Me fetches the user owning the current session cookie. The body is
// validated here so callers never see a half-populated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, &MalformedResponseError{Path: "/api/users/me", Err: err}
	}
	return &user, nil
}

// Login posts credentials; the server answers with a session cookie.
// Any user payload in the response is ignored, /me is authoritative.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	return c.do(ctx, http.MethodPost, "/api/auth/login", creds, nil)
}

// Logout asks the server to clear the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, "/api/users", reg, nil)
}

// ExchangeGoogleCode hands a Google authorization code to the backend,
// which sets the session cookie on success.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) error {
	body := struct {
		Code string `json:"code"`
	}{Code: code}
	return c.do(ctx, http.MethodPost, "/api/auth/google", body, nil)
}
