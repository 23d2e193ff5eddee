package session

import (
	"errors"
	"fmt"

	"github.com/pandamarket/panda/internal/api"
)

var (
	// ErrConcurrentOperation is returned when a login or logout is already in flight.
	ErrConcurrentOperation = errors.New("session: another login or logout is in progress")

	// ErrCodeAlreadyUsed is returned when an authorization code was already submitted.
	ErrCodeAlreadyUsed = errors.New("session: authorization code already used")

	// ErrSessionNotEstablished is returned when the server accepted a login
	// but /me did not confirm a user afterwards.
	ErrSessionNotEstablished = errors.New("session: login accepted but session could not be resolved")

	// ErrNotAuthenticated is returned by Refresh when the session settled logged out.
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrUnsupportedProvider is returned for callbacks from an unknown provider.
	ErrUnsupportedProvider = errors.New("session: unsupported provider")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: manager closed")

	// errStaleResponse marks a resolution that lost to a newer one. It never
	// leaves this package.
	errStaleResponse = errors.New("session: stale response")
)

// AuthServiceError is a non-2xx answer from an auth endpoint.
type AuthServiceError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *AuthServiceError) Unwrap() error { return e.Err }

// InvalidCredentialsError is a login rejected with 401. Message is the
// server text, suitable for display as is.
type InvalidCredentialsError struct {
	Message string
	Err     error
}

func (e *InvalidCredentialsError) Error() string { return e.Message }

func (e *InvalidCredentialsError) Unwrap() error { return e.Err }

// RegistrationError is a failed sign-up. Message is the server text when
// there was a response.
type RegistrationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RegistrationError) Error() string { return e.Message }

func (e *RegistrationError) Unwrap() error { return e.Err }

// serviceError maps a transport-level error from op onto the session
// taxonomy. Network errors pass through untouched.
func serviceError(op string, err error) error {
	var re *api.ResponseError
	if !errors.As(err, &re) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &AuthServiceError{Op: op, StatusCode: re.StatusCode, Message: re.Message, Err: err}
}

func loginError(err error) error {
	var re *api.ResponseError
	if errors.As(err, &re) && re.StatusCode == 401 {
		return &InvalidCredentialsError{Message: re.Message, Err: err}
	}
	return serviceError("login", err)
}

func registrationError(err error) error {
	var re *api.ResponseError
	if errors.As(err, &re) {
		return &RegistrationError{StatusCode: re.StatusCode, Message: re.Message, Err: err}
	}
	return &RegistrationError{Message: "registration failed: " + err.Error(), Err: err}
}
