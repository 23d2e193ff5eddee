// Package cache persists the last known session outcome: either the user
// the server confirmed, or a tombstone saying the last confirmed state was
// logged out. Never both.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pandamarket/panda/internal/api"
)

const (
	keyUser      = "user"
	keyLoggedOut = "logged_out"
)

// Entry is one consistent read of the cache.
type Entry struct {
	User      *api.User
	LoggedOut bool
}

// Store is a durable session cache. Writes replace the whole pair, so an
// implementation must apply both keys atomically.
type Store interface {
	Load(ctx context.Context) (Entry, error)
	// PutUser stores the user and clears the tombstone.
	PutUser(ctx context.Context, user *api.User) error
	// PutLoggedOut sets the tombstone and clears the user.
	PutLoggedOut(ctx context.Context) error
	Close() error
}

// CorruptionError reports a persisted value that cannot be trusted.
// Callers treat it as a cache miss.
type CorruptionError struct {
	Key    string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("cache: corrupt %s: %s", e.Key, e.Reason)
}

func encodeUser(user *api.User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("cache: encoding user: %w", err)
	}
	return string(data), nil
}

// decodeEntry builds an Entry from the raw stored values. Empty strings
// mean the key is absent.
func decodeEntry(rawUser, rawLoggedOut string) (Entry, error) {
	loggedOut := rawLoggedOut != ""
	if loggedOut && rawLoggedOut != "true" {
		return Entry{}, &CorruptionError{Key: keyLoggedOut, Reason: fmt.Sprintf("unexpected value %q", rawLoggedOut)}
	}
	if rawUser == "" {
		return Entry{LoggedOut: loggedOut}, nil
	}
	if loggedOut {
		return Entry{}, &CorruptionError{Key: keyUser, Reason: "user present alongside logged-out marker"}
	}

	var user api.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return Entry{}, &CorruptionError{Key: keyUser, Reason: err.Error()}
	}
	if err := user.Validate(); err != nil {
		return Entry{}, &CorruptionError{Key: keyUser, Reason: err.Error()}
	}
	return Entry{User: &user}, nil
}
