package session

import "github.com/pandamarket/panda/internal/api"

// Status is where the session is in its lifecycle.
type Status int

const (
	StatusResolving Status = iota
	StatusAuthenticated
	StatusUnauthenticated
	StatusLoggingIn
	StatusLoggingOut
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusLoggingIn:
		return "logging_in"
	case StatusLoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// inFlight reports a login or logout that has not settled.
func (s Status) inFlight() bool {
	return s == StatusLoggingIn || s == StatusLoggingOut
}

// Snapshot is the read-only view of the session handed to consumers.
// Version grows with every change, so a consumer receiving snapshots
// from several goroutines keeps the highest one.
type Snapshot struct {
	User    *api.User
	Status  Status
	Version uint64
}

// IsPending is true until the first resolution settles, and during
// resolutions started while logged out.
func (s Snapshot) IsPending() bool { return s.Status == StatusResolving }

func (s Snapshot) IsLoggingIn() bool { return s.Status == StatusLoggingIn }

// IsLoggingOut is true from the moment logout starts. Views hide
// authenticated-only content while it holds.
func (s Snapshot) IsLoggingOut() bool { return s.Status == StatusLoggingOut }

func (s Snapshot) IsAuthenticated() bool { return s.Status == StatusAuthenticated }

// Optimistic reports a user shown from cache that the server has not
// confirmed yet.
func (s Snapshot) Optimistic() bool {
	return s.User != nil && s.Status == StatusResolving
}
