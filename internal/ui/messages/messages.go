package messages

import (
	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/session"
)

// Navigation messages. The session manager produces these through the
// program's Navigator; views produce them directly.
type (
	NavigateMsg struct{ Path string }
	ReloadMsg   struct{ Path string }
	GoBackMsg   struct{}
)

// SessionChangedMsg carries every published session snapshot.
type SessionChangedMsg struct {
	Snapshot session.Snapshot
}

// Data messages.
type (
	LandingLoadedMsg struct {
		Landing *api.Landing
		Err     error
	}

	LoginResultMsg struct {
		Err error
	}

	RegisterResultMsg struct {
		Err error
	}

	LogoutResultMsg struct {
		Err error
	}

	SocialResultMsg struct {
		Err error
	}

	RefreshResultMsg struct {
		User *api.User
		Err  error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
