package session

import (
	"net/url"
	"strings"
)

// Action tells a protected view what to do.
type Action int

const (
	// Wait: the session is not settled; render a placeholder, do not redirect.
	Wait Action = iota
	Allow
	Redirect
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the guard's verdict. Location is set for Redirect.
type Decision struct {
	Action   Action
	Location string
}

// protectedPrefixes are the views that require a signed-in user.
var protectedPrefixes = []string{
	"/profile",
	"/settings/account",
	"/articles/addArticle",
	"/registration",
}

// IsProtected reports whether path requires authentication.
func IsProtected(path string) bool {
	p := pathOnly(path)
	for _, prefix := range protectedPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// RequireAuthenticated decides whether the view at currentPath may render.
func (m *Manager) RequireAuthenticated(currentPath string) Decision {
	return Guard(m.Snapshot(), currentPath, m.opts.LoginPath)
}

// Guard is RequireAuthenticated on an explicit snapshot. It never
// redirects before the session has settled, and never away from the login
// view itself.
func Guard(snap Snapshot, currentPath, loginPath string) Decision {
	if pathOnly(currentPath) == pathOnly(loginPath) {
		return Decision{Action: Allow}
	}
	switch snap.Status {
	case StatusAuthenticated:
		return Decision{Action: Allow}
	case StatusUnauthenticated:
		return Decision{Action: Redirect, Location: LoginURL(loginPath, currentPath)}
	default:
		return Decision{Action: Wait}
	}
}

// LoginURL is the login view carrying returnTo so a successful login can
// come back.
func LoginURL(loginPath, returnTo string) string {
	if returnTo == "" {
		return loginPath
	}
	return loginPath + "?returnTo=" + url.QueryEscape(returnTo)
}

// ReturnDestination picks the post-login destination from the login view's
// query. Only local absolute paths are accepted; anything else yields
// fallback.
func ReturnDestination(query url.Values, fallback string) string {
	for _, key := range []string{"returnTo", "callbackUrl"} {
		dest := query.Get(key)
		if isLocalPath(dest) {
			return dest
		}
	}
	return fallback
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func pathOnly(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
