package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandamarket/panda/internal/api"
)

// signedIn returns a harness whose session already resolved to user 1.
func signedIn(t *testing.T, f *fakeAPI) *harness {
	t.Helper()
	f.loggedIn.Store(true)
	h := newHarness(t, f, nil, Options{})
	_, err := h.m.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, h.m.Snapshot().Status)
	return h
}

func TestLogin_InvalidCredentialsKeepsServerMessage(t *testing.T) {
	const msg = "이메일 또는 비밀번호가 일치하지 않습니다."
	f := newFakeAPI()
	f.loginErr = &api.ResponseError{StatusCode: http.StatusUnauthorized, Message: msg}
	h := newHarness(t, f, nil, Options{})

	err := h.m.Login(context.Background(), api.Credentials{Email: "a@b.c", Password: "wrong"}, "")

	var invalid *InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, msg, err.Error())
	assert.Equal(t, StatusUnauthenticated, h.m.Snapshot().Status)
	assert.Nil(t, h.m.Snapshot().User)
	assert.Zero(t, f.meCalls.Load())
	assert.Empty(t, h.nav.Navigated())
}

func TestLogin_ServiceFailure(t *testing.T) {
	f := newFakeAPI()
	f.loginErr = &api.ResponseError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
	h := newHarness(t, f, nil, Options{})

	err := h.m.Login(context.Background(), api.Credentials{Email: "a@b.c", Password: "pw"}, "")

	var se *AuthServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, StatusUnauthenticated, h.m.Snapshot().Status)
}

func TestLogin_SuccessResolvesAndNavigates(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		want        string
	}{
		{name: "default destination", want: "/products"},
		{name: "return path", destination: "/settings/account", want: "/settings/account"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI()
			h := newHarness(t, f, nil, Options{})

			creds := api.Credentials{Email: "panda@panda.market", Password: "pw"}
			require.NoError(t, h.m.Login(context.Background(), creds, tt.destination))

			snap := h.m.Snapshot()
			assert.Equal(t, StatusAuthenticated, snap.Status)
			assert.Equal(t, "panda", snap.User.Nickname)
			assert.Equal(t, creds, *f.lastCreds.Load())
			assert.Equal(t, []string{tt.want}, h.nav.Navigated())

			e := h.cached(t)
			require.NotNil(t, e.User)
			assert.False(t, e.LoggedOut)
		})
	}
}

func TestLogin_MeFailureMeansNotEstablished(t *testing.T) {
	f := newFakeAPI()
	f.me = func(context.Context) (*api.User, error) { return nil, errUnauthorized }
	h := newHarness(t, f, nil, Options{})

	err := h.m.Login(context.Background(), api.Credentials{Email: "a@b.c", Password: "pw"}, "")

	assert.ErrorIs(t, err, ErrSessionNotEstablished)
	assert.Equal(t, StatusUnauthenticated, h.m.Snapshot().Status)
	assert.Empty(t, h.nav.Navigated())
	assert.True(t, h.cached(t).LoggedOut)
}

func TestLogin_PendingResolutionCannotOverwrite(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	h := newHarness(t, f, nil, Options{})

	h.m.Start(context.Background())
	startup := nextMe(t, f)

	done := make(chan error, 1)
	go func() {
		done <- h.m.Login(context.Background(), api.Credentials{Email: "a@b.c", Password: "pw"}, "")
	}()
	afterLogin := nextMe(t, f)
	require.Equal(t, StatusLoggingIn, h.m.Snapshot().Status)

	// The startup call was issued before the login and answers last-known
	// logged out. It must not be applied.
	startup.answer(nil, errUnauthorized)
	assert.Never(t, func() bool {
		return h.m.Snapshot().Status != StatusLoggingIn
	}, 50*time.Millisecond, 5*time.Millisecond)

	afterLogin.answer(testUser(1, "panda"), nil)
	require.NoError(t, <-done)
	assert.Equal(t, StatusAuthenticated, h.m.Snapshot().Status)
	assert.Equal(t, "panda", h.cached(t).User.Nickname)
}

func TestLogin_RejectedWhileLoggingOut(t *testing.T) {
	f := newFakeAPI()
	f.logoutGate = make(chan struct{})
	h := signedIn(t, f)

	done := make(chan error, 1)
	go func() { done <- h.m.Logout(context.Background()) }()
	h.waitStatus(t, StatusLoggingOut)

	err := h.m.Login(context.Background(), api.Credentials{Email: "a@b.c", Password: "pw"}, "")
	assert.ErrorIs(t, err, ErrConcurrentOperation)
	assert.Zero(t, f.loginCalls.Load())

	close(f.logoutGate)
	require.NoError(t, <-done)
	assert.Equal(t, StatusUnauthenticated, h.m.Snapshot().Status)
}

func TestLogout_SecondCallIsNoop(t *testing.T) {
	f := newFakeAPI()
	f.logoutGate = make(chan struct{})
	h := signedIn(t, f)

	done := make(chan error, 1)
	go func() { done <- h.m.Logout(context.Background()) }()
	h.waitStatus(t, StatusLoggingOut)

	assert.NoError(t, h.m.Logout(context.Background()))

	close(f.logoutGate)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), f.logoutCalls.Load())
	assert.Equal(t, []string{"/"}, h.nav.Reloaded())
	snap := h.m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, snap.Status)
	assert.Nil(t, snap.User)
	e := h.cached(t)
	assert.Nil(t, e.User)
	assert.True(t, e.LoggedOut)
}

func TestLogout_HidesUserBeforeServerAnswers(t *testing.T) {
	f := newFakeAPI()
	h := signedIn(t, f)

	var mu sync.Mutex
	var seen []Status
	h.m.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	require.NoError(t, h.m.Logout(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusLoggingOut, StatusUnauthenticated}, seen)
}

func TestLogout_FailureRestoresSession(t *testing.T) {
	f := newFakeAPI()
	h := signedIn(t, f)
	f.logoutErr = &api.ResponseError{StatusCode: http.StatusBadGateway, Message: "Bad Gateway"}

	err := h.m.Logout(context.Background())

	var se *AuthServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "logout", se.Op)
	snap := h.m.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.Equal(t, "panda", snap.User.Nickname)
	assert.Empty(t, h.nav.Reloaded())
	assert.NotNil(t, h.cached(t).User)
}

func TestLogout_NetworkFailureWhileResolvingRetries(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	f.logoutErr = &api.NetworkError{Method: http.MethodPost, Path: "/api/auth/logout", Err: errors.New("connection refused")}
	h := newHarness(t, f, nil, Options{})

	h.m.Start(context.Background())
	startup := nextMe(t, f)

	err := h.m.Logout(context.Background())
	assert.True(t, api.IsNetwork(err))
	assert.Equal(t, StatusResolving, h.m.Snapshot().Status)

	// The startup answer was fenced off by the logout; a fresh resolution
	// settles the session instead.
	startup.answer(testUser(1, "ignored"), nil)
	nextMe(t, f).answer(testUser(1, "panda"), nil)
	h.waitStatus(t, StatusAuthenticated)
	assert.Equal(t, "panda", h.m.Snapshot().User.Nickname)
}

func TestRegister_SignsInWithSameCredentials(t *testing.T) {
	f := newFakeAPI()
	h := newHarness(t, f, nil, Options{})

	reg := api.Registration{Email: "new@panda.market", Password: "pw12345678", Nickname: "new"}
	require.NoError(t, h.m.Register(context.Background(), reg, "/profile"))

	assert.Equal(t, int32(1), f.registerCalls.Load())
	assert.Equal(t, int32(1), f.loginCalls.Load())
	assert.Equal(t, reg.Credentials(), *f.lastCreds.Load())
	assert.Equal(t, StatusAuthenticated, h.m.Snapshot().Status)
	assert.Equal(t, []string{"/profile"}, h.nav.Navigated())
}

func TestRegister_FailureLeavesSessionAlone(t *testing.T) {
	const msg = "이미 사용중인 이메일입니다."
	f := newFakeAPI()
	f.registerErr = &api.ResponseError{StatusCode: http.StatusConflict, Message: msg}
	h := newHarness(t, f, nil, Options{})
	h.m.Start(context.Background())
	h.waitStatus(t, StatusUnauthenticated)
	before := h.m.Snapshot()

	err := h.m.Register(context.Background(), api.Registration{Email: "dup@panda.market", Password: "pw", Nickname: "dup"}, "")

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, msg, regErr.Error())
	assert.Equal(t, http.StatusConflict, regErr.StatusCode)
	assert.Zero(t, f.loginCalls.Load())
	assert.Equal(t, before, h.m.Snapshot())
	assert.Empty(t, h.nav.Navigated())
}

func TestRegister_NetworkFailure(t *testing.T) {
	f := newFakeAPI()
	f.registerErr = &api.NetworkError{Method: http.MethodPost, Path: "/api/users", Err: errors.New("timeout")}
	h := newHarness(t, f, nil, Options{})

	err := h.m.Register(context.Background(), api.Registration{Email: "a@b.c", Password: "pw", Nickname: "a"}, "")

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, regErr.Error(), "registration failed")
	assert.True(t, api.IsNetwork(err))
}
