package session

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/cache"
)

type meReply struct {
	user *api.User
	err  error
}

// meCall is one /me request parked until the test answers it.
type meCall struct {
	reply chan meReply
}

func (c *meCall) answer(u *api.User, err error) {
	c.reply <- meReply{user: u, err: err}
}

// fakeAPI stands in for the backend. /me either consults the loggedIn
// flag or, when queue is set, parks each call for the test to answer.
type fakeAPI struct {
	queue    chan *meCall
	me       func(ctx context.Context) (*api.User, error)
	loggedIn atomic.Bool
	user     *api.User

	loginErr    error
	logoutErr   error
	registerErr error
	exchangeErr error

	// logoutGate, when set, holds Logout until closed.
	logoutGate   chan struct{}
	exchangeGate chan struct{}

	meCalls       atomic.Int32
	loginCalls    atomic.Int32
	logoutCalls   atomic.Int32
	registerCalls atomic.Int32
	exchangeCalls atomic.Int32
	lastCreds     atomic.Pointer[api.Credentials]
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{user: testUser(1, "panda")}
}

func testUser(id int, nickname string) *api.User {
	return &api.User{ID: id, Email: nickname + "@panda.market", Nickname: nickname, Provider: api.ProviderLocal}
}

var errUnauthorized = &api.ResponseError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}

func (f *fakeAPI) Me(ctx context.Context) (*api.User, error) {
	f.meCalls.Add(1)
	if f.queue != nil {
		call := &meCall{reply: make(chan meReply, 1)}
		select {
		case f.queue <- call:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		select {
		case r := <-call.reply:
			return r.user, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.me != nil {
		return f.me(ctx)
	}
	if f.loggedIn.Load() {
		u := *f.user
		return &u, nil
	}
	return nil, errUnauthorized
}

func (f *fakeAPI) Login(_ context.Context, creds api.Credentials) error {
	f.loginCalls.Add(1)
	f.lastCreds.Store(&creds)
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn.Store(true)
	return nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.logoutCalls.Add(1)
	if f.logoutGate != nil {
		select {
		case <-f.logoutGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.loggedIn.Store(false)
	return nil
}

func (f *fakeAPI) Register(_ context.Context, _ api.Registration) error {
	f.registerCalls.Add(1)
	return f.registerErr
}

func (f *fakeAPI) ExchangeGoogleCode(ctx context.Context, _ string) error {
	f.exchangeCalls.Add(1)
	if f.exchangeGate != nil {
		select {
		case <-f.exchangeGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.exchangeErr != nil {
		return f.exchangeErr
	}
	f.loggedIn.Store(true)
	return nil
}

// fakeNav records where the manager sent the application.
type fakeNav struct {
	mu        sync.Mutex
	navigated []string
	reloaded  []string
}

func (n *fakeNav) Navigate(path string) {
	n.mu.Lock()
	n.navigated = append(n.navigated, path)
	n.mu.Unlock()
}

func (n *fakeNav) Reload(path string) {
	n.mu.Lock()
	n.reloaded = append(n.reloaded, path)
	n.mu.Unlock()
}

func (n *fakeNav) Navigated() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.navigated...)
}

func (n *fakeNav) Reloaded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.reloaded...)
}

// corruptStore fails every Load with a CorruptionError.
type corruptStore struct {
	*cache.Memory
}

func (corruptStore) Load(context.Context) (cache.Entry, error) {
	return cache.Entry{}, &cache.CorruptionError{Key: "user", Reason: "unexpected end of JSON input"}
}

type harness struct {
	m     *Manager
	api   *fakeAPI
	nav   *fakeNav
	store cache.Store
}

func newHarness(t *testing.T, f *fakeAPI, store cache.Store, opts Options) *harness {
	t.Helper()
	if store == nil {
		store = cache.NewMemory()
	}
	nav := &fakeNav{}
	m := New(f, store, nav, opts)
	t.Cleanup(m.Close)
	return &harness{m: m, api: f, nav: nav, store: store}
}

func (h *harness) waitStatus(t *testing.T, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.m.Snapshot().Status == want
	}, 2*time.Second, 5*time.Millisecond, "status never became %s (now %s)", want, h.m.Snapshot().Status)
}

func (h *harness) cached(t *testing.T) cache.Entry {
	t.Helper()
	e, err := h.store.Load(context.Background())
	require.NoError(t, err)
	return e
}

// nextMe waits for the next parked /me call.
func nextMe(t *testing.T, f *fakeAPI) *meCall {
	t.Helper()
	select {
	case c := <-f.queue:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no /me request issued")
		return nil
	}
}
