// Package session owns the answer to "who is logged in". A single Manager
// mediates login, logout, registration and social callbacks, keeps the
// durable cache in step with the server, and guards protected views.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/cache"
	"github.com/pandamarket/panda/internal/logging"
)

// AuthAPI is the slice of the REST backend the session depends on.
type AuthAPI interface {
	Me(ctx context.Context) (*api.User, error)
	Login(ctx context.Context, creds api.Credentials) error
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg api.Registration) error
	ExchangeGoogleCode(ctx context.Context, code string) error
}

// Navigator moves the application between views. Reload discards all
// in-memory view state before showing path.
type Navigator interface {
	Navigate(path string)
	Reload(path string)
}

type Options struct {
	Logger *slog.Logger

	// ResolveTimeout bounds each /me call. Expiry counts as logged out.
	ResolveTimeout time.Duration

	LandingPath      string
	LoginPath        string
	LoginDestination string

	// SocialRedirectDelay keeps the callback screen up briefly before
	// leaving it. Zero by default.
	SocialRedirectDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = 12 * time.Second
	}
	if o.LandingPath == "" {
		o.LandingPath = "/"
	}
	if o.LoginPath == "" {
		o.LoginPath = "/auth"
	}
	if o.LoginDestination == "" {
		o.LoginDestination = "/products"
	}
}

// Manager is the session store. Construct one per application with New
// and share it by reference.
type Manager struct {
	api   AuthAPI
	store cache.Store
	nav   Navigator
	opts  Options
	log   *slog.Logger

	// ctx is cancelled by Close and parents background resolutions.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	user    *api.User
	status  Status
	version uint64
	closed  bool

	// issued is the sequence number of the newest /me request; applied is
	// the highest one whose result may no longer be overwritten.
	issued  uint64
	applied uint64

	subs    map[int]func(Snapshot)
	nextSub int

	// codes latches authorization codes already submitted.
	codes map[string]struct{}
}

func New(authAPI AuthAPI, store cache.Store, nav Navigator, opts Options) *Manager {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		api:    authAPI,
		store:  store,
		nav:    nav,
		opts:   opts,
		log:    opts.Logger.With("component", "session"),
		ctx:    ctx,
		cancel: cancel,
		status: StatusResolving,
		subs:   make(map[int]func(Snapshot)),
		codes:  make(map[string]struct{}),
	}
}

// Start seeds the session from the cache for display and kicks off the
// first resolution. Status stays Resolving until the server answers.
// Once any resolution, login or logout has begun Start does nothing.
func (m *Manager) Start(ctx context.Context) {
	entry, err := m.store.Load(ctx)
	if err != nil {
		var ce *cache.CorruptionError
		if errors.As(err, &ce) {
			m.log.Warn("ignoring corrupt session cache", "key", ce.Key, "reason", ce.Reason)
		} else {
			m.log.Warn("reading session cache", "err", err)
		}
		entry = cache.Entry{}
	}

	var fresh bool
	m.update(func() bool {
		fresh = !m.closed && m.status == StatusResolving && m.issued == 0
		if !fresh {
			return false
		}
		if entry.User != nil && !entry.LoggedOut {
			m.user = entry.User
		}
		return true
	})
	if !fresh {
		m.log.Debug("session already started", "status", m.Snapshot().Status)
		return
	}
	m.log.Debug("session starting", "cached_user", entry.User != nil, "logged_out", entry.LoggedOut)

	m.background(func(ctx context.Context) {
		m.Refresh(ctx)
	})
}

// Refresh re-asks the server who is logged in. An authenticated session
// keeps its status and user visible until the answer arrives. When a newer
// resolution already settled, Refresh reports that result instead of its own.
func (m *Manager) Refresh(ctx context.Context) (*api.User, error) {
	seq, err := m.issue(false)
	if err != nil {
		return nil, err
	}
	user, err := m.resolve(ctx, seq, false)
	if errors.Is(err, errStaleResponse) {
		snap := m.Snapshot()
		if snap.IsAuthenticated() {
			return snap.User, nil
		}
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		m.log.Info("session resolved logged out", "err", err)
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// issue allocates the next resolution sequence number. Refreshes started
// while logged out show Resolving again.
func (m *Manager) issue(owned bool) (uint64, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrClosed
	}
	m.issued++
	seq := m.issued
	changed := !owned && m.status == StatusUnauthenticated
	if changed {
		m.status = StatusResolving
		m.version++
	}
	snap, subs := m.snapshotLocked()
	m.mu.Unlock()

	if changed {
		publish(snap, subs)
	}
	return seq, nil
}

// resolve calls /me and applies the outcome if seq is still the newest.
// owned marks resolutions started by a login, which alone may settle a
// session that is logging in.
func (m *Manager) resolve(ctx context.Context, seq uint64, owned bool) (*api.User, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ResolveTimeout)
	defer cancel()

	user, err := m.api.Me(ctx)
	if err != nil && ctx.Err() != nil {
		m.log.Warn("session resolution timed out", "seq", seq, "timeout", m.opts.ResolveTimeout)
	}

	var stale bool
	m.update(func() bool {
		if m.closed || seq <= m.applied || (m.status.inFlight() && !owned) {
			stale = true
			return false
		}
		m.applied = seq
		if err == nil {
			m.user, m.status = user, StatusAuthenticated
			m.writeCache(func(ctx context.Context) error { return m.store.PutUser(ctx, user) })
		} else {
			m.user, m.status = nil, StatusUnauthenticated
			m.writeCache(m.store.PutLoggedOut)
		}
		return true
	})
	if stale {
		m.log.Debug("discarding stale resolution", "seq", seq)
		return nil, errStaleResponse
	}
	return user, err
}

// writeCache runs with mu held so cache writes land in the order results
// were applied.
func (m *Manager) writeCache(write func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := write(ctx); err != nil {
		m.log.Warn("writing session cache", "err", err)
	}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, _ := m.snapshotLocked()
	return snap
}

// Subscribe registers fn for every change and returns a function that
// removes it. fn runs on the goroutine that made the change.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Close stops applying results, drops subscribers and waits for background
// resolutions to return.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.subs = make(map[int]func(Snapshot))
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// update runs fn under the lock and publishes the new state when fn
// reports a change.
func (m *Manager) update(fn func() bool) {
	m.mu.Lock()
	if !fn() || m.closed {
		m.mu.Unlock()
		return
	}
	m.version++
	snap, subs := m.snapshotLocked()
	m.mu.Unlock()

	publish(snap, subs)
}

func (m *Manager) snapshotLocked() (Snapshot, []func(Snapshot)) {
	snap := Snapshot{Status: m.status, Version: m.version}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return snap, subs
}

func publish(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) background(fn func(ctx context.Context)) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		fn(m.ctx)
	}()
}

func (m *Manager) navigate(path string) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if !closed {
		m.nav.Navigate(path)
	}
}
