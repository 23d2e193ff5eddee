package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/cache"
)

func TestStart_CachedUserIsOptimisticUntilServerAnswers(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	store := cache.NewMemory()
	require.NoError(t, store.PutUser(context.Background(), testUser(1, "cached")))
	h := newHarness(t, f, store, Options{})

	h.m.Start(context.Background())
	call := nextMe(t, f)

	snap := h.m.Snapshot()
	assert.Equal(t, StatusResolving, snap.Status)
	require.NotNil(t, snap.User)
	assert.Equal(t, "cached", snap.User.Nickname)
	assert.True(t, snap.Optimistic())
	assert.Equal(t, Wait, h.m.RequireAuthenticated("/profile").Action)

	call.answer(testUser(1, "remote"), nil)
	h.waitStatus(t, StatusAuthenticated)

	snap = h.m.Snapshot()
	assert.Equal(t, "remote", snap.User.Nickname)
	assert.False(t, snap.Optimistic())
	assert.Equal(t, "remote", h.cached(t).User.Nickname)
	assert.False(t, h.cached(t).LoggedOut)
}

func TestStart_TombstoneStartsEmpty(t *testing.T) {
	f := newFakeAPI()
	store := cache.NewMemory()
	require.NoError(t, store.PutLoggedOut(context.Background()))
	h := newHarness(t, f, store, Options{})

	h.m.Start(context.Background())
	h.waitStatus(t, StatusUnauthenticated)

	assert.Nil(t, h.m.Snapshot().User)
	e := h.cached(t)
	assert.Nil(t, e.User)
	assert.True(t, e.LoggedOut)
}

func TestStart_FailedResolutionClearsCache(t *testing.T) {
	f := newFakeAPI()
	store := cache.NewMemory()
	require.NoError(t, store.PutUser(context.Background(), testUser(1, "stale")))
	h := newHarness(t, f, store, Options{})

	h.m.Start(context.Background())
	h.waitStatus(t, StatusUnauthenticated)

	assert.Nil(t, h.m.Snapshot().User)
	e := h.cached(t)
	assert.Nil(t, e.User)
	assert.True(t, e.LoggedOut)
}

func TestStart_CorruptCacheIsAMiss(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	h := newHarness(t, f, corruptStore{cache.NewMemory()}, Options{})

	h.m.Start(context.Background())
	call := nextMe(t, f)
	assert.Nil(t, h.m.Snapshot().User)
	assert.Equal(t, StatusResolving, h.m.Snapshot().Status)

	call.answer(testUser(1, "panda"), nil)
	h.waitStatus(t, StatusAuthenticated)
	assert.Equal(t, "panda", h.m.Snapshot().User.Nickname)
}

func TestRefresh_NewestInitiatedWins(t *testing.T) {
	orders := map[string][]int{
		"in_order":     {0, 1},
		"out_of_order": {1, 0},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFakeAPI()
			f.queue = make(chan *meCall)
			h := newHarness(t, f, nil, Options{})

			results := make([]*api.User, 2)
			calls := make([]*meCall, 2)
			dones := make([]chan struct{}, 2)
			for i := range calls {
				dones[i] = make(chan struct{})
				go func() {
					defer close(dones[i])
					u, err := h.m.Refresh(context.Background())
					assert.NoError(t, err)
					results[i] = u
				}()
				calls[i] = nextMe(t, f)
			}

			for _, i := range order {
				calls[i].answer(testUser(1, fmt.Sprintf("call-%d", i)), nil)
				<-dones[i]
			}

			assert.Equal(t, "call-1", h.m.Snapshot().User.Nickname)
			assert.Equal(t, "call-1", h.cached(t).User.Nickname)
			assert.Equal(t, "call-1", results[1].Nickname)
			if name == "out_of_order" {
				// The older caller lost and reports the newer result.
				assert.Equal(t, "call-1", results[0].Nickname)
			} else {
				assert.Equal(t, "call-0", results[0].Nickname)
			}
		})
	}
}

func TestRefresh_RandomCompletionOrder(t *testing.T) {
	const n = 6
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		f := newFakeAPI()
		f.queue = make(chan *meCall)
		h := newHarness(t, f, nil, Options{})

		var wg sync.WaitGroup
		calls := make([]*meCall, n)
		for i := range calls {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.m.Refresh(context.Background())
			}()
			calls[i] = nextMe(t, f)
		}
		for _, i := range rng.Perm(n) {
			if i%2 == 1 && i != n-1 {
				calls[i].answer(nil, errUnauthorized)
				continue
			}
			calls[i].answer(testUser(i+1, fmt.Sprintf("call-%d", i)), nil)
		}
		wg.Wait()

		snap := h.m.Snapshot()
		require.Equal(t, StatusAuthenticated, snap.Status, "round %d", round)
		assert.Equal(t, fmt.Sprintf("call-%d", n-1), snap.User.Nickname, "round %d", round)
		e := h.cached(t)
		assert.False(t, e.User != nil && e.LoggedOut)
	}
}

func TestRefresh_AuthenticatedSessionDoesNotFlicker(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	h := newHarness(t, f, nil, Options{})

	h.m.Start(context.Background())
	nextMe(t, f).answer(testUser(1, "before"), nil)
	h.waitStatus(t, StatusAuthenticated)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.Refresh(context.Background())
	}()
	call := nextMe(t, f)

	snap := h.m.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.Equal(t, "before", snap.User.Nickname)
	assert.Equal(t, Allow, h.m.RequireAuthenticated("/settings/account").Action)

	call.answer(testUser(1, "after"), nil)
	<-done
	assert.Equal(t, "after", h.m.Snapshot().User.Nickname)
}

func TestRefresh_FromLoggedOutShowsResolving(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	h := newHarness(t, f, nil, Options{})

	h.m.Start(context.Background())
	nextMe(t, f).answer(nil, errUnauthorized)
	h.waitStatus(t, StatusUnauthenticated)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.Refresh(context.Background())
	}()
	call := nextMe(t, f)
	assert.Equal(t, StatusResolving, h.m.Snapshot().Status)

	call.answer(testUser(1, "back"), nil)
	<-done
	assert.Equal(t, StatusAuthenticated, h.m.Snapshot().Status)
}

func TestRefresh_TimeoutResolvesLoggedOut(t *testing.T) {
	f := newFakeAPI()
	f.me = func(ctx context.Context) (*api.User, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	h := newHarness(t, f, nil, Options{ResolveTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := h.m.Refresh(context.Background())

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusUnauthenticated, h.m.Snapshot().Status)
	assert.True(t, h.cached(t).LoggedOut)
}

func TestClose_StopsApplyingResults(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	h := newHarness(t, f, nil, Options{})

	var mu sync.Mutex
	var seen []Status
	h.m.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.Refresh(context.Background())
	}()
	call := nextMe(t, f)

	h.m.Close()
	call.answer(testUser(1, "late"), nil)
	<-done

	assert.Equal(t, StatusResolving, h.m.Snapshot().Status)
	assert.Nil(t, h.m.Snapshot().User)
	mu.Lock()
	assert.Empty(t, seen)
	mu.Unlock()
	assert.Nil(t, h.cached(t).User)

	_, err := h.m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.m.Login(context.Background(), api.Credentials{}, ""), ErrClosed)
}

func TestClose_CancelsBackgroundResolution(t *testing.T) {
	f := newFakeAPI()
	f.queue = make(chan *meCall)
	h := newHarness(t, f, nil, Options{})

	h.m.Start(context.Background())
	nextMe(t, f)

	closed := make(chan struct{})
	go func() {
		h.m.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestSubscribe_VersionsIncrease(t *testing.T) {
	f := newFakeAPI()
	f.loggedIn.Store(true)
	h := newHarness(t, f, nil, Options{})

	var mu sync.Mutex
	var versions []uint64
	unsubscribe := h.m.Subscribe(func(s Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	_, err := h.m.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.m.Logout(context.Background()))
	unsubscribe()
	_, _ = h.m.Refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 3)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
}

func TestErrors_Wrapping(t *testing.T) {
	re := &api.ResponseError{StatusCode: http.StatusConflict, Message: "Email already in use"}

	err := registrationError(re)
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "Email already in use", regErr.Error())
	assert.True(t, errors.Is(err, re))

	err = loginError(&api.ResponseError{StatusCode: http.StatusInternalServerError, Message: "boom"})
	var se *AuthServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "login failed (500): boom", se.Error())

	netErr := &api.NetworkError{Method: "POST", Path: "/api/auth/login", Err: errors.New("refused")}
	assert.True(t, api.IsNetwork(loginError(netErr)))
}

func TestStart_DuringSocialLoginLeavesItAlone(t *testing.T) {
	f := newFakeAPI()
	f.exchangeGate = make(chan struct{})
	store := cache.NewMemory()
	require.NoError(t, store.PutUser(context.Background(), testUser(2, "stale")))
	h := newHarness(t, f, store, Options{})

	done := make(chan error, 1)
	go func() {
		done <- h.m.LoginWithSocialCode(context.Background(), "c1", api.ProviderGoogle)
	}()
	h.waitStatus(t, StatusLoggingIn)

	h.m.Start(context.Background())

	snap := h.m.Snapshot()
	assert.Equal(t, StatusLoggingIn, snap.Status)
	assert.Nil(t, snap.User)
	assert.ErrorIs(t, h.m.Logout(context.Background()), ErrConcurrentOperation)
	assert.Zero(t, f.logoutCalls.Load())

	close(f.exchangeGate)
	require.NoError(t, <-done)
	assert.Equal(t, StatusAuthenticated, h.m.Snapshot().Status)
	assert.Equal(t, int32(1), f.meCalls.Load())
	assert.Equal(t, "panda", h.cached(t).User.Nickname)
}

func TestStart_SecondCallIsNoop(t *testing.T) {
	f := newFakeAPI()
	f.loggedIn.Store(true)
	h := newHarness(t, f, nil, Options{})

	h.m.Start(context.Background())
	h.waitStatus(t, StatusAuthenticated)
	h.m.Start(context.Background())

	assert.Equal(t, StatusAuthenticated, h.m.Snapshot().Status)
	assert.Equal(t, int32(1), f.meCalls.Load())
}
