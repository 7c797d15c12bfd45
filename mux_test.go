package watchmux

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calyptra/watchmux/types"
)

// fakeHandle is a store watch handle whose stopped state tests can inspect.
type fakeHandle struct {
	mu      sync.Mutex
	stopped bool
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true

	return nil
}

func (h *fakeHandle) isStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.stopped
}

// fakeWatch is one opened watch with its delivery callbacks.
type fakeWatch[S any] struct {
	handle     *fakeHandle
	onSnapshot func(S)
	onError    types.WatchErrorCallback
}

// fakeStore implements types.Store in-memory. Snapshots are pushed from the
// test goroutine, which mirrors the serialized per-watch delivery the real
// store guarantees.
type fakeStore struct {
	mu sync.Mutex

	docWatches  map[string][]*fakeWatch[types.DocumentSnapshot]
	collWatches map[string][]*fakeWatch[types.CollectionSnapshot]

	blockOpen chan struct{} // non-nil: opens block until closed
	failOpen  error         // non-nil: opens fail with this error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docWatches:  make(map[string][]*fakeWatch[types.DocumentSnapshot]),
		collWatches: make(map[string][]*fakeWatch[types.CollectionSnapshot]),
	}
}

func (s *fakeStore) WatchDocument(_ context.Context, collection, docID string,
	onSnapshot types.DocumentCallback, onError types.WatchErrorCallback,
) (types.WatchHandle, error) {
	s.mu.Lock()
	block := s.blockOpen
	s.mu.Unlock()
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOpen != nil {
		return nil, s.failOpen
	}

	w := &fakeWatch[types.DocumentSnapshot]{handle: &fakeHandle{}, onSnapshot: onSnapshot, onError: onError}
	key := collection + "/" + docID
	s.docWatches[key] = append(s.docWatches[key], w)

	return w.handle, nil
}

func (s *fakeStore) WatchCollection(_ context.Context, collection string,
	onSnapshot types.CollectionCallback, onError types.WatchErrorCallback,
) (types.WatchHandle, error) {
	s.mu.Lock()
	block := s.blockOpen
	s.mu.Unlock()
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOpen != nil {
		return nil, s.failOpen
	}

	w := &fakeWatch[types.CollectionSnapshot]{handle: &fakeHandle{}, onSnapshot: onSnapshot, onError: onError}
	s.collWatches[collection] = append(s.collWatches[collection], w)

	return w.handle, nil
}

// docOpenCount returns how many document watches were ever opened for key.
func (s *fakeStore) docOpenCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.docWatches[key])
}

// liveDocWatches returns the opened-but-not-stopped document watches for key.
func (s *fakeStore) liveDocWatches(key string) []*fakeWatch[types.DocumentSnapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()

	var live []*fakeWatch[types.DocumentSnapshot]
	for _, w := range s.docWatches[key] {
		if !w.handle.isStopped() {
			live = append(live, w)
		}
	}

	return live
}

func (s *fakeStore) liveCollWatches(key string) []*fakeWatch[types.CollectionSnapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()

	var live []*fakeWatch[types.CollectionSnapshot]
	for _, w := range s.collWatches[key] {
		if !w.handle.isStopped() {
			live = append(live, w)
		}
	}

	return live
}

// pushDocument delivers a snapshot through the single live watch for key.
func (s *fakeStore) pushDocument(t *testing.T, key string, snap types.DocumentSnapshot) {
	t.Helper()

	live := s.liveDocWatches(key)
	require.Len(t, live, 1, "expected exactly one live watch for %s", key)
	live[0].onSnapshot(snap)
}

// pushCollection delivers a result-set snapshot through the live watch for key.
func (s *fakeStore) pushCollection(t *testing.T, key string, snap types.CollectionSnapshot) {
	t.Helper()

	live := s.liveCollWatches(key)
	require.Len(t, live, 1, "expected exactly one live watch for %s", key)
	live[0].onSnapshot(snap)
}

// failDocument reports an asynchronous failure through the live watch for key.
func (s *fakeStore) failDocument(t *testing.T, key string, err error) {
	t.Helper()

	live := s.liveDocWatches(key)
	require.Len(t, live, 1, "expected exactly one live watch for %s", key)
	live[0].onError(err)
}

// newTestMux builds a Mux over a fresh fake store.
func newTestMux(t *testing.T, opts ...Option) (*Mux, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	mux, err := New(&Config{}, store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mux.Close() })

	return mux, store
}

// waitDocAttached waits until the single live document watch for key exists.
func waitDocAttached(t *testing.T, store *fakeStore, key string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(store.liveDocWatches(key)) == 1
	}, time.Second, 2*time.Millisecond, "document watch for %s never attached", key)
}

func waitCollAttached(t *testing.T, store *fakeStore, key string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(store.liveCollWatches(key)) == 1
	}, time.Second, 2*time.Millisecond, "collection watch for %s never attached", key)
}

func TestNew(t *testing.T) {
	t.Run("rejects nil config", func(t *testing.T) {
		_, err := New(nil, newFakeStore())
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects nil store", func(t *testing.T) {
		_, err := New(&Config{}, nil)
		require.ErrorIs(t, err, ErrStoreRequired)
	})

	t.Run("rejects negative open timeout", func(t *testing.T) {
		_, err := New(&Config{OpenTimeout: -time.Second}, newFakeStore())
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("applies defaults", func(t *testing.T) {
		cfg := Config{}
		mux, err := New(&cfg, newFakeStore())
		require.NoError(t, err)
		defer mux.Close()

		require.Equal(t, DefaultOpenTimeout, cfg.OpenTimeout)
	})
}

func TestOnDocument_LazyOpen(t *testing.T) {
	mux, store := newTestMux(t)

	// No watch exists before the first registration.
	require.Zero(t, store.docOpenCount("teams/t1/members/u1"))

	id, err := mux.OnDocument("teams/t1/members", "u1", func(types.DocumentSnapshot) {})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	waitDocAttached(t, store, "teams/t1/members/u1")
	require.Equal(t, 1, store.docOpenCount("teams/t1/members/u1"))
}

func TestOnDocument_AtMostOneWatch(t *testing.T) {
	mux, store := newTestMux(t)

	for i := range 5 {
		_, err := mux.OnDocument("teams/t1/members", "u1", func(types.DocumentSnapshot) {},
			WithCallbackID(fmt.Sprintf("cb-%d", i)))
		require.NoError(t, err)
	}

	waitDocAttached(t, store, "teams/t1/members/u1")
	require.Equal(t, 1, store.docOpenCount("teams/t1/members/u1"))
	require.Equal(t, 5, mux.NumCallbacks(types.KindDocument, "teams/t1/members/u1"))
}

func TestOnDocument_ConcurrentRegistration(t *testing.T) {
	mux, store := newTestMux(t)

	const goroutines = 16

	var wg sync.WaitGroup
	ids := make([]string, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := mux.OnDocument("sessions", "s1", func(types.DocumentSnapshot) {})
			require.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	waitDocAttached(t, store, "sessions/s1")

	// One watch total despite concurrent first registrations.
	require.Equal(t, 1, store.docOpenCount("sessions/s1"))
	require.Equal(t, goroutines, mux.NumCallbacks(types.KindDocument, "sessions/s1"))

	seen := make(map[string]bool, goroutines)
	for _, id := range ids {
		require.NotEmpty(t, id)
		require.False(t, seen[id], "generated ids must be unique")
		seen[id] = true
	}
}

func TestOnDocument_NilCallback(t *testing.T) {
	mux, store := newTestMux(t)

	_, err := mux.OnDocument("teams", "t1", nil)
	require.ErrorIs(t, err, ErrNilCallback)
	require.Zero(t, store.docOpenCount("teams/t1"))
}

func TestDispatch_FanOutOrder(t *testing.T) {
	mux, store := newTestMux(t)

	var order []string
	_, err := mux.OnDocument("teams/t1/members", "u1",
		func(types.DocumentSnapshot) { order = append(order, "A") }, WithCallbackID("A"))
	require.NoError(t, err)
	_, err = mux.OnDocument("teams/t1/members", "u1",
		func(types.DocumentSnapshot) { order = append(order, "B") }, WithCallbackID("B"))
	require.NoError(t, err)
	_, err = mux.OnDocument("teams/t1/members", "u1",
		func(types.DocumentSnapshot) { order = append(order, "C") }, WithCallbackID("C"))
	require.NoError(t, err)

	waitDocAttached(t, store, "teams/t1/members/u1")
	store.pushDocument(t, "teams/t1/members/u1", types.DocumentSnapshot{ID: "u1"})

	// Every callback exactly once, in registration order.
	require.Equal(t, []string{"A", "B", "C"}, order)
}

func TestDispatch_AddedDuringDispatchWaitsForNext(t *testing.T) {
	mux, store := newTestMux(t)

	var got []string
	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {
		got = append(got, "A")
		_, err := mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "late") },
			WithCallbackID("late"))
		require.NoError(t, err)
	}, WithCallbackID("A"))
	require.NoError(t, err)

	waitDocAttached(t, store, "docs/d1")

	store.pushDocument(t, "docs/d1", types.DocumentSnapshot{ID: "d1", Revision: 1})
	require.Equal(t, []string{"A"}, got, "callback added during dispatch must not see the in-flight snapshot")

	// Re-registering A with overwrite stops it from re-adding "late".
	_, err = mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) { got = append(got, "A") },
		WithCallbackID("A"), WithOverwrite())
	require.NoError(t, err)

	store.pushDocument(t, "docs/d1", types.DocumentSnapshot{ID: "d1", Revision: 2})
	require.Equal(t, []string{"A", "A", "late"}, got)
}

func TestDispatch_RemovedDuringDispatchIsSkipped(t *testing.T) {
	mux, store := newTestMux(t)

	var got []string
	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {
		got = append(got, "A")
		mux.OffDocument("docs", "d1", "B")
	}, WithCallbackID("A"))
	require.NoError(t, err)
	_, err = mux.OnDocument("docs", "d1",
		func(types.DocumentSnapshot) { got = append(got, "B") }, WithCallbackID("B"))
	require.NoError(t, err)

	waitDocAttached(t, store, "docs/d1")
	store.pushDocument(t, "docs/d1", types.DocumentSnapshot{ID: "d1"})

	require.Equal(t, []string{"A"}, got, "callback removed during dispatch must not run")
	require.Equal(t, 1, mux.NumCallbacks(types.KindDocument, "docs/d1"))
}

func TestOnDocument_OverwriteSemantics(t *testing.T) {
	t.Run("collision without overwrite keeps original", func(t *testing.T) {
		mux, store := newTestMux(t)

		var got []string
		_, err := mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "original") }, WithCallbackID("dup"))
		require.NoError(t, err)

		id, err := mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "intruder") }, WithCallbackID("dup"))
		require.NoError(t, err, "id collision is a silent no-op, not an error")
		require.Equal(t, "dup", id)
		require.Equal(t, 1, mux.NumCallbacks(types.KindDocument, "docs/d1"))

		waitDocAttached(t, store, "docs/d1")
		store.pushDocument(t, "docs/d1", types.DocumentSnapshot{ID: "d1"})
		require.Equal(t, []string{"original"}, got)
	})

	t.Run("overwrite replaces in place", func(t *testing.T) {
		mux, store := newTestMux(t)

		var got []string
		_, err := mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "A") }, WithCallbackID("A"))
		require.NoError(t, err)
		_, err = mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "old") }, WithCallbackID("dup"))
		require.NoError(t, err)
		_, err = mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "C") }, WithCallbackID("C"))
		require.NoError(t, err)

		_, err = mux.OnDocument("docs", "d1",
			func(types.DocumentSnapshot) { got = append(got, "new") },
			WithCallbackID("dup"), WithOverwrite())
		require.NoError(t, err)
		require.Equal(t, 3, mux.NumCallbacks(types.KindDocument, "docs/d1"))

		waitDocAttached(t, store, "docs/d1")
		store.pushDocument(t, "docs/d1", types.DocumentSnapshot{ID: "d1"})

		// The replacement keeps the original insertion position.
		require.Equal(t, []string{"A", "new", "C"}, got)
	})
}

func TestOffDocument_NoOpRemoval(t *testing.T) {
	mux, store := newTestMux(t)

	// Unknown key: nothing happens.
	mux.OffDocument("ghost", "g1", "nope")

	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)
	waitDocAttached(t, store, "docs/d1")

	// Unknown id on an existing key: registry state unchanged.
	mux.OffDocument("docs", "d1", "nonexistent-id")
	require.Equal(t, 1, mux.NumCallbacks(types.KindDocument, "docs/d1"))
	require.Len(t, store.liveDocWatches("docs/d1"), 1)
}

func TestOffDocument_EagerClose(t *testing.T) {
	mux, store := newTestMux(t)

	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)
	_, err = mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("B"))
	require.NoError(t, err)
	waitDocAttached(t, store, "docs/d1")

	// Removing one of two callbacks keeps the watch open.
	mux.OffDocument("docs", "d1", "A")
	require.Len(t, store.liveDocWatches("docs/d1"), 1)

	// Removing the last closes it in the same step, no grace period.
	mux.OffDocument("docs", "d1", "B")
	require.Empty(t, store.liveDocWatches("docs/d1"))
	require.Empty(t, mux.ActiveKeys(types.KindDocument))
}

func TestScenario_TwoObserversOnMember(t *testing.T) {
	mux, store := newTestMux(t)

	key := "teams/t1/members/u1"

	var got []string
	_, err := mux.OnDocument("teams/t1/members", "u1",
		func(snap types.DocumentSnapshot) { got = append(got, "A:"+fmt.Sprint(snap.Revision)) },
		WithCallbackID("A"))
	require.NoError(t, err)
	_, err = mux.OnDocument("teams/t1/members", "u1",
		func(snap types.DocumentSnapshot) { got = append(got, "B:"+fmt.Sprint(snap.Revision)) },
		WithCallbackID("B"))
	require.NoError(t, err)
	waitDocAttached(t, store, key)

	store.pushDocument(t, key, types.DocumentSnapshot{ID: "u1", Revision: 1})
	require.Equal(t, []string{"A:1", "B:1"}, got)

	mux.OffDocument("teams/t1/members", "u1", "A")
	store.pushDocument(t, key, types.DocumentSnapshot{ID: "u1", Revision: 2})
	require.Equal(t, []string{"A:1", "B:1", "B:2"}, got)
	require.Len(t, store.liveDocWatches(key), 1, "watch must stay open while B remains")

	mux.OffDocument("teams/t1/members", "u1", "B")
	require.Empty(t, store.liveDocWatches(key))
	require.Empty(t, mux.ActiveKeys(types.KindDocument))
}

func TestKeyIsolation_DocumentVsCollection(t *testing.T) {
	mux, store := newTestMux(t)

	// Document key "teams/t1" and collection key "teams/t1" are textually
	// identical but live in disjoint registries.
	var docGot, collGot int
	_, err := mux.OnDocument("teams", "t1",
		func(types.DocumentSnapshot) { docGot++ }, WithCallbackID("cb"))
	require.NoError(t, err)
	_, err = mux.OnCollection("teams/t1",
		func(types.CollectionSnapshot) { collGot++ }, WithCallbackID("cb"))
	require.NoError(t, err)

	waitDocAttached(t, store, "teams/t1")
	waitCollAttached(t, store, "teams/t1")

	// Removing the document callback must not touch the collection entry.
	mux.OffDocument("teams", "t1", "cb")
	require.Empty(t, store.liveDocWatches("teams/t1"))
	require.Len(t, store.liveCollWatches("teams/t1"), 1)

	store.pushCollection(t, "teams/t1", types.CollectionSnapshot{Collection: "teams/t1"})
	require.Zero(t, docGot)
	require.Equal(t, 1, collGot)
}

func TestOnCollection_FanOut(t *testing.T) {
	mux, store := newTestMux(t)

	var sizes []int
	_, err := mux.OnCollection("sessions", func(snap types.CollectionSnapshot) {
		sizes = append(sizes, snap.Len())
	}, WithCallbackID("A"))
	require.NoError(t, err)
	waitCollAttached(t, store, "sessions")

	store.pushCollection(t, "sessions", types.CollectionSnapshot{Collection: "sessions"})
	store.pushCollection(t, "sessions", types.CollectionSnapshot{
		Collection: "sessions",
		Documents:  []types.DocumentSnapshot{{Collection: "sessions", ID: "s1"}},
	})
	require.Equal(t, []int{0, 1}, sizes)

	mux.OffCollection("sessions", "A")
	require.Empty(t, store.liveCollWatches("sessions"))
}

func TestAsyncAttach_UnregisterWhileOpenInFlight(t *testing.T) {
	mux, store := newTestMux(t)

	block := make(chan struct{})
	store.mu.Lock()
	store.blockOpen = block
	store.mu.Unlock()

	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)

	// The last callback disappears before the open completes. The late
	// handle must be stopped the moment it arrives.
	mux.OffDocument("docs", "d1", "A")
	require.Empty(t, mux.ActiveKeys(types.KindDocument))

	close(block)

	require.Eventually(t, func() bool {
		return store.docOpenCount("docs/d1") == 1 && len(store.liveDocWatches("docs/d1")) == 0
	}, time.Second, 2*time.Millisecond, "stale handle was not stopped")
}

func TestAsyncAttach_RemoveThenReRegister(t *testing.T) {
	mux, store := newTestMux(t)

	block := make(chan struct{})
	store.mu.Lock()
	store.blockOpen = block
	store.mu.Unlock()

	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)
	mux.OffDocument("docs", "d1", "A")

	// A fresh entry for the same key while the first open is still in flight.
	_, err = mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("B"))
	require.NoError(t, err)

	close(block)

	// Both opens complete; only the second entry's watch may stay live.
	require.Eventually(t, func() bool {
		return store.docOpenCount("docs/d1") == 2 && len(store.liveDocWatches("docs/d1")) == 1
	}, time.Second, 2*time.Millisecond)
	require.Equal(t, 1, mux.NumCallbacks(types.KindDocument, "docs/d1"))
}

func TestOpenFailure_TearsDownEntry(t *testing.T) {
	store := newFakeStore()
	store.failOpen = errors.New("permission denied")

	var (
		failMu   sync.Mutex
		failures []string
	)
	hooks := &Hooks{
		OnWatchFailure: func(_ context.Context, kind types.WatchKind, key string, err error) error {
			failMu.Lock()
			defer failMu.Unlock()
			failures = append(failures, fmt.Sprintf("%s:%s:%v", kind, key, err))

			return nil
		},
	}

	mux, err := New(&Config{}, store, WithHooks(hooks))
	require.NoError(t, err)
	defer mux.Close()

	_, err = mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(mux.ActiveKeys(types.KindDocument)) == 0
	}, time.Second, 2*time.Millisecond, "entry must be torn down when the open fails")

	require.Eventually(t, func() bool {
		failMu.Lock()
		defer failMu.Unlock()

		return len(failures) == 1 && failures[0] == "document:docs/d1:permission denied"
	}, time.Second, 2*time.Millisecond)

	// The key is usable again once the store recovers.
	store.mu.Lock()
	store.failOpen = nil
	store.mu.Unlock()

	_, err = mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)
	waitDocAttached(t, store, "docs/d1")
}

func TestWatchFailure_TearsDownEntry(t *testing.T) {
	var (
		failMu sync.Mutex
		failed []string
	)
	hooks := &Hooks{
		OnWatchFailure: func(_ context.Context, kind types.WatchKind, key string, err error) error {
			failMu.Lock()
			defer failMu.Unlock()
			failed = append(failed, key)

			return nil
		},
	}

	mux, store := newTestMux(t, WithHooks(hooks))

	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)
	waitDocAttached(t, store, "docs/d1")

	store.failDocument(t, "docs/d1", errors.New("stream deleted"))

	require.Empty(t, mux.ActiveKeys(types.KindDocument))
	require.Empty(t, store.liveDocWatches("docs/d1"))

	require.Eventually(t, func() bool {
		failMu.Lock()
		defer failMu.Unlock()

		return len(failed) == 1 && failed[0] == "docs/d1"
	}, time.Second, 2*time.Millisecond)
}

func TestClose(t *testing.T) {
	mux, store := newTestMux(t)

	_, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {}, WithCallbackID("A"))
	require.NoError(t, err)
	_, err = mux.OnCollection("sessions", func(types.CollectionSnapshot) {}, WithCallbackID("B"))
	require.NoError(t, err)
	waitDocAttached(t, store, "docs/d1")
	waitCollAttached(t, store, "sessions")

	require.NoError(t, mux.Close())

	require.Empty(t, store.liveDocWatches("docs/d1"))
	require.Empty(t, store.liveCollWatches("sessions"))

	_, err = mux.OnDocument("docs", "d2", func(types.DocumentSnapshot) {})
	require.ErrorIs(t, err, ErrClosed)
	_, err = mux.OnCollection("sessions", func(types.CollectionSnapshot) {})
	require.ErrorIs(t, err, ErrClosed)

	// Removal on a closed Mux stays a no-op; Close stays idempotent.
	mux.OffDocument("docs", "d1", "A")
	require.NoError(t, mux.Close())
}

func TestWithIDGenerator(t *testing.T) {
	var n int
	mux, _ := newTestMux(t, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("fixed-%d", n)
	}))

	id1, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {})
	require.NoError(t, err)
	id2, err := mux.OnDocument("docs", "d1", func(types.DocumentSnapshot) {})
	require.NoError(t, err)

	require.Equal(t, "fixed-1", id1)
	require.Equal(t, "fixed-2", id2)
}

func TestCallbackIDReusableAcrossKeys(t *testing.T) {
	mux, store := newTestMux(t)

	var got []string
	_, err := mux.OnDocument("docs", "d1",
		func(types.DocumentSnapshot) { got = append(got, "d1") }, WithCallbackID("shared"))
	require.NoError(t, err)
	_, err = mux.OnDocument("docs", "d2",
		func(types.DocumentSnapshot) { got = append(got, "d2") }, WithCallbackID("shared"))
	require.NoError(t, err)

	waitDocAttached(t, store, "docs/d1")
	waitDocAttached(t, store, "docs/d2")
	require.Equal(t, 1, mux.NumCallbacks(types.KindDocument, "docs/d1"))
	require.Equal(t, 1, mux.NumCallbacks(types.KindDocument, "docs/d2"))

	// Removing under one key leaves the other untouched.
	mux.OffDocument("docs", "d1", "shared")
	require.Empty(t, store.liveDocWatches("docs/d1"))
	require.Len(t, store.liveDocWatches("docs/d2"), 1)
}
