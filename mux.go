package watchmux

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/calyptra/watchmux/internal/callbackid"
	"github.com/calyptra/watchmux/internal/hooks"
	"github.com/calyptra/watchmux/internal/logger"
	"github.com/calyptra/watchmux/internal/metrics"
	"github.com/calyptra/watchmux/types"
)

// callbackSlot pairs a callback id with its function.
//
// Slots are kept in insertion order; snapshot dispatch walks them front to
// back. Overwriting a callback replaces the function in place, keeping the
// slot's position.
type callbackSlot[S any] struct {
	id string
	fn func(S)
}

// watchEntry tracks one live watch and the callbacks registered under its
// resource key.
//
// An entry exists if and only if it has at least one callback. The handle is
// nil while the background open is still in flight; the opener records it
// once the watch is established, or stops it immediately if the entry has
// been removed in the meantime.
type watchEntry[S any] struct {
	handle    types.WatchHandle
	callbacks []callbackSlot[S]
}

// find returns the slot index of id, or -1.
func (e *watchEntry[S]) find(id string) int {
	for i := range e.callbacks {
		if e.callbacks[i].id == id {
			return i
		}
	}

	return -1
}

// registryOf is one keyspace of watch entries. The Mux holds two: one for
// document watches, one for collection watches. Entries are guarded by the
// Mux's mutex; a registry is never accessed without it.
type registryOf[S any] struct {
	entries map[string]*watchEntry[S]
}

// openFunc opens a live watch of one kind against the remote store.
type openFunc[S any] func(ctx context.Context, onSnapshot func(S), onError types.WatchErrorCallback) (types.WatchHandle, error)

// Mux multiplexes observers onto live watches of a remote document store.
//
// The Mux is the sole mediator between observers and the store: for every
// distinct resource it keeps at most one live watch open, fanning each
// incoming snapshot out to all callbacks registered under that resource in
// registration order.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - A single mutex guards both registries, so registration, removal, and
//     dispatch bookkeeping never interleave for the same key
//   - Callbacks are invoked outside the lock and may re-enter the Mux
//
// Lifecycle:
//   - Create with New()
//   - Register observers with OnDocument / OnCollection
//   - Remove them with OffDocument / OffCollection
//   - Call Close() to stop every remaining watch
type Mux struct {
	cfg     Config
	store   types.Store
	hooks   types.Hooks
	metrics types.MetricsCollector
	logger  types.Logger
	genID   func() string

	mu          sync.Mutex
	closed      bool
	documents   registryOf[types.DocumentSnapshot]
	collections registryOf[types.CollectionSnapshot]

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Mux backed by the given remote store.
//
// Returns a concrete *Mux struct following the "accept interfaces, return
// structs" principle. Consumers can define their own interfaces for testing
// if needed.
//
// Parameters:
//   - cfg: Runtime configuration; zero-valued fields receive defaults
//   - store: Remote document store the Mux opens watches against
//   - opts: Optional configuration (hooks, metrics, logger, id generator)
//
// Returns:
//   - *Mux: Initialized multiplexer
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	store, _ := natskv.New(ctx, js, natskv.Config{Bucket: "documents"})
//	mux, err := watchmux.New(&watchmux.Config{}, store)
func New(cfg *Config, store types.Store, opts ...Option) (*Mux, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Apply options
	options := &muxOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	hooksInstance := hooks.NewNop()
	if options.hooks != nil {
		if options.hooks.OnWatchOpened != nil {
			hooksInstance.OnWatchOpened = options.hooks.OnWatchOpened
		}
		if options.hooks.OnWatchClosed != nil {
			hooksInstance.OnWatchClosed = options.hooks.OnWatchClosed
		}
		if options.hooks.OnWatchFailure != nil {
			hooksInstance.OnWatchFailure = options.hooks.OnWatchFailure
		}
	}

	idGen := options.idGen
	if idGen == nil {
		idGen = callbackid.New
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mux{
		cfg:         *cfg,
		store:       store,
		hooks:       hooksInstance,
		metrics:     metricsCollector,
		logger:      loggerInstance,
		genID:       idGen,
		documents:   registryOf[types.DocumentSnapshot]{entries: make(map[string]*watchEntry[types.DocumentSnapshot])},
		collections: registryOf[types.CollectionSnapshot]{entries: make(map[string]*watchEntry[types.CollectionSnapshot])},
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// OnDocument registers a callback for every snapshot of a single document.
//
// The callback is recorded immediately. If this is the first callback for
// the document, a live watch is opened against the store in the background;
// all callbacks registered by the time each snapshot arrives receive it in
// registration order.
//
// Without WithCallbackID a fresh unique id is generated. With a supplied id
// that already exists under this document, the existing callback is kept
// untouched unless WithOverwrite is given; either way the returned id
// addresses the registration that is now active.
//
// Parameters:
//   - collection: Collection path the document belongs to
//   - docID: Document identifier within the collection
//   - fn: Callback invoked with each document snapshot
//   - opts: Per-registration options (WithCallbackID, WithOverwrite)
//
// Returns:
//   - string: The callback id actually used; pass it to OffDocument
//   - error: ErrNilCallback or ErrClosed; never an id-collision error
func (m *Mux) OnDocument(collection, docID string, fn types.DocumentCallback, opts ...RegisterOption) (string, error) {
	key := documentKey(collection, docID)

	return register(m, &m.documents, types.KindDocument, key, fn, opts,
		func(ctx context.Context, onSnapshot func(types.DocumentSnapshot), onError types.WatchErrorCallback) (types.WatchHandle, error) {
			return m.store.WatchDocument(ctx, collection, docID, onSnapshot, onError)
		})
}

// OffDocument removes the callback registered under id for a document.
//
// An unknown id or a document with no registrations is a benign no-op.
// Removing the last callback closes the document's live watch in the same
// step; there is no grace period.
func (m *Mux) OffDocument(collection, docID, id string) {
	unregister(m, &m.documents, types.KindDocument, documentKey(collection, docID), id)
}

// OnCollection registers a callback for every snapshot of a collection's
// result set. Semantics mirror OnDocument; the resource is the collection
// itself and callbacks receive the full current result set on each change.
//
// A collection key never collides with a document key, even when the
// strings are identical: the two keyspaces are disjoint.
func (m *Mux) OnCollection(collection string, fn types.CollectionCallback, opts ...RegisterOption) (string, error) {
	key := collectionKey(collection)

	return register(m, &m.collections, types.KindCollection, key, fn, opts,
		func(ctx context.Context, onSnapshot func(types.CollectionSnapshot), onError types.WatchErrorCallback) (types.WatchHandle, error) {
			return m.store.WatchCollection(ctx, collection, onSnapshot, onError)
		})
}

// OffCollection removes the callback registered under id for a collection.
// Semantics mirror OffDocument.
func (m *Mux) OffCollection(collection, id string) {
	unregister(m, &m.collections, types.KindCollection, collectionKey(collection), id)
}

// ActiveKeys returns the resource keys that currently have at least one
// registered callback for the given kind, sorted lexicographically.
func (m *Mux) ActiveKeys(kind types.WatchKind) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	switch kind {
	case types.KindDocument:
		keys = make([]string, 0, len(m.documents.entries))
		for key := range m.documents.entries {
			keys = append(keys, key)
		}
	case types.KindCollection:
		keys = make([]string, 0, len(m.collections.entries))
		for key := range m.collections.entries {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	return keys
}

// NumCallbacks returns the number of callbacks currently registered under
// the given resource key, or 0 if the key has no entry.
func (m *Mux) NumCallbacks(kind types.WatchKind, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case types.KindDocument:
		if e, ok := m.documents.entries[key]; ok {
			return len(e.callbacks)
		}
	case types.KindCollection:
		if e, ok := m.collections.entries[key]; ok {
			return len(e.callbacks)
		}
	}

	return 0
}

// Close tears down the Mux: every remaining live watch is stopped, both
// registries are cleared, and further registrations return ErrClosed.
//
// Close blocks until in-flight watch establishments have finished. It is
// idempotent; subsequent calls return nil.
//
// Returns:
//   - error: The first error encountered while stopping watches, if any
func (m *Mux) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	docHandles := drain(&m.documents)
	collHandles := drain(&m.collections)
	m.mu.Unlock()

	m.cancel()

	var firstErr error
	for _, h := range docHandles {
		if err := h.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop document watch: %w", err)
		}
	}
	for _, h := range collHandles {
		if err := h.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop collection watch: %w", err)
		}
	}

	m.wg.Wait()

	m.metrics.SetActiveWatches(types.KindDocument, 0)
	m.metrics.SetActiveWatches(types.KindCollection, 0)
	m.logger.Info("mux closed",
		"document_watches", len(docHandles),
		"collection_watches", len(collHandles))

	return firstErr
}

// documentKey builds the resource key for a document, "<collection>/<docID>".
func documentKey(collection, docID string) string {
	return collection + "/" + docID
}

// collectionKey builds the resource key for a collection. It is the
// collection path itself; isolation from document keys comes from the
// disjoint registries, not from the key format.
func collectionKey(collection string) string {
	return collection
}

// register inserts a callback under key, lazily creating the watch entry and
// opening the live watch when the entry is new.
func register[S any](
	m *Mux,
	reg *registryOf[S],
	kind types.WatchKind,
	key string,
	fn func(S),
	opts []RegisterOption,
	open openFunc[S],
) (string, error) {
	if fn == nil {
		return "", ErrNilCallback
	}

	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	id := o.id
	if id == "" {
		id = m.genID()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}

	e, exists := reg.entries[key]
	if !exists {
		e = &watchEntry[S]{}
		reg.entries[key] = e
	}

	if i := e.find(id); i >= 0 {
		if !o.overwrite {
			// Defined non-error outcome: the existing registration wins and
			// the returned id still addresses it.
			m.mu.Unlock()
			m.logger.Debug("callback id already registered, keeping existing",
				"kind", kind, "key", key, "id", id)

			return id, nil
		}
		e.callbacks[i].fn = fn
	} else {
		e.callbacks = append(e.callbacks, callbackSlot[S]{id: id, fn: fn})
	}

	if !exists {
		// First callback for this key: open the single live watch in the
		// background. wg.Add happens under the lock so Close cannot start
		// waiting between the closed check above and the goroutine launch.
		m.wg.Add(1)
	}
	m.mu.Unlock()

	m.metrics.RecordCallbackRegistered(kind)

	if !exists {
		go attachWatch(m, reg, kind, key, e, open)
	}

	return id, nil
}

// attachWatch establishes the live watch for a freshly created entry and
// records the handle into it. Runs on its own goroutine; wg is already
// incremented by the caller.
func attachWatch[S any](
	m *Mux,
	reg *registryOf[S],
	kind types.WatchKind,
	key string,
	e *watchEntry[S],
	open openFunc[S],
) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.OpenTimeout)
	defer cancel()

	handle, err := open(ctx,
		func(snap S) { dispatch(m, reg, kind, key, e, snap) },
		func(err error) { failWatch(m, reg, kind, key, e, err) },
	)

	m.mu.Lock()
	if err != nil {
		if reg.entries[key] == e {
			delete(reg.entries, key)
		}
		m.mu.Unlock()

		m.metrics.RecordWatchFailure(kind)
		m.logger.Error("failed to open watch", "kind", kind, "key", key, "error", err)
		m.notifyWatchFailure(kind, key, err)

		return
	}

	if reg.entries[key] != e {
		// Every callback was removed, or the key was torn down and
		// re-registered, while the open was in flight. The handle must not
		// outlive its entry.
		m.mu.Unlock()
		_ = handle.Stop()

		return
	}

	e.handle = handle
	active := len(reg.entries)
	m.mu.Unlock()

	m.metrics.RecordWatchOpened(kind)
	m.metrics.SetActiveWatches(kind, active)
	m.logger.Debug("watch opened", "kind", kind, "key", key)
	m.runHook("OnWatchOpened", func(ctx context.Context) error {
		return m.hooks.OnWatchOpened(ctx, kind, key)
	})
}

// unregister removes the callback under id for key. Unknown keys and ids are
// no-ops. Removing the last callback deletes the entry and stops the watch.
func unregister[S any](m *Mux, reg *registryOf[S], kind types.WatchKind, key, id string) {
	m.mu.Lock()

	e, ok := reg.entries[key]
	if !ok {
		m.mu.Unlock()
		return
	}

	i := e.find(id)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	e.callbacks = append(e.callbacks[:i], e.callbacks[i+1:]...)

	var handle types.WatchHandle
	last := len(e.callbacks) == 0
	if last {
		delete(reg.entries, key)
		handle = e.handle
	}
	active := len(reg.entries)
	m.mu.Unlock()

	m.metrics.RecordCallbackUnregistered(kind)

	if !last {
		return
	}

	// Last callback removed: the entry is gone and the watch closes now.
	// A nil handle means the open is still in flight; attachWatch stops it
	// the moment it arrives, since the entry no longer matches.
	if handle != nil {
		if err := handle.Stop(); err != nil {
			m.logger.Warn("error stopping watch", "kind", kind, "key", key, "error", err)
		}
		m.metrics.RecordWatchClosed(kind)
		m.metrics.SetActiveWatches(kind, active)
		m.logger.Debug("watch closed", "kind", kind, "key", key)
		m.runHook("OnWatchClosed", func(ctx context.Context) error {
			return m.hooks.OnWatchClosed(ctx, kind, key)
		})
	}
}

// dispatch fans one snapshot out to every callback registered under key.
//
// The id order is captured under the lock, then each callback is re-checked
// for liveness immediately before its invocation: callbacks removed during
// dispatch are skipped, callbacks added during dispatch wait for the next
// snapshot. Invocations themselves run outside the lock so callbacks may
// re-enter the Mux.
func dispatch[S any](m *Mux, reg *registryOf[S], kind types.WatchKind, key string, e *watchEntry[S], snap S) {
	start := time.Now()

	m.mu.Lock()
	if reg.entries[key] != e {
		m.mu.Unlock()
		return
	}
	order := make([]string, len(e.callbacks))
	for i := range e.callbacks {
		order[i] = e.callbacks[i].id
	}
	m.mu.Unlock()

	invoked := 0
	for _, id := range order {
		m.mu.Lock()
		var fn func(S)
		if reg.entries[key] == e {
			if i := e.find(id); i >= 0 {
				fn = e.callbacks[i].fn
			}
		}
		m.mu.Unlock()

		if fn != nil {
			fn(snap)
			invoked++
		}
	}

	m.metrics.RecordFanout(kind, invoked)
	m.metrics.ObserveDispatchDuration(kind, time.Since(start).Seconds())
}

// failWatch implements the watch-failure policy: the entry is torn down,
// its handle stopped, and the failure reported through hooks and metrics.
// Re-registering the key afterwards opens a fresh watch.
func failWatch[S any](m *Mux, reg *registryOf[S], kind types.WatchKind, key string, e *watchEntry[S], err error) {
	m.mu.Lock()
	if reg.entries[key] != e {
		m.mu.Unlock()
		return
	}
	delete(reg.entries, key)
	handle := e.handle
	active := len(reg.entries)
	m.mu.Unlock()

	if handle != nil {
		_ = handle.Stop()
	}

	m.metrics.RecordWatchFailure(kind)
	m.metrics.SetActiveWatches(kind, active)
	m.logger.Error("watch failed, entry torn down", "kind", kind, "key", key, "error", err)
	m.notifyWatchFailure(kind, key, err)
}

// notifyWatchFailure reports a watch failure through the failure hook.
func (m *Mux) notifyWatchFailure(kind types.WatchKind, key string, err error) {
	m.runHook("OnWatchFailure", func(ctx context.Context) error {
		return m.hooks.OnWatchFailure(ctx, kind, key, err)
	})
}

// runHook invokes a lifecycle hook on a background goroutine. Hook errors
// are logged, never propagated; hooks may still be running when Close
// returns.
func (m *Mux) runHook(name string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(m.ctx); err != nil {
			m.logger.Warn("hook returned error", "hook", name, "error", err)
		}
	}()
}

// drain removes every entry from a registry and returns the attached
// handles. Caller must hold m.mu.
func drain[S any](reg *registryOf[S]) []types.WatchHandle {
	handles := make([]types.WatchHandle, 0, len(reg.entries))
	for key, e := range reg.entries {
		if e.handle != nil {
			handles = append(handles, e.handle)
		}
		delete(reg.entries, key)
	}

	return handles
}
