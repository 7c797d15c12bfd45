package natskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/calyptra/watchmux/internal/logger"
	"github.com/calyptra/watchmux/types"
)

// Config configures the KV-backed store.
type Config struct {
	// Bucket is the KV bucket name holding all documents. Required.
	Bucket string `yaml:"bucket"`

	// Description is an optional bucket description, applied on creation.
	Description string `yaml:"description"`

	// TTL is an optional expiry for document entries (0 = no expiration).
	TTL time.Duration `yaml:"ttl"`

	// Storage selects the bucket storage backend (file by default).
	Storage jetstream.StorageType `yaml:"storage"`

	// Replicas is the bucket replica count (defaults to 1).
	Replicas int `yaml:"replicas"`

	// MaxRetries bounds bucket provisioning attempts on connectivity
	// errors (defaults to 3).
	MaxRetries int `yaml:"maxRetries"`
}

// Option configures a Store with optional dependencies.
type Option func(*storeOptions)

type storeOptions struct {
	logger types.Logger
}

// WithLogger sets a logger for watch lifecycle events.
func WithLogger(l types.Logger) Option {
	return func(o *storeOptions) {
		o.logger = l
	}
}

// Store implements the watchmux remote-store contract over a NATS JetStream
// KeyValue bucket. It also exposes the direct document operations (get, put,
// delete, list) that live outside the watch contract.
type Store struct {
	kv     jetstream.KeyValue
	logger types.Logger
}

// Compile-time assertion that Store implements the store contract.
var _ types.Store = (*Store)(nil)

// New creates a Store, provisioning the configured bucket if it does not
// exist yet. Provisioning retries with backoff on connectivity errors and
// tolerates concurrent creation by other processes.
//
// Parameters:
//   - ctx: Context for bucket provisioning
//   - js: JetStream context
//   - cfg: Store configuration
//   - opts: Optional dependencies (logger)
//
// Returns:
//   - *Store: Initialized store
//   - error: Provisioning or configuration error
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	store, err := natskv.New(ctx, js, natskv.Config{Bucket: "documents"})
func New(ctx context.Context, js jetstream.JetStream, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	replicas := cfg.Replicas
	if replicas == 0 {
		replicas = 1
	}

	kv, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: cfg.Description,
		TTL:         cfg.TTL,
		Storage:     cfg.Storage,
		Replicas:    replicas,
	}, cfg.MaxRetries)
	if err != nil {
		return nil, err
	}

	return FromKeyValue(kv, opts...), nil
}

// FromKeyValue wraps an already-provisioned KV bucket in a Store.
func FromKeyValue(kv jetstream.KeyValue, opts ...Option) *Store {
	options := &storeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	log := options.logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Store{kv: kv, logger: log}
}

// WatchDocument opens a continuous watch on a single document.
//
// The first delivery reflects the document's current state; a missing
// document delivers a tombstone snapshot (Deleted=true, Revision=0) so
// observers always receive a well-defined initial state. Every later change
// to the document, including deletion, produces one delivery.
func (s *Store) WatchDocument(ctx context.Context, collection, docID string,
	onSnapshot types.DocumentCallback, onError types.WatchErrorCallback,
) (types.WatchHandle, error) {
	subject, err := documentSubject(collection, docID)
	if err != nil {
		return nil, err
	}

	watcher, err := s.kv.Watch(ctx, subject)
	if err != nil {
		return nil, err
	}

	h := &watchHandle{watcher: watcher}
	go s.pumpDocument(collection, docID, h, onSnapshot, onError)

	s.logger.Debug("document watch started", "collection", collection, "id", docID)

	return h, nil
}

// WatchCollection opens a continuous watch on a collection's result set.
//
// The first delivery is the collection's current (possibly empty) set.
// Afterwards every put or delete of a direct document in the collection
// delivers the full updated set. Documents of nested sub-collections are
// not part of the set.
func (s *Store) WatchCollection(ctx context.Context, collection string,
	onSnapshot types.CollectionCallback, onError types.WatchErrorCallback,
) (types.WatchHandle, error) {
	prefix, err := collectionSubjectPrefix(collection)
	if err != nil {
		return nil, err
	}

	watcher, err := s.kv.Watch(ctx, prefix+".*")
	if err != nil {
		return nil, err
	}

	h := &watchHandle{watcher: watcher}
	go s.pumpCollection(collection, prefix+".", h, onSnapshot, onError)

	s.logger.Debug("collection watch started", "collection", collection)

	return h, nil
}

// GetDocument fetches the current state of a single document.
//
// A missing document is not an error: the returned snapshot carries
// Deleted=true and Revision=0.
func (s *Store) GetDocument(ctx context.Context, collection, docID string) (types.DocumentSnapshot, error) {
	subject, err := documentSubject(collection, docID)
	if err != nil {
		return types.DocumentSnapshot{}, err
	}

	entry, err := s.kv.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return tombstone(collection, docID), nil
		}

		return types.DocumentSnapshot{}, err
	}

	return entryToSnapshot(collection, docID, entry), nil
}

// PutDocument writes a document's payload and returns the new revision.
func (s *Store) PutDocument(ctx context.Context, collection, docID string, data []byte) (uint64, error) {
	subject, err := documentSubject(collection, docID)
	if err != nil {
		return 0, err
	}

	return s.kv.Put(ctx, subject, data)
}

// DeleteDocument removes a document. Watches on the document observe a
// tombstone snapshot; collection watches observe the shrunken set.
func (s *Store) DeleteDocument(ctx context.Context, collection, docID string) error {
	subject, err := documentSubject(collection, docID)
	if err != nil {
		return err
	}

	return s.kv.Delete(ctx, subject)
}

// ListDocuments fetches the current result set of a collection.
//
// An empty collection yields an empty snapshot, not an error. Documents
// are sorted by ID.
func (s *Store) ListDocuments(ctx context.Context, collection string) (types.CollectionSnapshot, error) {
	prefix, err := collectionSubjectPrefix(collection)
	if err != nil {
		return types.CollectionSnapshot{}, err
	}

	snap := types.CollectionSnapshot{Collection: collection}

	lister, err := s.kv.ListKeysFiltered(ctx, prefix+".*")
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return snap, nil
		}

		return types.CollectionSnapshot{}, err
	}

	for key := range lister.Keys() {
		docID := strings.TrimPrefix(key, prefix+".")
		doc, err := s.GetDocument(ctx, collection, docID)
		if err != nil {
			return types.CollectionSnapshot{}, fmt.Errorf("failed to fetch document %s: %w", key, err)
		}
		if doc.Deleted {
			// Key existed when listed but was deleted before the fetch.
			continue
		}
		snap.Documents = append(snap.Documents, doc)
	}

	sort.Slice(snap.Documents, func(i, j int) bool {
		return snap.Documents[i].ID < snap.Documents[j].ID
	})

	return snap, nil
}

// pumpDocument converts KV watcher updates into document snapshots.
//
// Runs on its own goroutine, one per watch, so deliveries are serialized in
// arrival order. Ends when the watcher's update channel closes; if that
// happens without Stop having been called, the termination is reported
// through onError.
func (s *Store) pumpDocument(collection, docID string, h *watchHandle,
	onSnapshot types.DocumentCallback, onError types.WatchErrorCallback,
) {
	sawInitial := false

	for entry := range h.watcher.Updates() {
		if entry == nil {
			// End-of-initial-values marker. A watch on a missing document
			// still owes the observer a first state.
			if !sawInitial {
				sawInitial = true
				onSnapshot(tombstone(collection, docID))
			}

			continue
		}

		sawInitial = true
		onSnapshot(entryToSnapshot(collection, docID, entry))
	}

	if !h.stopped.Load() {
		s.logger.Error("document watch terminated", "collection", collection, "id", docID)
		onError(ErrWatchTerminated)
	}
}

// pumpCollection folds KV watcher updates into full result-set snapshots.
//
// The current set is accumulated from the initial values; the first
// snapshot is emitted at the end-of-initial-values marker and one snapshot
// per subsequent change after that.
func (s *Store) pumpCollection(collection, keyPrefix string, h *watchHandle,
	onSnapshot types.CollectionCallback, onError types.WatchErrorCallback,
) {
	current := make(map[string]types.DocumentSnapshot)
	initialDone := false

	for entry := range h.watcher.Updates() {
		if entry == nil {
			initialDone = true
			onSnapshot(collectionSnapshot(collection, current))

			continue
		}

		docID := strings.TrimPrefix(entry.Key(), keyPrefix)
		if entry.Operation() == jetstream.KeyValuePut {
			current[docID] = entryToSnapshot(collection, docID, entry)
		} else {
			delete(current, docID)
		}

		if initialDone {
			onSnapshot(collectionSnapshot(collection, current))
		}
	}

	if !h.stopped.Load() {
		s.logger.Error("collection watch terminated", "collection", collection)
		onError(ErrWatchTerminated)
	}
}

// watchHandle owns one KV watcher. Stopping is idempotent; the stopped flag
// lets the pump distinguish deliberate stops from unexpected termination.
type watchHandle struct {
	watcher jetstream.KeyWatcher
	stopped atomic.Bool
}

// Stop closes the watch. Safe to call more than once.
func (h *watchHandle) Stop() error {
	if !h.stopped.CompareAndSwap(false, true) {
		return nil
	}

	return h.watcher.Stop()
}

// documentSubject maps a collection path and document id onto a KV key.
func documentSubject(collection, docID string) (string, error) {
	prefix, err := collectionSubjectPrefix(collection)
	if err != nil {
		return "", err
	}
	if docID == "" || strings.ContainsAny(docID, "./") {
		return "", fmt.Errorf("%w: document id %q must be non-empty and free of '.' and '/'", ErrInvalidResourcePath, docID)
	}

	return prefix + "." + docID, nil
}

// collectionSubjectPrefix maps a collection path onto its KV key prefix by
// turning path separators into subject tokens.
func collectionSubjectPrefix(collection string) (string, error) {
	if collection == "" || strings.Contains(collection, ".") ||
		strings.HasPrefix(collection, "/") || strings.HasSuffix(collection, "/") {
		return "", fmt.Errorf("%w: collection path %q must be non-empty, free of '.', and not start or end with '/'", ErrInvalidResourcePath, collection)
	}

	return strings.ReplaceAll(collection, "/", "."), nil
}

// entryToSnapshot converts one KV entry into a document snapshot. Delete
// and purge operations become tombstones.
func entryToSnapshot(collection, docID string, entry jetstream.KeyValueEntry) types.DocumentSnapshot {
	snap := types.DocumentSnapshot{
		Collection: collection,
		ID:         docID,
		Revision:   entry.Revision(),
	}

	if entry.Operation() == jetstream.KeyValuePut {
		snap.Data = entry.Value()
	} else {
		snap.Deleted = true
	}

	return snap
}

// tombstone builds the snapshot of a document that does not exist.
func tombstone(collection, docID string) types.DocumentSnapshot {
	return types.DocumentSnapshot{Collection: collection, ID: docID, Deleted: true}
}

// collectionSnapshot builds an ID-sorted snapshot of the current set.
func collectionSnapshot(collection string, current map[string]types.DocumentSnapshot) types.CollectionSnapshot {
	snap := types.CollectionSnapshot{
		Collection: collection,
		Documents:  make([]types.DocumentSnapshot, 0, len(current)),
	}
	for _, doc := range current {
		snap.Documents = append(snap.Documents, doc)
	}
	sort.Slice(snap.Documents, func(i, j int) bool {
		return snap.Documents[i].ID < snap.Documents[j].ID
	})

	return snap
}
