package types

import "context"

// DocumentCallback is invoked with the latest snapshot of a watched document.
type DocumentCallback func(snap DocumentSnapshot)

// CollectionCallback is invoked with the latest result set of a watched collection.
type CollectionCallback func(snap CollectionSnapshot)

// WatchErrorCallback is invoked when an open watch fails asynchronously
// (connection drop, permission revocation, stream deletion). The error is
// passed through from the store unwrapped.
type WatchErrorCallback func(err error)

// WatchHandle owns a single live watch connection to the remote store.
//
// A handle is exclusively owned by whichever component opened it; no other
// component may call Stop. Stop is idempotent.
type WatchHandle interface {
	// Stop closes the live watch. Further snapshot deliveries cease after
	// Stop returns. Stopping an already-stopped handle is a no-op.
	Stop() error
}

// Store is the remote document store contract consumed by the Mux.
//
// A Store must serialize snapshot deliveries per watch: for any single
// handle, onSnapshot is invoked for one snapshot at a time, in arrival
// order, on a single goroutine. Deliveries for different handles may be
// concurrent with each other.
//
// The watch is established before the method returns; ctx bounds only the
// establishment, not the lifetime of the watch. The watch lives until its
// handle is stopped or the store reports a failure through onError. After
// onError fires, no further snapshots are delivered for that handle.
type Store interface {
	// WatchDocument opens a continuous watch on a single document.
	//
	// The first delivery reflects the document's current state, including a
	// Deleted=true snapshot when the document does not exist. Every
	// subsequent change produces one delivery.
	WatchDocument(ctx context.Context, collection, docID string,
		onSnapshot DocumentCallback, onError WatchErrorCallback) (WatchHandle, error)

	// WatchCollection opens a continuous watch on a collection's result set.
	//
	// The first delivery reflects the collection's current (possibly empty)
	// result set. Every subsequent change to any document in the collection
	// produces one delivery of the full updated set.
	WatchCollection(ctx context.Context, collection string,
		onSnapshot CollectionCallback, onError WatchErrorCallback) (WatchHandle, error)
}
