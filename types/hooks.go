package types

import "context"

// Hooks defines callbacks for watch lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking registration, removal, or snapshot dispatch. Hooks
// receive the Mux's lifecycle context, which is cancelled during Close.
//
// IMPORTANT: Hook execution behavior:
//   - Hooks run concurrently and may not complete before Close() returns
//   - The context passed to hooks is cancelled when the Mux closes
//   - Hook errors are logged but never fail Mux operations
//
// Best practices for hook implementation:
//   - Complete quickly (< 1 second recommended)
//   - Respect context cancellation
//   - Make hooks idempotent (a watch may open and close many times per key)
type Hooks struct {
	// OnWatchOpened is called after a live watch has been established for
	// a resource key.
	OnWatchOpened func(ctx context.Context, kind WatchKind, key string) error

	// OnWatchClosed is called after a live watch has been closed because
	// its last callback was removed or the Mux was closed.
	OnWatchClosed func(ctx context.Context, kind WatchKind, key string) error

	// OnWatchFailure is called when an open watch fails asynchronously.
	// The entry for the key has already been torn down when this fires;
	// the error is the store's, unwrapped.
	OnWatchFailure func(ctx context.Context, kind WatchKind, key string, err error) error
}
