package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods may be called from snapshot delivery goroutines and must be
// thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	WatchMetrics
	DispatchMetrics
}

// WatchMetrics defines metrics for live watch lifecycle.
type WatchMetrics interface {
	// RecordWatchOpened records that a live watch was established for a key.
	RecordWatchOpened(kind WatchKind)

	// RecordWatchClosed records that a live watch was closed after its last
	// callback was removed.
	RecordWatchClosed(kind WatchKind)

	// RecordWatchFailure records an asynchronous watch failure reported by
	// the remote store.
	RecordWatchFailure(kind WatchKind)

	// SetActiveWatches sets the current number of open live watches
	// (gauge metric).
	//
	// Parameters:
	//   - kind: Watch kind ("document" or "collection")
	//   - count: Current number of open watches of that kind
	SetActiveWatches(kind WatchKind, count int)
}

// DispatchMetrics defines metrics for callback registration and snapshot fan-out.
type DispatchMetrics interface {
	// RecordCallbackRegistered records a successful callback registration.
	RecordCallbackRegistered(kind WatchKind)

	// RecordCallbackUnregistered records a callback removal that actually
	// removed a registration (no-op removals are not recorded).
	RecordCallbackUnregistered(kind WatchKind)

	// RecordFanout records one snapshot delivery fanned out to callbacks.
	//
	// Parameters:
	//   - kind: Watch kind the snapshot belongs to
	//   - callbacks: Number of callbacks invoked for this snapshot
	RecordFanout(kind WatchKind, callbacks int)

	// ObserveDispatchDuration records the total time spent invoking all
	// callbacks for one snapshot, in seconds.
	ObserveDispatchDuration(kind WatchKind, seconds float64)
}
