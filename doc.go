// Package watchmux multiplexes live watches on a remote document store
// across any number of independent observers.
//
// Any number of callbacks may register interest in a single document or in a
// collection's result set; the Mux guarantees that the underlying store is
// asked to open at most one live watch per distinct resource, opens that
// watch lazily when the first callback arrives, and closes it the moment the
// last callback is removed.
//
// # Quick Start
//
//	store, err := natskv.New(ctx, js, natskv.Config{Bucket: "documents"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mux, err := watchmux.New(&watchmux.Config{}, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mux.Close()
//
//	id, _ := mux.OnDocument("teams/t1/members", "u1", func(snap watchmux.DocumentSnapshot) {
//	    fmt.Printf("member changed: %s\n", snap.Data)
//	})
//	defer mux.OffDocument("teams/t1/members", "u1", id)
//
// # Key Features
//
//   - At most one live store watch per resource, regardless of observer count
//   - Lazy open on first callback, immediate close on last removal
//   - Snapshots fan out to callbacks in registration order
//   - Document and collection keyspaces are fully independent
//   - Pluggable store binding; a NATS JetStream KV binding ships in store/natskv
//
// Registration is non-blocking: the callback is recorded immediately and the
// live watch attaches in the background. If a watch later fails, its entry is
// torn down and the failure is reported through Hooks.OnWatchFailure.
package watchmux
