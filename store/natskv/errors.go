package natskv

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Sentinel errors returned by the store.
var (
	// ErrBucketRequired is returned when no bucket name is configured.
	ErrBucketRequired = errors.New("KV bucket name is required")

	// ErrInvalidResourcePath is returned when a collection path or document
	// id cannot be mapped onto the KV key space.
	ErrInvalidResourcePath = errors.New("invalid resource path")

	// ErrWatchTerminated is reported through the watch error callback when
	// the underlying KV watcher ends without Stop being called.
	ErrWatchTerminated = errors.New("watch terminated unexpectedly")
)

// IsConnectivityError checks if an error is caused by connectivity issues.
//
// This includes NATS timeouts, connection refused, disconnections, etc.
// Bucket provisioning retries only on these; application-level errors fail
// immediately.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	// Check for known connectivity error types
	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}
