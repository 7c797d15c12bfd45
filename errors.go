package watchmux

import "errors"

// Sentinel errors returned by the Mux.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreRequired is returned when the remote store is nil.
	ErrStoreRequired = errors.New("remote store is required")

	// ErrNilCallback is returned when a nil callback is registered.
	ErrNilCallback = errors.New("callback must not be nil")

	// ErrClosed is returned when registering on a closed Mux.
	ErrClosed = errors.New("mux is closed")
)
