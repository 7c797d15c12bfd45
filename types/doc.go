// Package types provides core type definitions and interfaces for the watchmux library.
//
// This package contains shared types that are used across multiple packages in the
// watchmux library. By keeping these types in a separate package, we avoid import
// cycles between the main watchmux package and its internal implementations.
//
// Key types:
//   - Store: Remote document store contract consumed by the Mux
//   - WatchHandle: Ownership of a single live watch
//   - DocumentSnapshot, CollectionSnapshot: Typed snapshot payloads
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
//   - Hooks: Watch lifecycle callbacks
package types
