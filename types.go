package watchmux

import "github.com/calyptra/watchmux/types"

// Re-export types from the internal types package.
//
// This file provides a stable, backward-compatible public API for the library's
// core types and interfaces. It uses type aliases to re-export definitions
// from the `types` subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal packages
// to depend on `types` without depending on the root `watchmux` package, while
// still providing a convenient `watchmux.Store`, `watchmux.Logger`, etc. for users.
type (
	WatchKind          = types.WatchKind
	DocumentSnapshot   = types.DocumentSnapshot
	CollectionSnapshot = types.CollectionSnapshot
	DocumentCallback   = types.DocumentCallback
	CollectionCallback = types.CollectionCallback
)

// Re-export interfaces from the internal types package for convenience.
type (
	Store            = types.Store
	WatchHandle      = types.WatchHandle
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export WatchKind constants from the internal types package.
const (
	KindDocument   = types.KindDocument
	KindCollection = types.KindCollection
)
