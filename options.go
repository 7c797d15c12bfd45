package watchmux

import "github.com/calyptra/watchmux/types"

// Option configures a Mux with optional dependencies.
type Option func(*muxOptions)

// muxOptions holds optional Mux configuration.
type muxOptions struct {
	hooks   *types.Hooks
	metrics types.MetricsCollector
	logger  types.Logger
	idGen   func() string
}

// WithHooks sets watch lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions (nil fields are no-ops)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	hooks := &watchmux.Hooks{
//	    OnWatchFailure: func(ctx context.Context, kind watchmux.WatchKind, key string, err error) error {
//	        alert(kind, key, err)
//	        return nil
//	    },
//	}
//	mux, err := watchmux.New(&cfg, store, watchmux.WithHooks(hooks))
func WithHooks(hooks *types.Hooks) Option {
	return func(o *muxOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "myapp")
//	mux, err := watchmux.New(&cfg, store, watchmux.WithMetrics(collector))
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *muxOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	mux, err := watchmux.New(&cfg, store, watchmux.WithLogger(logger))
func WithLogger(logger types.Logger) Option {
	return func(o *muxOptions) {
		o.logger = logger
	}
}

// WithIDGenerator sets the generator used for callback ids when the caller
// does not supply one. The generator must return process-unique strings and
// be safe for concurrent use.
//
// Mainly useful for deterministic ids in tests.
func WithIDGenerator(gen func() string) Option {
	return func(o *muxOptions) {
		o.idGen = gen
	}
}

// RegisterOption configures a single callback registration.
type RegisterOption func(*registerOptions)

// registerOptions holds per-registration settings.
type registerOptions struct {
	id        string
	overwrite bool
}

// WithCallbackID supplies the callback id instead of generating one.
//
// The id only needs to be unique among callbacks registered under the same
// resource key; the same id may be reused across different keys. When the id
// already exists under the key, collision policy is controlled by
// WithOverwrite: without it the existing registration is kept untouched.
func WithCallbackID(id string) RegisterOption {
	return func(o *registerOptions) {
		o.id = id
	}
}

// WithOverwrite makes a registration replace an existing callback with the
// same id instead of leaving it untouched. The replaced callback keeps its
// original position in dispatch order.
func WithOverwrite() RegisterOption {
	return func(o *registerOptions) {
		o.overwrite = true
	}
}
