package metrics

import "github.com/calyptra/watchmux/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	metrics := metrics.NewNop()
//	mux, err := watchmux.New(&cfg, store, watchmux.WithMetrics(metrics))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// WatchMetrics implementation

// RecordWatchOpened discards the watch opened metric.
func (n *NopMetrics) RecordWatchOpened(_ /* kind */ types.WatchKind) {
	// No-op
}

// RecordWatchClosed discards the watch closed metric.
func (n *NopMetrics) RecordWatchClosed(_ /* kind */ types.WatchKind) {
	// No-op
}

// RecordWatchFailure discards the watch failure metric.
func (n *NopMetrics) RecordWatchFailure(_ /* kind */ types.WatchKind) {
	// No-op
}

// SetActiveWatches discards the active watches gauge.
func (n *NopMetrics) SetActiveWatches(_ /* kind */ types.WatchKind, _ /* count */ int) {
	// No-op
}

// DispatchMetrics implementation

// RecordCallbackRegistered discards the callback registration metric.
func (n *NopMetrics) RecordCallbackRegistered(_ /* kind */ types.WatchKind) {
	// No-op
}

// RecordCallbackUnregistered discards the callback removal metric.
func (n *NopMetrics) RecordCallbackUnregistered(_ /* kind */ types.WatchKind) {
	// No-op
}

// RecordFanout discards the fan-out metric.
func (n *NopMetrics) RecordFanout(_ /* kind */ types.WatchKind, _ /* callbacks */ int) {
	// No-op
}

// ObserveDispatchDuration discards the dispatch duration metric.
func (n *NopMetrics) ObserveDispatchDuration(_ /* kind */ types.WatchKind, _ /* seconds */ float64) {
	// No-op
}
