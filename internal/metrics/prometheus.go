package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calyptra/watchmux/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	watchesOpened    *prometheus.CounterVec
	watchesClosed    *prometheus.CounterVec
	watchFailures    *prometheus.CounterVec
	activeWatches    *prometheus.GaugeVec
	callbacksAdded   *prometheus.CounterVec
	callbacksRemoved *prometheus.CounterVec
	fanoutSize       *prometheus.HistogramVec
	dispatchLatency  *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "watchmux" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "watchmux"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.watchesOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "watch",
			Name:      "opened_total",
			Help:      "Total live watches opened by kind.",
		}, []string{"kind"})

		p.watchesClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "watch",
			Name:      "closed_total",
			Help:      "Total live watches closed after last callback removal by kind.",
		}, []string{"kind"})

		p.watchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "watch",
			Name:      "failures_total",
			Help:      "Total asynchronous watch failures reported by the store by kind.",
		}, []string{"kind"})

		p.activeWatches = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "watch",
			Name:      "active",
			Help:      "Current number of open live watches by kind.",
		}, []string{"kind"})

		p.callbacksAdded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "callbacks_registered_total",
			Help:      "Total callback registrations by kind.",
		}, []string{"kind"})

		p.callbacksRemoved = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "callbacks_unregistered_total",
			Help:      "Total callback removals by kind (no-op removals excluded).",
		}, []string{"kind"})

		p.fanoutSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "fanout_callbacks",
			Help:      "Number of callbacks invoked per snapshot delivery.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		}, []string{"kind"})

		p.dispatchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Total time spent invoking all callbacks for one snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us .. ~0.4s
		}, []string{"kind"})

		p.reg.MustRegister(p.watchesOpened)
		p.reg.MustRegister(p.watchesClosed)
		p.reg.MustRegister(p.watchFailures)
		p.reg.MustRegister(p.activeWatches)
		p.reg.MustRegister(p.callbacksAdded)
		p.reg.MustRegister(p.callbacksRemoved)
		p.reg.MustRegister(p.fanoutSize)
		p.reg.MustRegister(p.dispatchLatency)
	})
}

// WatchMetrics implementation

// RecordWatchOpened increments the opened-watch counter for the given kind.
func (p *PrometheusCollector) RecordWatchOpened(kind types.WatchKind) {
	p.ensureRegistered()
	p.watchesOpened.WithLabelValues(string(kind)).Inc()
}

// RecordWatchClosed increments the closed-watch counter for the given kind.
func (p *PrometheusCollector) RecordWatchClosed(kind types.WatchKind) {
	p.ensureRegistered()
	p.watchesClosed.WithLabelValues(string(kind)).Inc()
}

// RecordWatchFailure increments the watch failure counter for the given kind.
func (p *PrometheusCollector) RecordWatchFailure(kind types.WatchKind) {
	p.ensureRegistered()
	p.watchFailures.WithLabelValues(string(kind)).Inc()
}

// SetActiveWatches sets the active watches gauge for the given kind.
func (p *PrometheusCollector) SetActiveWatches(kind types.WatchKind, count int) {
	p.ensureRegistered()
	p.activeWatches.WithLabelValues(string(kind)).Set(float64(count))
}

// DispatchMetrics implementation

// RecordCallbackRegistered increments the callback registration counter.
func (p *PrometheusCollector) RecordCallbackRegistered(kind types.WatchKind) {
	p.ensureRegistered()
	p.callbacksAdded.WithLabelValues(string(kind)).Inc()
}

// RecordCallbackUnregistered increments the callback removal counter.
func (p *PrometheusCollector) RecordCallbackUnregistered(kind types.WatchKind) {
	p.ensureRegistered()
	p.callbacksRemoved.WithLabelValues(string(kind)).Inc()
}

// RecordFanout observes the fan-out size of one snapshot delivery.
func (p *PrometheusCollector) RecordFanout(kind types.WatchKind, callbacks int) {
	p.ensureRegistered()
	p.fanoutSize.WithLabelValues(string(kind)).Observe(float64(callbacks))
}

// ObserveDispatchDuration observes the dispatch latency of one snapshot delivery.
func (p *PrometheusCollector) ObserveDispatchDuration(kind types.WatchKind, seconds float64) {
	p.ensureRegistered()
	p.dispatchLatency.WithLabelValues(string(kind)).Observe(seconds)
}
