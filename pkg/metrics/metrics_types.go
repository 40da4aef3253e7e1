// Package metrics exposes the FTL's erase, garbage-collection, and
// pool-occupancy counters as a Prometheus registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric the FTL simulator records.
type Registry struct {
	// Translation path
	TranslateTotal         *prometheus.CounterVec
	TranslateDuration      *prometheus.HistogramVec
	TranslateFailuresTotal *prometheus.CounterVec

	// Erase / wear
	EraseTotal      prometheus.Counter
	WearSpread      prometheus.Gauge
	BlocksAtEraseCap prometheus.Gauge

	// Garbage collection
	GCCleanTotal   prometheus.Counter
	GCRemapTotal   *prometheus.CounterVec // kind = "data"|"log"
	GCShuffleTotal prometheus.Counter
	GCFailureTotal *prometheus.CounterVec // op = "clean"|"remap_data"|"remap_log"|"shuffle"

	// Free pool
	PoolFreeBlocks prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry, creating it on first use.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with every FTL metric initialized.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}
	r.init()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry, for
// wiring into an HTTP handler or the TUI poller.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
