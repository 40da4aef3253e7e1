package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) init() {
	r.TranslateTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftl_translate_total",
			Help: "Total number of host translate() calls by event type.",
		},
		[]string{"op"},
	)

	r.TranslateDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ftl_translate_duration_seconds",
			Help:    "Time spent inside translate(), including any triggered GC.",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"op"},
	)

	r.TranslateFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftl_translate_failures_total",
			Help: "Total number of translate() calls that returned an error, by kind.",
		},
		[]string{"kind"},
	)

	r.EraseTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ftl_erase_total",
			Help: "Total number of physical block erases issued.",
		},
	)

	r.WearSpread = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ftl_wear_spread",
			Help: "max(erase_count) - min(erase_count) across all physical blocks.",
		},
	)

	r.BlocksAtEraseCap = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ftl_blocks_at_erase_cap",
			Help: "Number of physical blocks whose erase count has reached BLOCK_ERASES.",
		},
	)

	r.GCCleanTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ftl_gc_clean_total",
			Help: "Total number of completed three-block clean/merge cycles.",
		},
	)

	r.GCRemapTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftl_gc_remap_total",
			Help: "Total number of completed remaps, by kind (data or log).",
		},
		[]string{"kind"},
	)

	r.GCShuffleTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ftl_gc_shuffle_total",
			Help: "Total number of completed wear-balancing shuffles.",
		},
	)

	r.GCFailureTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftl_gc_failure_total",
			Help: "Total number of garbage-collection operations that failed, by op.",
		},
		[]string{"op"},
	)

	r.PoolFreeBlocks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ftl_pool_free_blocks",
			Help: "Current number of blocks in the over-provisioning free pool.",
		},
	)
}

// RecordTranslate records the outcome of one translate() call.
func (r *Registry) RecordTranslate(op string, duration time.Duration, failKind string) {
	r.TranslateTotal.WithLabelValues(op).Inc()
	r.TranslateDuration.WithLabelValues(op).Observe(duration.Seconds())
	if failKind != "" {
		r.TranslateFailuresTotal.WithLabelValues(failKind).Inc()
	}
}

// RecordErase records one physical block erase.
func (r *Registry) RecordErase() {
	r.EraseTotal.Inc()
}

// RecordClean records a completed clean/merge cycle.
func (r *Registry) RecordClean() {
	r.GCCleanTotal.Inc()
}

// RecordRemap records a completed remap, by kind ("data" or "log").
func (r *Registry) RecordRemap(kind string) {
	r.GCRemapTotal.WithLabelValues(kind).Inc()
}

// RecordShuffle records a completed wear-balancing shuffle.
func (r *Registry) RecordShuffle() {
	r.GCShuffleTotal.Inc()
}

// RecordGCFailure records a failed garbage-collection operation, by op name.
func (r *Registry) RecordGCFailure(op string) {
	r.GCFailureTotal.WithLabelValues(op).Inc()
}

// SetWearSpread updates the wear-spread gauge.
func (r *Registry) SetWearSpread(spread uint32) {
	r.WearSpread.Set(float64(spread))
}

// SetBlocksAtEraseCap updates the blocks-at-cap gauge.
func (r *Registry) SetBlocksAtEraseCap(n int) {
	r.BlocksAtEraseCap.Set(float64(n))
}

// SetPoolFreeBlocks updates the free-pool occupancy gauge.
func (r *Registry) SetPoolFreeBlocks(n int) {
	r.PoolFreeBlocks.Set(float64(n))
}
