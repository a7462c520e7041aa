package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// trajectory loading and fusion pipeline.
type Metrics struct {
	PointsMaterialized prometheus.Counter
	ChunksLoaded       prometheus.Counter

	// Schema cache metrics.
	SchemaCacheHits     prometheus.Counter
	SchemaCacheMisses   prometheus.Counter
	SchemaCacheRebuilds prometheus.Counter

	// Header-inference metrics.
	InferenceRequests *prometheus.CounterVec // labels: outcome={success,error}
	InferenceCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Fusion metrics.
	SamplesInterpolated prometheus.Counter
	InterpolationMisses prometheus.Counter
	FusionDuration      prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PointsMaterialized,
		m.ChunksLoaded,
		m.SchemaCacheHits,
		m.SchemaCacheMisses,
		m.SchemaCacheRebuilds,
		m.InferenceRequests,
		m.InferenceCache,
		m.SamplesInterpolated,
		m.InterpolationMisses,
		m.FusionDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PointsMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "points_materialized_total",
			Help:      "Total trajectory points built from backing chunks.",
		}),
		ChunksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "chunks_loaded_total",
			Help:      "Total tabular source chunks opened.",
		}),
		SchemaCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "schema_cache_hits_total",
			Help:      "Schema cache lookups answered from the persisted document.",
		}),
		SchemaCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "schema_cache_misses_total",
			Help:      "Schema cache lookups that required a rebuild.",
		}),
		SchemaCacheRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "schema_cache_rebuilds_total",
			Help:      "Schema documents re-derived and persisted.",
		}),
		InferenceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "inference_requests_total",
			Help:      "Header-inference API requests by outcome.",
		}, []string{"outcome"}),
		InferenceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "inference_cache_total",
			Help:      "Header-inference cache lookups by result.",
		}, []string{"result"}),
		SamplesInterpolated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "samples_interpolated_total",
			Help:      "Total per-point grid interpolations performed.",
		}),
		InterpolationMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackviz",
			Name:      "interpolation_misses_total",
			Help:      "Interpolations outside the grid's spatial or temporal extent.",
		}),
		FusionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trackviz",
			Name:      "fusion_duration_seconds",
			Help:      "Duration of a complete field-import pass over a trajectory.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
