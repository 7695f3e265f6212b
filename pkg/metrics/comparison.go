package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ComparisonMetrics tracks shopping-list comparisons.
type ComparisonMetrics struct {
	duration   prometheus.Histogram
	candidates prometheus.Histogram
	dropped    prometheus.Counter
	outcomes   *prometheus.CounterVec
	cache      *prometheus.CounterVec
}

// NewComparisonMetrics registers comparison metrics on reg. A nil registerer yields no-op metrics.
func NewComparisonMetrics(reg prometheus.Registerer) *ComparisonMetrics {
	if reg == nil {
		return &ComparisonMetrics{}
	}
	m := &ComparisonMetrics{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "duration_seconds",
			Help:      "Wall time of a full shopping-list comparison.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "candidate_stores",
			Help:      "Stores within the requested distance per comparison.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "dropped_stores_total",
			Help:      "Stores excluded from a result because their price lookups failed or timed out.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "requests_total",
			Help:      "Comparisons by outcome status.",
		}, []string{"status"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "cache_lookups_total",
			Help:      "Comparison cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.duration, m.candidates, m.dropped, m.outcomes, m.cache)
	return m
}

// Observe records a finished comparison.
func (m *ComparisonMetrics) Observe(status string, duration time.Duration, candidates, dropped int) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(duration.Seconds())
	m.candidates.Observe(float64(candidates))
	if dropped > 0 {
		m.dropped.Add(float64(dropped))
	}
	m.outcomes.WithLabelValues(normalizeLabel(status)).Inc()
}

// CacheLookup records a cache hit, miss or error.
func (m *ComparisonMetrics) CacheLookup(result string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(result)).Inc()
}
