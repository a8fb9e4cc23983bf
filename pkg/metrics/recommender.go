package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Lists returned by the recommendation surface, by the path that produced them
	RecommendationsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Recommendation lists served by path (cache, exploit, explore, popular)",
	}, []string{"path"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_cache_lookups_total",
		Help: "Recommendation cache lookups by result (hit, miss, stale)",
	}, []string{"result"})

	GeneratorLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendation_generator_latency_seconds",
		Help:    "Latency of a single candidate generator",
		Buckets: prometheus.DefBuckets,
	}, []string{"generator"})

	GeneratorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_generator_failures_total",
		Help: "Candidate generators that degraded to an empty list",
	}, []string{"generator"})

	PrecomputeUsers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "recommendation_precompute_users",
		Help: "Users processed by the last precompute cycle, by outcome",
	}, []string{"outcome"})

	PrecomputeDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recommendation_precompute_duration_seconds",
		Help: "Wall time of the last precompute cycle",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendationsServed,
		CacheLookups,
		GeneratorLatency,
		GeneratorFailures,
		PrecomputeUsers,
		PrecomputeDuration,
	)
}
