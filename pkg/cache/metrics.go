package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	HitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpool_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"namespace"})

	MissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpool_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"namespace"})

	SetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpool_cache_sets_total",
		Help: "Total number of admitted cache sets",
	}, []string{"namespace"})

	InvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimpool_cache_invalidations_total",
		Help: "Total number of participant invalidations",
	})
)
