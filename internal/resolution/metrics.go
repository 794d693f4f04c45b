package resolution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessedTotal tracks resolution events by result.
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_resolution_events_processed_total",
			Help: "Total number of resolution events processed",
		},
		[]string{"result"},
	)

	// RejectedTotal tracks rejected pools by error kind.
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_resolution_rejected_total",
			Help: "Total number of pool resolutions rejected",
		},
		[]string{"kind"},
	)

	// ProcessingDurationSeconds tracks per-event processing latency.
	ProcessingDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimpool_resolution_processing_duration_seconds",
		Help:    "Duration of resolution event processing",
		Buckets: prometheus.DefBuckets,
	})

	// DistributedUnitsTotal tracks smallest units paid out, by recipient.
	DistributedUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_resolution_distributed_units_total",
			Help: "Total smallest currency units distributed at settlement",
		},
		[]string{"recipient"},
	)
)
