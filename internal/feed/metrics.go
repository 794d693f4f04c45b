package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connected is 1 while the feed connection is up.
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "claimpool_feed_connected",
		Help: "Whether the ledger feed connection is up",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimpool_feed_reconnect_attempts_total",
		Help: "Total number of ledger feed reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimpool_feed_reconnect_failures_total",
		Help: "Total number of failed ledger feed reconnection attempts",
	})

	// MessagesReceivedTotal tracks feed messages by type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_feed_messages_received_total",
			Help: "Total number of ledger feed messages received",
		},
		[]string{"type"},
	)

	// DecodeErrorsTotal tracks resolution events that failed to decode.
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_feed_decode_errors_total",
			Help: "Total number of ledger feed messages that failed to decode",
		},
		[]string{"kind"},
	)

	// EventsDroppedTotal tracks events dropped because the consumer fell behind.
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimpool_feed_events_dropped_total",
		Help: "Total number of resolution events dropped due to a full buffer",
	})

	// ConnectionDuration tracks connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimpool_feed_connection_duration_seconds",
		Help:    "Duration of ledger feed connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})
)
