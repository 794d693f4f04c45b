package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContractCallsTotal tracks view calls against the pool contract.
	ContractCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_ledger_contract_calls_total",
			Help: "Total number of pool contract view calls",
		},
		[]string{"method", "status"},
	)

	// ContractCallDuration tracks view call latency.
	ContractCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claimpool_ledger_contract_call_duration_seconds",
			Help:    "Duration of pool contract view calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
