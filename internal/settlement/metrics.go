package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ViewCallsTotal tracks read-path calls by operation.
	ViewCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_settlement_view_calls_total",
			Help: "Total number of settlement view calls",
		},
		[]string{"operation"},
	)

	// ViewErrorsTotal tracks rejected read-path calls by operation and error kind.
	ViewErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimpool_settlement_view_errors_total",
			Help: "Total number of settlement view calls rejected",
		},
		[]string{"operation", "kind"},
	)

	// ZeroWinnerPoolsTotal tracks settlements whose staker pool accrued to the creator.
	ZeroWinnerPoolsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimpool_settlement_zero_winner_pools_total",
		Help: "Total number of settlements with no stake on the winning side",
	})
)
