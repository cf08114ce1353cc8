package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// TransfersTotal tracks applied settlement actions.
	TransfersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_settlement_actions_total",
		Help: "Total number of settlement actions applied",
	})

	// SettlementErrorsTotal tracks failed settlement batches.
	SettlementErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_settlement_errors_total",
		Help: "Total number of settlement batches that failed",
	})

	// SettlementDurationSeconds tracks settlement latency.
	SettlementDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mai_settlement_duration_seconds",
		Help:    "Duration of settlement batch execution",
		Buckets: prometheus.DefBuckets,
	})
)
