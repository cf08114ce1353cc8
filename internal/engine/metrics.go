package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MatchesTotal tracks match calls by outcome.
	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mai_engine_matches_total",
		Help: "Total number of match calls by outcome",
	}, []string{"outcome"})

	// MatchErrorsTotal tracks rejected matches by error kind.
	MatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mai_engine_match_errors_total",
		Help: "Total number of rejected matches by error kind",
	}, []string{"kind"})

	// LegsSettledTotal tracks settled maker legs.
	LegsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_engine_legs_settled_total",
		Help: "Total number of settled maker legs",
	})

	// CancellationsTotal tracks accepted order cancellations.
	CancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_engine_cancellations_total",
		Help: "Total number of accepted order cancellations",
	})

	// MatchDurationSeconds tracks end-to-end match latency.
	MatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mai_engine_match_duration_seconds",
		Help:    "Duration of match calls including settlement",
		Buckets: prometheus.DefBuckets,
	})
)
