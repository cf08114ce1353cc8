package market

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SnapshotFetchesTotal tracks market contract reads.
	SnapshotFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_market_snapshot_fetches_total",
		Help: "Total number of market snapshots fetched from chain",
	})

	// SnapshotCacheHitsTotal tracks snapshot cache hits.
	SnapshotCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_market_snapshot_cache_hits_total",
		Help: "Total number of market snapshot cache hits",
	})

	// SnapshotCacheMissesTotal tracks snapshot cache misses.
	SnapshotCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_market_snapshot_cache_misses_total",
		Help: "Total number of market snapshot cache misses",
	})
)
