package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ConnectedClients tracks live websocket subscribers.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mai_websocket_connected_clients",
		Help: "Number of connected websocket subscribers",
	})

	// EventsBroadcastTotal tracks queued event deliveries.
	EventsBroadcastTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_websocket_events_broadcast_total",
		Help: "Total number of settlement events queued to subscribers",
	})

	// DroppedClientsTotal tracks subscribers dropped for falling behind.
	DroppedClientsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mai_websocket_dropped_clients_total",
		Help: "Total number of subscribers dropped with full send buffers",
	})
)
