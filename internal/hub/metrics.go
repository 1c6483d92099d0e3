package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the hub's operational counters.
type Metrics struct {
	// ActiveConnections tracks currently registered clients.
	ActiveConnections prometheus.Gauge

	// EnvelopesReceived counts inbound envelopes by type tag.
	EnvelopesReceived *prometheus.CounterVec

	// SendFailures counts deliveries that failed (backpressure or dead
	// transport) and triggered a disconnect cascade.
	SendFailures prometheus.Counter

	// PersistenceFailures counts store calls that failed and skipped fan-out.
	PersistenceFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hub_active_connections",
			Help: "Number of currently registered websocket clients.",
		}),
		EnvelopesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_envelopes_received_total",
			Help: "Inbound envelopes by type tag.",
		}, []string{"type"}),
		SendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_send_failures_total",
			Help: "Outbound deliveries that failed and dropped the client.",
		}),
		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_persistence_failures_total",
			Help: "Store calls that failed during envelope handling.",
		}),
	}
}
