package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the feeder's self-telemetry instruments.
//
// All instruments are registered on a private registry so that multiple
// independently configured instances can coexist in tests without
// colliding on the process-global default registry.
//
// Thread Safety: All instruments are safe for concurrent use.
type Metrics struct {
	// EventsReceived counts state-change events consumed from the bus.
	EventsReceived prometheus.Counter

	// EventsSkipped counts events that produced no metric lines
	// (non-numeric state, no numeric attributes).
	EventsSkipped prometheus.Counter

	// LinesSent counts metric lines delivered to the backend.
	LinesSent prometheus.Counter

	// LinesDropped counts metric lines dropped after delivery failure.
	LinesDropped prometheus.Counter

	// Reconnects counts TCP reconnect attempts triggered by write failures.
	Reconnects prometheus.Counter

	// SendDuration observes per-line delivery latency in seconds,
	// including any reconnect-and-retry.
	SendDuration prometheus.Histogram

	registry *prometheus.Registry
}

// New creates and registers the feeder's instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphite_feeder_events_received_total",
			Help: "State-change events consumed from the MQTT bus.",
		}),
		EventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphite_feeder_events_skipped_total",
			Help: "Events with no numeric state or attributes.",
		}),
		LinesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphite_feeder_lines_sent_total",
			Help: "Metric lines delivered to the Graphite backend.",
		}),
		LinesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphite_feeder_lines_dropped_total",
			Help: "Metric lines dropped after delivery failure.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphite_feeder_reconnects_total",
			Help: "TCP reconnects triggered by write failures.",
		}),
		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "graphite_feeder_send_duration_seconds",
			Help:    "Per-line delivery latency including reconnect retries.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.EventsReceived,
		m.EventsSkipped,
		m.LinesSent,
		m.LinesDropped,
		m.Reconnects,
		m.SendDuration,
	)

	return m
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
