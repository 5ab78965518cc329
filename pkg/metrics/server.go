package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics provides observability for the server lifecycle.
//
// Implementations collect metrics about connection lifecycle and the shared
// request counter. This interface is optional - if not provided to the
// server, a no-op implementation is used with zero overhead.
type ServerMetrics interface {
	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int)

	// RecordRequest increments the total served requests counter.
	RecordRequest()
}

// serverMetrics is the Prometheus implementation of ServerMetrics.
type serverMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	requestsTotal       prometheus.Counter
}

// NewServerMetrics creates a new Prometheus-backed ServerMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewServerMetrics() ServerMetrics {
	if !IsEnabled() {
		return NewNoopServerMetrics()
	}

	reg := GetRegistry()

	return &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "saker_connections_accepted_total",
				Help: "Total number of accepted connections",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "saker_connections_closed_total",
				Help: "Total number of closed connections",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "saker_active_connections",
				Help: "Current number of active connections",
			},
		),
		requestsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "saker_requests_total",
				Help: "Total number of requests served across all connections",
			},
		),
	}
}

func (m *serverMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *serverMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *serverMetrics) SetActiveConnections(count int) {
	m.activeConnections.Set(float64(count))
}

func (m *serverMetrics) RecordRequest() {
	m.requestsTotal.Inc()
}

// noopServerMetrics is the zero-overhead implementation used when metrics
// collection is disabled.
type noopServerMetrics struct{}

// NewNoopServerMetrics returns a ServerMetrics that discards everything.
func NewNoopServerMetrics() ServerMetrics {
	return noopServerMetrics{}
}

func (noopServerMetrics) RecordConnectionAccepted()   {}
func (noopServerMetrics) RecordConnectionClosed()     {}
func (noopServerMetrics) SetActiveConnections(int)    {}
func (noopServerMetrics) RecordRequest()              {}
