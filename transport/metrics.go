package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "enet"

// Metrics holds the Prometheus collectors shared by every endpoint and
// listener configured with it. A nil *Metrics records nothing.
type Metrics struct {
	connectionsActive *prometheus.GaugeVec
	connectionsTotal  *prometheus.CounterVec
	bytesSent         *prometheus.CounterVec
	bytesReceived     *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg, or with
// prometheus.DefaultRegisterer when reg is nil. It panics if the collectors
// are already registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		connectionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "connections_active",
				Help:      "Number of currently open connections",
			},
			[]string{"transport", "role"},
		),
		connectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "connections_total",
				Help:      "Number of connections opened since start",
			},
			[]string{"transport", "role"},
		),
		bytesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "bytes_sent_total",
				Help:      "Payload bytes written to sockets",
			},
			[]string{"transport"},
		),
		bytesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "bytes_received_total",
				Help:      "Payload bytes delivered to data handlers",
			},
			[]string{"transport"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "errors_total",
				Help:      "Failed socket operations by operation",
			},
			[]string{"transport", "op"},
		),
	}

	reg.MustRegister(
		m.connectionsActive,
		m.connectionsTotal,
		m.bytesSent,
		m.bytesReceived,
		m.errorsTotal,
	)
	return m
}

func (m *Metrics) opened(transport, role string) {
	if m == nil {
		return
	}
	m.connectionsActive.WithLabelValues(transport, role).Inc()
	m.connectionsTotal.WithLabelValues(transport, role).Inc()
}

func (m *Metrics) closed(transport, role string) {
	if m == nil {
		return
	}
	m.connectionsActive.WithLabelValues(transport, role).Dec()
}

func (m *Metrics) sent(transport string, n int) {
	if m == nil {
		return
	}
	m.bytesSent.WithLabelValues(transport).Add(float64(n))
}

func (m *Metrics) received(transport string, n int) {
	if m == nil {
		return
	}
	m.bytesReceived.WithLabelValues(transport).Add(float64(n))
}

func (m *Metrics) failed(transport, op string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(transport, op).Inc()
}
