package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "easybook"
	subsystem = "chat"
)

// Metrics holds the chat client collectors.
type Metrics struct {
	Connected           prometheus.Gauge
	State               *prometheus.GaugeVec
	ReconnectAttempts   prometheus.Counter
	ReconnectsExhausted prometheus.Counter
	MessagesReceived    *prometheus.CounterVec
	MessagesSent        prometheus.Counter
	SendsRejected       prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Connected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connected",
			Help:      "1 while the chat connection is open",
		}),
		State: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connection_state",
			Help:      "Current connection state (1 for the active state)",
		}, []string{"state"}),
		ReconnectAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconnect_attempts_total",
			Help:      "Scheduled reconnect attempts",
		}),
		ReconnectsExhausted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconnects_exhausted_total",
			Help:      "Times the reconnect ceiling was reached",
		}),
		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_received_total",
			Help:      "Inbound messages by payload kind",
		}, []string{"kind"}),
		MessagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_sent_total",
			Help:      "Messages written to the connection",
		}),
		SendsRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sends_rejected_total",
			Help:      "Sends attempted while the connection was not open",
		}),
		gatherer: g,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveState marks state as the only active connection state.
func (m *Metrics) ObserveState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.State.WithLabelValues(s).Set(v)
	}
	if state == "open" {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

// ObserveReconnect counts one scheduled reconnect attempt.
func (m *Metrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.ReconnectAttempts.Inc()
}

// ObserveExhausted counts one exhaustion of the reconnect ceiling.
func (m *Metrics) ObserveExhausted() {
	if m == nil {
		return
	}
	m.ReconnectsExhausted.Inc()
}

// ObserveReceived counts one inbound message of kind.
func (m *Metrics) ObserveReceived(kind string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(kind).Inc()
}

// ObserveSent counts one outbound message.
func (m *Metrics) ObserveSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

// ObserveRejected counts one send rejected for lack of a connection.
func (m *Metrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.SendsRejected.Inc()
}
