package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wirepair"

// Metrics holds coordinator collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	clients    prometheus.Gauge
	broadcasts *prometheus.CounterVec
	commands   *prometheus.CounterVec
	dropped    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Event channel sockets currently connected.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "State change notifications fanned out, by event.",
		}, []string{"event"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands applied to the session store, by kind and result.",
		}, []string{"kind", "result"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_clients_total",
			Help:      "Sockets disconnected because their outbound queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.clients, m.broadcasts, m.commands, m.dropped)
	}
	return m
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.clients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.clients.Dec()
}

func (m *Metrics) ClientDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) Broadcast(event string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(event).Inc()
}

// Command counts one applied command; err decides the result label.
func (m *Metrics) Command(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(kind, result).Inc()
}
