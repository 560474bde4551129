// Package metrics exposes notification-service counters. A nil *Metrics records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	consumed *prometheus.CounterVec
	sends    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "notification",
			Name:      "events_consumed_total",
			Help:      "Kafka events consumed by type and outcome",
		}, []string{"event_type", "outcome"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "notification",
			Name:      "sends_total",
			Help:      "Notification sends by channel and status",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.consumed, m.sends)
	return m
}

func (m *Metrics) ObserveConsumed(eventType, outcome string) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObserveSend(channel, status string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(channel, status).Inc()
}
