// Package metrics exposes booking-service counters. A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	bookings      *prometheus.CounterVec
	availability  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	commitLatency prometheus.Histogram
	queueDepth    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Booking attempts by service and outcome",
		}, []string{"service", "outcome"}),
		availability: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Availability queries by outcome",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "notify",
			Name:      "dispatch_total",
			Help:      "Notification dispatches by event type and outcome",
		}, []string{"event_type", "outcome"}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salonbook",
			Subsystem: "booking",
			Name:      "commit_seconds",
			Help:      "Latency of the ledger reservation",
			Buckets:   prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salonbook",
			Subsystem: "notify",
			Name:      "queue_depth",
			Help:      "Notifications waiting for a worker",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.availability, m.notifications, m.commitLatency, m.queueDepth)
	return m
}

func (m *Metrics) ObserveBooking(service, outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(service, outcome).Inc()
}

func (m *Metrics) ObserveAvailability(outcome string) {
	if m == nil {
		return
	}
	m.availability.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNotification(eventType, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObserveCommit(seconds float64) {
	if m == nil {
		return
	}
	m.commitLatency.Observe(seconds)
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
