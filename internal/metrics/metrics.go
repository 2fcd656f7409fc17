package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consultly",
			Name:      "backend_requests_total",
			Help:      "Booking backend requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	botUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consultly",
			Name:      "bot_updates_total",
			Help:      "Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	appointmentActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consultly",
			Name:      "appointment_actions_total",
			Help:      "Appointment lifecycle actions taken through the bot.",
		},
		[]string{"action"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, botUpdates, appointmentActions)
	})
}

// IncBackend increments the backend request counter.
func IncBackend(endpoint, outcome string) {
	backendRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IncUpdate increments the Telegram update counter.
func IncUpdate(kind string) {
	botUpdates.WithLabelValues(kind).Inc()
}

// IncAction increments the appointment action counter.
func IncAction(action string) {
	appointmentActions.WithLabelValues(action).Inc()
}
