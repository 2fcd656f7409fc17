package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot-level Prometheus metrics.
type Metrics struct {
	UpdateProcessingTime prometheus.Histogram
	ErrorsTotal          prometheus.Counter
	ActionsTotal         *prometheus.CounterVec
	BookingsCreated      prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of update handler errors",
		}),

		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_appointment_actions_total",
			Help: "Appointment actions taken through the bot",
		}, []string{"action"}),

		BookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_bookings_created_total",
			Help: "Total number of appointments booked",
		}),
	}
}
