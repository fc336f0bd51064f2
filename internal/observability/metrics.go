package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversationTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "conversation_turns_total", Help: "Inbound turns handled, by state before the turn"},
		[]string{"state"},
	)
	RidesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "rides_created_total", Help: "Rides written to the ledger"},
		[]string{"status"},
	)
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "reminders_sent_total", Help: "Scheduled ride notices sent"},
		[]string{"kind"},
	)
	DeliveryFailures     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_booking", Name: "delivery_failures_total", Help: "Outbound messages that failed to send"})
	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "collaborator_failures_total", Help: "Geocoding/routing failures surfaced to users"},
		[]string{"kind"},
	)
	ActiveSessions     = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_booking", Name: "active_sessions", Help: "Sessions outside IDLE"})
	ScheduledReminders = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_booking", Name: "scheduled_reminders", Help: "Live scheduled reminders"})
	RouteCacheHits     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_booking", Name: "route_cache_hits_total", Help: "Route lookups served from cache"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_booking",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
