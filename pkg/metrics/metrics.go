package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records sign-in attempts by provider and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadboard_auth_attempts_total",
			Help: "Total number of sign-in attempts",
		},
		[]string{"provider", "result"},
	)

	// AccessChecks counts membership checks by target (roadmap|feature|user|none) and result (allow|deny|missing|error).
	AccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadboard_access_checks_total",
			Help: "Total number of roadmap membership checks",
		},
		[]string{"target", "result"},
	)

	// BoardEvents counts board events published to realtime subscribers.
	BoardEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadboard_board_events_total",
			Help: "Board events broadcast to realtime subscribers",
		},
		[]string{"event"},
	)

	// RealtimeConnections tracks open websocket connections.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roadboard_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// JobsEnqueued counts background jobs by task type, queue and result (ok|error).
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadboard_jobs_enqueued_total",
			Help: "Background jobs submitted to the queue",
		},
		[]string{"task", "queue", "result"},
	)

	// Votes counts anonymous feature votes by result (created|duplicate).
	Votes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadboard_votes_total",
			Help: "Anonymous feature votes",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roadboard_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
