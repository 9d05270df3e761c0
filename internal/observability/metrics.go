package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "guestlist_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// AdmissionDecisions tracks rate limiter verdicts on registration writes
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_admission_decisions_total",
			Help: "Number of admission controller decisions",
		},
		[]string{"decision"},
	)

	// RegistrationTiers tracks which write tier served each registration
	RegistrationTiers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_registration_tier_total",
			Help: "Number of registrations resolved per degradation tier",
		},
		[]string{"tier", "status"},
	)

	// CircuitBreakerState tracks the current state per downstream service
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guestlist_circuit_breaker_state",
			Help: "Circuit breaker state per service (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service"},
	)

	// EmergencyQueueDepth tracks pending jobs in the emergency queue
	EmergencyQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestlist_emergency_queue_depth",
			Help: "Number of pending jobs in the emergency queue",
		},
	)

	// EmergencyJobsProcessed tracks emergency job outcomes
	EmergencyJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_emergency_jobs_total",
			Help: "Number of emergency queue jobs by terminal outcome",
		},
		[]string{"job_type", "outcome"},
	)

	// CacheHits tracks duplicate-check cache hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_cache_hits_total",
			Help: "Number of cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	// NotificationsDispatched tracks notification dispatch outcomes
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_notifications_dispatched_total",
			Help: "Number of notification dispatch attempts by outcome",
		},
		[]string{"channel", "outcome"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestlist_active_connections",
			Help: "Number of active connections",
		},
	)
)
