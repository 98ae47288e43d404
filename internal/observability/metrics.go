package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. HTTP traffic metrics live in the middleware package; these
// count what the intake pipeline did.
var (
	// ReportsSubmitted counts stored citizen reports by disaster type.
	ReportsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitioss_reports_submitted_total",
			Help: "Citizen reports stored, by disaster type.",
		},
		[]string{"disaster_type"},
	)

	// NotifyDispatch counts notification attempts by result
	// (sent|failed|dropped).
	NotifyDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitioss_notify_dispatch_total",
			Help: "Report-received notifications, by result.",
		},
		[]string{"result"},
	)

	// RemChanges counts REM writes by operation (set|clear).
	RemChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitioss_rem_changes_total",
			Help: "Flood-state changes, by operation.",
		},
		[]string{"op"},
	)

	// CacheEvents counts response-cache hits, misses and invalidations per group.
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitioss_cache_events_total",
			Help: "Response cache events, by group and event.",
		},
		[]string{"group", "event"},
	)
)

func init() {
	prometheus.MustRegister(ReportsSubmitted, NotifyDispatch, RemChanges, CacheEvents)
}
