package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartnote_login_attempts_total",
		Help: "Number of login attempts grouped by status.",
	}, []string{"status"})

	refreshRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartnote_refresh_rotations_total",
		Help: "Number of refresh rotations grouped by status.",
	}, []string{"status"})

	logoutEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartnote_logout_events_total",
		Help: "Number of logout attempts grouped by status.",
	}, []string{"status"})

	rateLimitHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartnote_rate_limit_hits_total",
		Help: "Rate limiter activations grouped by limiter name.",
	}, []string{"limiter"})

	noteOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartnote_note_operations_total",
		Help: "Note CRUD operations grouped by operation and status.",
	}, []string{"op", "status"})

	summaryGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartnote_summary_generations_total",
		Help: "Summary generation attempts grouped by status.",
	}, []string{"status"})

	summaryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smartnote_summary_latency_seconds",
		Help:    "Latency of upstream summary generation calls.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})
)

// IncLogin increments the login counter.
func IncLogin(status string) {
	loginAttempts.WithLabelValues(status).Inc()
}

// IncRefresh increments the refresh rotation counter.
func IncRefresh(status string) {
	refreshRotations.WithLabelValues(status).Inc()
}

// IncLogout increments the logout counter.
func IncLogout(status string) {
	logoutEvents.WithLabelValues(status).Inc()
}

// IncRateLimit increments the rate-limit hit counter.
func IncRateLimit(name string) {
	rateLimitHits.WithLabelValues(name).Inc()
}

// IncNoteOp increments the note operation counter.
func IncNoteOp(op, status string) {
	noteOps.WithLabelValues(op, status).Inc()
}

// IncSummary increments the summary generation counter.
func IncSummary(status string) {
	summaryGenerations.WithLabelValues(status).Inc()
}

// ObserveSummaryLatency records one upstream summary call duration.
func ObserveSummaryLatency(d time.Duration) {
	summaryLatency.Observe(d.Seconds())
}
