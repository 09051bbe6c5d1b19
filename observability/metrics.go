// Package observability provides Prometheus metrics instrumentation for the
// routing engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// ROUTING METRICS
// =============================================================================

var (
	routedMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_routed_messages_total",
			Help: "Total number of routed messages",
		},
		[]string{"rule", "status"}, // status: success, failure, unroutable
	)

	routeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mafia_route_duration_seconds",
			Help:    "End-to-end route duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"rule"},
	)
)

// =============================================================================
// AGENT METRICS
// =============================================================================

var (
	agentHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_agent_handled_total",
			Help: "Total number of messages handled per agent",
		},
		[]string{"agent", "status"}, // status: success, failure
	)
)

// =============================================================================
// MIDDLEWARE METRICS
// =============================================================================

var (
	cacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_cache_events_total",
			Help: "Cache middleware hit/miss/eviction events",
		},
		[]string{"event"}, // event: hit, miss, eviction, expired
	)

	rateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mafia_rate_limit_rejections_total",
			Help: "Messages rejected by the rate limit middleware",
		},
	)

	retryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_retry_attempts_total",
			Help: "Retry middleware attempts by outcome",
		},
		[]string{"outcome"}, // outcome: success, retry, exhausted
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordRoute records routing metrics.
// This should be called after a route call completes.
func RecordRoute(rule string, status string, durationMS int) {
	routedMessagesTotal.WithLabelValues(rule, status).Inc()
	routeDurationSeconds.WithLabelValues(rule).Observe(float64(durationMS) / 1000.0)
}

// RecordAgentHandled records per-agent handling metrics.
func RecordAgentHandled(agent string, status string) {
	agentHandledTotal.WithLabelValues(agent, status).Inc()
}

// RecordCacheEvent records a cache middleware event.
func RecordCacheEvent(event string) {
	cacheEventsTotal.WithLabelValues(event).Inc()
}

// RecordRateLimitRejection records a rate limit rejection.
func RecordRateLimitRejection() {
	rateLimitRejectionsTotal.Inc()
}

// RecordRetryAttempt records a retry middleware attempt outcome.
func RecordRetryAttempt(outcome string) {
	retryAttemptsTotal.WithLabelValues(outcome).Inc()
}
