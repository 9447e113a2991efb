// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry at init, so the
// Record* helpers can be called from any package without wiring.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation paths.
const (
	PathColdStart = "cold_start"
	PathCategory  = "category"
	PathBackfill  = "backfill"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfwise_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"limiter"},
	)

	// Recommendations
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_recommendations_served_total",
			Help: "Books recommended, by the path that produced them",
		},
		[]string{"path"}, // cold_start, category, backfill
	)

	// Assistant
	AssistantReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_assistant_replies_total",
			Help: "Assistant conversations by outcome",
		},
		[]string{"outcome"}, // text, tool, malformed, unexpected, upstream
	)

	AssistantToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_assistant_tool_calls_total",
			Help: "Catalog lookups requested by the model, by result",
		},
		[]string{"tool", "result"}, // result: ok, empty, error, unknown
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfwise_model_call_duration_seconds",
			Help:    "Latency of generative model calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"model", "status"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfwise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Authorization
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_authz_decisions_total",
			Help: "Total number of route authorization decisions",
		},
		[]string{"role", "decision"}, // allow, deny
	)

	// Store
	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_db_query_errors_total",
			Help: "Total number of record store errors surfaced to callers",
		},
		[]string{"operation"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendations counts n books produced by path.
func RecordRecommendations(path string, n int) {
	if n > 0 {
		RecommendationsServed.WithLabelValues(path).Add(float64(n))
	}
}

// RecordModelCall records the latency of one model call.
func RecordModelCall(model string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ModelCallDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordDBError counts a store failure for operation.
func RecordDBError(operation string) {
	DBQueryErrors.WithLabelValues(operation).Inc()
}

// RecordAuthzDecision counts one policy decision for role.
func RecordAuthzDecision(role string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisions.WithLabelValues(role, decision).Inc()
}
