package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_ordering_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "food_ordering_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_ordering_order_transitions_total",
		Help: "Order status changes by target status and result",
	}, []string{"to", "result"})

	policyDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_ordering_policy_denials_total",
		Help: "Access policy denials by action and reason",
	}, []string{"action", "reason"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveOrderTransition counts an attempted status change; result is "ok",
// "conflict", "not_found" or "forbidden".
func ObserveOrderTransition(to, result string) {
	orderTransitions.WithLabelValues(to, result).Inc()
}

func ObservePolicyDenial(action, reason string) {
	policyDenials.WithLabelValues(action, reason).Inc()
}
