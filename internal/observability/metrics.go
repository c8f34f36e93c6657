package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpLabels = []string{"path", "method", "status"}
	skipLabels = []string{"reason"}

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_service_http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		httpLabels,
	)

	// HTTPRequestDurationSeconds observes request latency.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_service_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"path", "method"},
	)

	// HTTPErrorsTotal counts requests resolved to a domain error.
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_service_http_errors_total",
			Help: "Total number of requests that resulted in an error response.",
		},
		[]string{"path", "method", "code"},
	)

	// RoutingRunsTotal counts routing passes by outcome.
	RoutingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_service_routing_runs_total",
			Help: "Total number of routing passes executed.",
		},
		[]string{"outcome"},
	)

	// LeadsRoutedTotal counts leads assigned by the routing engine.
	LeadsRoutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_service_leads_routed_total",
			Help: "Total number of leads assigned by the routing engine.",
		},
	)

	// LeadsSkippedTotal counts leads left unassigned by a routing pass.
	LeadsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_service_leads_skipped_total",
			Help: "Total number of leads skipped during routing, by reason.",
		},
		skipLabels,
	)
)

// Skip reasons recorded by the routing engine.
const (
	SkipReasonNoRule      = "no_rule"
	SkipReasonEmptyRoster = "empty_roster"
)

// RecordRequest records counters and latency for a handled request.
func RecordRequest(path, method string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError records a request resolved to a domain error code.
func RecordError(path, method, code string) {
	HTTPErrorsTotal.WithLabelValues(path, method, code).Inc()
}
