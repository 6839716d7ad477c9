package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request and error-envelope counters.
type HTTPMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	unclassified prometheus.Counter
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_error_responses_total",
		Help: "Error envelopes written, by error code and status.",
	}, []string{"code", "status"})
	unclassified := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_unclassified_faults_total",
		Help: "Faults that were not raised as HTTP-aware errors.",
	})
	reg.MustRegister(requests, duration, errs, unclassified)
	return &HTTPMetrics{
		requests:     requests,
		duration:     duration,
		errors:       errs,
		unclassified: unclassified,
	}
}

// ObserveRequest records one completed request.
func (m *HTTPMetrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(method), strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(normalizeLabel(method)).Observe(elapsed.Seconds())
}

// ObserveError records one error envelope.
func (m *HTTPMetrics) ObserveError(code string, status int, classified bool) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizeLabel(code), strconv.Itoa(status)).Inc()
	if !classified {
		m.unclassified.Inc()
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
