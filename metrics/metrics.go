// Package metrics provides Prometheus metrics for store operations and HTTP
// request latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors
type Metrics struct {
	// storeOperationsTotal counts store operations by resource, operation and status
	storeOperationsTotal *prometheus.CounterVec
	// requestDurationSeconds tracks HTTP request latency by method and status class
	requestDurationSeconds *prometheus.HistogramVec
	// cacheEventsTotal counts query cache hits and misses by resource
	cacheEventsTotal *prometheus.CounterVec
}

// New registers the application metrics with reg and returns them
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		storeOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_tracker_store_operations_total",
				Help: "Store operations by resource, operation and status",
			},
			[]string{"resource", "operation", "status"},
		),
		requestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audit_tracker_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
		cacheEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_tracker_cache_events_total",
				Help: "Query cache hits and misses by resource",
			},
			[]string{"resource", "event"},
		),
	}
}

// RecordStoreOperation counts one store operation outcome. Safe on a nil
// receiver so tests can run services without a metrics registry.
func (m *Metrics) RecordStoreOperation(resource, operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.storeOperationsTotal.WithLabelValues(resource, operation, status).Inc()
}

// RecordCacheHit counts a query cache hit for a resource
func (m *Metrics) RecordCacheHit(resource string) {
	if m == nil {
		return
	}
	m.cacheEventsTotal.WithLabelValues(resource, "hit").Inc()
}

// RecordCacheMiss counts a query cache miss for a resource
func (m *Metrics) RecordCacheMiss(resource string) {
	if m == nil {
		return
	}
	m.cacheEventsTotal.WithLabelValues(resource, "miss").Inc()
}

// Middleware instruments HTTP handlers with request duration tracking
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(recorder, r)

		m.requestDurationSeconds.
			WithLabelValues(r.Method, statusClass(recorder.code)).
			Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code for labeling
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
