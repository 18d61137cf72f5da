// Package telemetry instruments the HTTP surface and the orchestrator's
// per-node pipeline stages with Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the process registers, plus the
// registry they were registered against so Handler can serve them.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	ActiveRequests  prometheus.Gauge

	// NodeDuration records per-pipeline-stage latency (intent, rewrite,
	// retrieve, rerank, parent_fetch, synthesize, quality_gate, refine,
	// retrieve_more). The final event's timings.per_node_ms is measured by
	// the orchestrator itself, not read from this histogram.
	NodeDuration *prometheus.HistogramVec

	// CacheLookups and CacheHits are split by layer (exact, similarity,
	// intent) so each cache tier's hit rate can be tracked independently.
	CacheLookups *prometheus.CounterVec
	CacheHits    *prometheus.CounterVec

	RefinementIterations prometheus.Histogram
}

// NewMetrics creates and registers every collector against reg, or a fresh
// private registry if reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method and path.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "path"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP error responses (4xx/5xx).",
			},
			[]string{"method", "path", "status"},
		),
		ActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Number of currently active HTTP requests.",
			},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orchestrator_node_duration_seconds",
				Help:    "Per-pipeline-stage latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"node"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "semantic_cache_lookups_total",
				Help: "Total cache lookups by layer.",
			},
			[]string{"layer"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "semantic_cache_hits_total",
				Help: "Total cache hits by layer.",
			},
			[]string{"layer"},
		),
		RefinementIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orchestrator_refinement_iterations",
				Help:    "Number of self-correction iterations per request.",
				Buckets: []float64{0, 1, 2},
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.ErrorsTotal, m.ActiveRequests,
		m.NodeDuration, m.CacheLookups, m.CacheHits, m.RefinementIterations,
	)
	return m
}

// Handler serves this Metrics instance's registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordNodeDuration records one pipeline stage's latency.
func (m *Metrics) RecordNodeDuration(node string, d time.Duration) {
	m.NodeDuration.WithLabelValues(node).Observe(d.Seconds())
}

// RecordCacheLookup records a lookup against layer, and a hit if found.
func (m *Metrics) RecordCacheLookup(layer string, hit bool) {
	m.CacheLookups.WithLabelValues(layer).Inc()
	if hit {
		m.CacheHits.WithLabelValues(layer).Inc()
	}
}

// RecordRefinementIterations records the final iteration count for one
// completed request.
func (m *Metrics) RecordRefinementIterations(n int) {
	m.RefinementIterations.Observe(float64(n))
}

// Monitoring returns HTTP middleware that records request count, latency,
// and active-request gauge metrics.
func Monitoring(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.ActiveRequests.Inc()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(sw.status)
			path := sanitizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			m.ActiveRequests.Dec()

			if sw.status >= 400 {
				m.ErrorsTotal.WithLabelValues(r.Method, path, status).Inc()
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

// Flush delegates to the underlying ResponseWriter so SSE streams passing
// through Monitoring can still flush.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// sanitizePath normalizes URL paths to prevent high-cardinality label
// values, replacing path segments that look like IDs with ":id".
func sanitizePath(path string) string {
	if len(path) == 0 {
		return "/"
	}

	var result []byte
	start := 0
	segIdx := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			seg := path[start:i]
			if segIdx > 0 && looksLikeID(seg) {
				result = append(result, ":id"...)
			} else {
				result = append(result, seg...)
			}
			if i < len(path) {
				result = append(result, '/')
			}
			start = i + 1
			segIdx++
		}
	}
	return string(result)
}

// looksLikeID reports whether seg looks like a UUID or a purely numeric ID.
func looksLikeID(seg string) bool {
	if len(seg) == 0 {
		return false
	}
	if len(seg) == 36 {
		dashes := 0
		for _, c := range seg {
			if c == '-' {
				dashes++
			}
		}
		if dashes == 4 {
			return true
		}
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
