package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for the web front-end.
type HTTPMetrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	templateRenderErrors *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "microbe_http_request_duration_seconds",
				Help:    "Time taken for HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		templateRenderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_http_template_render_errors_total",
				Help: "Template rendering failures by template.",
			},
			[]string{"template"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.httpRequestsTotal, m.httpRequestDuration, m.templateRenderErrors}
}

// Describe implements prometheus.Collector.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordHTTPRequest records a served request. path should be the route
// pattern, not the raw URL, to bound cardinality.
func (m *HTTPMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(seconds(duration))
}

// RecordTemplateRenderError counts a failed template execution.
func (m *HTTPMetrics) RecordTemplateRenderError(template string) {
	if m == nil {
		return
	}
	m.templateRenderErrors.WithLabelValues(template).Inc()
}
