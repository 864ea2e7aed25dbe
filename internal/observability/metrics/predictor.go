package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// PredictorMetrics tracks predictions and model artifact loading.
type PredictorMetrics struct {
	predictionsTotal   *prometheus.CounterVec
	predictionDuration prometheus.Histogram
	invalidReadings    *prometheus.CounterVec
	modelLoadsTotal    *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	modelLoaded        prometheus.Gauge
}

// NewPredictorMetrics creates and registers predictor metrics.
func NewPredictorMetrics(registry prometheus.Registerer) (*PredictorMetrics, error) {
	m := &PredictorMetrics{
		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_predictions_total",
				Help: "Predictions by predicted organism and outcome.",
			},
			[]string{"organism", "status"},
		),
		predictionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "microbe_prediction_duration_seconds",
				Help:    "Time to scale a reading and run the model.",
				Buckets: fastBuckets,
			},
		),
		invalidReadings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_invalid_readings_total",
				Help: "Rejected readings by offending measurement.",
			},
			[]string{"feature"},
		),
		modelLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_model_loads_total",
				Help: "Model and encoder artifact loads by outcome.",
			},
			[]string{"status", "error_type"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_model_cache_lookups_total",
				Help: "Artifact cache lookups by result.",
			},
			[]string{"result"},
		),
		modelLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "microbe_model_loaded",
				Help: "Whether a model is currently loaded (1) or not (0).",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PredictorMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.predictionsTotal,
		m.predictionDuration,
		m.invalidReadings,
		m.modelLoadsTotal,
		m.cacheLookups,
		m.modelLoaded,
	}
}

// Describe implements prometheus.Collector.
func (m *PredictorMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *PredictorMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordPrediction records a prediction. Safe on a nil receiver.
func (m *PredictorMetrics) RecordPrediction(organism string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.predictionsTotal.WithLabelValues("", StatusError).Inc()
		return
	}
	m.predictionsTotal.WithLabelValues(organism, StatusSuccess).Inc()
	m.predictionDuration.Observe(seconds(duration))
}

// RecordInvalidReading counts a reading rejected for feature.
func (m *PredictorMetrics) RecordInvalidReading(feature string) {
	if m == nil {
		return
	}
	m.invalidReadings.WithLabelValues(feature).Inc()
}

// RecordModelLoad records an artifact load attempt.
func (m *PredictorMetrics) RecordModelLoad(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.modelLoadsTotal.WithLabelValues(StatusError, errorType(err)).Inc()
		m.modelLoaded.Set(0)
		return
	}
	m.modelLoadsTotal.WithLabelValues(StatusSuccess, "none").Inc()
	m.modelLoaded.Set(1)
}

// RecordCacheLookup counts a cache hit or miss.
func (m *PredictorMetrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues(CacheHit).Inc()
	} else {
		m.cacheLookups.WithLabelValues(CacheMiss).Inc()
	}
}

// ModelLoaded reports the value of the model-loaded gauge.
func (m *PredictorMetrics) ModelLoaded() bool {
	if m == nil {
		return false
	}
	metric := &dto.Metric{}
	if err := m.modelLoaded.Write(metric); err != nil {
		return false
	}
	return metric.GetGauge().GetValue() == 1
}
