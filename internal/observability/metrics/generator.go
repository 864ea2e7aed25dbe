package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GeneratorMetrics tracks synthetic dataset generation.
type GeneratorMetrics struct {
	samplesTotal       *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	generationDuration prometheus.Histogram
	datasetRows        prometheus.Gauge
}

// NewGeneratorMetrics creates and registers generator metrics.
func NewGeneratorMetrics(registry prometheus.Registerer) (*GeneratorMetrics, error) {
	m := &GeneratorMetrics{
		samplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_generator_samples_total",
				Help: "Synthetic samples generated, by organism.",
			},
			[]string{"organism"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_generator_runs_total",
				Help: "Dataset generation runs by outcome.",
			},
			[]string{"status", "error_type"},
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "microbe_generator_duration_seconds",
				Help:    "Time to generate and write a dataset.",
				Buckets: trainingBuckets,
			},
		),
		datasetRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "microbe_generator_dataset_rows",
				Help: "Rows in the most recently generated dataset.",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GeneratorMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.samplesTotal, m.runsTotal, m.generationDuration, m.datasetRows}
}

// Describe implements prometheus.Collector.
func (m *GeneratorMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *GeneratorMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordSample counts one generated row. Safe on a nil receiver.
func (m *GeneratorMetrics) RecordSample(organism string) {
	if m == nil {
		return
	}
	m.samplesTotal.WithLabelValues(organism).Inc()
}

// RecordRun records a finished generation run.
func (m *GeneratorMetrics) RecordRun(rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.runsTotal.WithLabelValues(StatusError, errorType(err)).Inc()
		return
	}
	m.runsTotal.WithLabelValues(StatusSuccess, "none").Inc()
	m.generationDuration.Observe(seconds(duration))
	m.datasetRows.Set(float64(rows))
}
