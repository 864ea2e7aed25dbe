package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TrainerMetrics tracks model training.
type TrainerMetrics struct {
	runsTotal        *prometheus.CounterVec
	trainingDuration *prometheus.HistogramVec
	accuracy         *prometheus.GaugeVec
	trainingSamples  *prometheus.GaugeVec
}

// NewTrainerMetrics creates and registers trainer metrics.
func NewTrainerMetrics(registry prometheus.Registerer) (*TrainerMetrics, error) {
	m := &TrainerMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microbe_training_runs_total",
				Help: "Training runs by algorithm and outcome.",
			},
			[]string{"algorithm", "status", "error_type"},
		),
		trainingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "microbe_training_duration_seconds",
				Help:    "Time to fit and evaluate a model.",
				Buckets: trainingBuckets,
			},
			[]string{"algorithm"},
		),
		accuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "microbe_model_accuracy_ratio",
				Help: "Held-out accuracy of the most recent model per algorithm.",
			},
			[]string{"algorithm"},
		),
		trainingSamples: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "microbe_training_samples",
				Help: "Samples used by the most recent training run, by split.",
			},
			[]string{"split"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TrainerMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runsTotal, m.trainingDuration, m.accuracy, m.trainingSamples}
}

// Describe implements prometheus.Collector.
func (m *TrainerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *TrainerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordTraining records a training run. Safe on a nil receiver.
func (m *TrainerMetrics) RecordTraining(algorithm string, duration time.Duration, accuracy float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.runsTotal.WithLabelValues(algorithm, StatusError, errorType(err)).Inc()
		return
	}
	m.runsTotal.WithLabelValues(algorithm, StatusSuccess, "none").Inc()
	m.trainingDuration.WithLabelValues(algorithm).Observe(seconds(duration))
	m.accuracy.WithLabelValues(algorithm).Set(accuracy)
}

// SetSplit records train and test set sizes.
func (m *TrainerMetrics) SetSplit(train, test int) {
	if m == nil {
		return
	}
	m.trainingSamples.WithLabelValues("train").Set(float64(train))
	m.trainingSamples.WithLabelValues("test").Set(float64(test))
}
