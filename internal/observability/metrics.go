// Package observability wires the Prometheus collectors of every component
// into one registry and exposes it over HTTP.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/microbe-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Generator *metrics.GeneratorMetrics
	Trainer   *metrics.TrainerMetrics
	Predictor *metrics.PredictorMetrics
	HTTP      *metrics.HTTPMetrics
}

// NewMetrics creates a registry with process and Go runtime collectors plus
// every component's metrics.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	generatorMetrics, err := metrics.NewGeneratorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator metrics: %w", err)
	}

	trainerMetrics, err := metrics.NewTrainerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create trainer metrics: %w", err)
	}

	predictorMetrics, err := metrics.NewPredictorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create predictor metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Generator: generatorMetrics,
		Trainer:   trainerMetrics,
		Predictor: predictorMetrics,
		HTTP:      httpMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      m.registry,
	})
}
