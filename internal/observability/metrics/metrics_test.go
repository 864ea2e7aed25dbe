package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/errors"
)

func TestGeneratorMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewGeneratorMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordSample("Bacillus cereus")
	m.RecordSample("Bacillus cereus")
	m.RecordSample("Pseudomonas putida")
	m.RecordRun(3, 20*time.Millisecond, nil)
	m.RecordRun(0, 0, errors.New(errors.NewStd("disk full")).Category(errors.CategoryFileIO).Build())

	assert.InDelta(t, 2, testutil.ToFloat64(m.samplesTotal.WithLabelValues("Bacillus cereus")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.datasetRows), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runsTotal.WithLabelValues(StatusSuccess, "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runsTotal.WithLabelValues(StatusError, "file-io")), 0)
}

func TestTrainerMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewTrainerMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordTraining("knn", time.Second, 0.97, nil)
	m.RecordTraining("knn", time.Second, 0, errors.ValidationError("empty dataset"))
	m.SetSplit(8000, 2000)

	assert.InDelta(t, 0.97, testutil.ToFloat64(m.accuracy.WithLabelValues("knn")), 1e-12)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runsTotal.WithLabelValues("knn", StatusError, "validation")), 0)
	assert.InDelta(t, 2000, testutil.ToFloat64(m.trainingSamples.WithLabelValues("test")), 0)
}

func TestPredictorMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewPredictorMetrics(reg)
	require.NoError(t, err)
	assert.False(t, m.ModelLoaded())

	m.RecordModelLoad(nil)
	assert.True(t, m.ModelLoaded())
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(true)
	m.RecordPrediction("Bacillus cereus", time.Millisecond, nil)
	m.RecordInvalidReading("ph")

	assert.InDelta(t, 2, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.predictionsTotal.WithLabelValues("Bacillus cereus", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.invalidReadings.WithLabelValues("ph")), 0)

	m.RecordModelLoad(errors.New(errors.NewStd("bad gob")).Category(errors.CategoryModelLoad).Build())
	assert.False(t, m.ModelLoaded())

	n, err := testutil.GatherAndCount(reg, "microbe_model_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	m.RecordHTTPRequest("POST", "/predict", 422, time.Millisecond)
	m.RecordTemplateRenderError("form")

	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/predict", "422")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.templateRenderErrors.WithLabelValues("form")), 0)
}

func TestNilReceiversAreSafe(t *testing.T) {
	t.Parallel()

	var g *GeneratorMetrics
	var tr *TrainerMetrics
	var p *PredictorMetrics
	var h *HTTPMetrics

	assert.NotPanics(t, func() {
		g.RecordSample("x")
		g.RecordRun(1, time.Second, nil)
		tr.RecordTraining("knn", time.Second, 1, nil)
		tr.SetSplit(1, 1)
		p.RecordPrediction("x", time.Second, nil)
		p.RecordModelLoad(nil)
		p.RecordCacheLookup(true)
		p.RecordInvalidReading("ph")
		h.RecordHTTPRequest("GET", "/", 200, time.Second)
		h.RecordTemplateRenderError("form")
	})
	assert.False(t, p.ModelLoaded())
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewTrainerMetrics(reg)
	require.NoError(t, err)
	_, err = NewTrainerMetrics(reg)
	require.Error(t, err)
}
