// Package predictor turns an operator's water-quality reading into the most
// likely surviving organism and the remediation verdicts for the impurities
// they selected.
package predictor

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/datastore"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/observability/metrics"
	"github.com/tphakala/microbe-go/internal/remediation"
)

// Source values stored with recorded predictions.
const (
	SourceCLI = "cli"
	SourceWeb = "web"
)

// Recorder stores predictions, typically in the datastore.
type Recorder interface {
	SavePrediction(p *datastore.Prediction) error
}

// Score is the probability assigned to one organism.
type Score struct {
	Organism    string
	Probability float64
}

// Outcome is the result of one prediction.
type Outcome struct {
	Reading    Reading
	Impurities []remediation.Impurity
	Organism   string
	Confidence float64
	Scores     []Score // most probable first
	Verdicts   []remediation.Verdict
	ModelPath  string
	ID         string // datastore ID, empty when not recorded
}

// Headline is the first line of the report.
func (o *Outcome) Headline() string {
	return fmt.Sprintf("The predicted microbe that can survive in the specified environment is: %s.", o.Organism)
}

// Report is the text shown to the operator: the headline, a blank line and
// one line per selected impurity.
func (o *Outcome) Report() string {
	var sb strings.Builder
	sb.WriteString(o.Headline())
	sb.WriteString("\n\n")
	for _, v := range o.Verdicts {
		sb.WriteString(v.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteReport writes Report to w.
func (o *Outcome) WriteReport(w io.Writer) error {
	_, err := io.WriteString(w, o.Report())
	return err
}

// Predictor combines the artifact loader with remediation lookup.
type Predictor struct {
	loader   *Loader
	log      logger.Logger
	metrics  *metrics.PredictorMetrics
	recorder Recorder
	source   string
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Predictor) { p.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.PredictorMetrics) Option {
	return func(p *Predictor) { p.metrics = m }
}

// WithRecorder records every successful prediction.
func WithRecorder(r Recorder) Option {
	return func(p *Predictor) { p.recorder = r }
}

// WithSource tags recorded predictions with where they came from.
func WithSource(source string) Option {
	return func(p *Predictor) { p.source = source }
}

// New returns a Predictor backed by loader.
func New(loader *Loader, opts ...Option) *Predictor {
	p := &Predictor{
		loader: loader,
		log:    logger.NewNopLogger(),
		source: SourceCLI,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FromSettings builds a Loader and Predictor from the prediction section of
// settings.
func FromSettings(settings *conf.Settings, m *metrics.PredictorMetrics, log logger.Logger, opts ...Option) *Predictor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	ps := settings.Prediction
	loader := NewLoader(ps.ModelPath, ps.EncoderPath, ps.CacheTTL,
		WithLoaderLogger(log),
		WithLoaderMetrics(m))
	return New(loader, append([]Option{WithLogger(log), WithMetrics(m)}, opts...)...)
}

// Loader returns the artifact loader.
func (p *Predictor) Loader() *Loader {
	return p.loader
}

// Predict validates reading, classifies it and assesses the selected
// impurities against the predicted organism.
func (p *Predictor) Predict(ctx context.Context, reading Reading, impurities []remediation.Impurity) (*Outcome, error) {
	start := time.Now()
	out, err := p.predict(ctx, reading, impurities)
	organism := ""
	if out != nil {
		organism = out.Organism
	}
	p.metrics.RecordPrediction(organism, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if p.recorder != nil {
		rec := p.record(out)
		if err := p.recorder.SavePrediction(rec); err != nil {
			p.log.Warn("failed to record prediction", logger.Error(err))
		} else {
			out.ID = rec.ID
		}
	}

	p.log.Info("prediction",
		logger.String("organism", out.Organism),
		logger.Float64("confidence", out.Confidence),
		logger.Int("impurities", len(out.Impurities)),
		logger.String("source", p.source))
	return out, nil
}

func (p *Predictor) predict(ctx context.Context, reading Reading, impurities []remediation.Impurity) (*Outcome, error) {
	if bad := reading.InvalidFeatures(); len(bad) > 0 {
		for _, f := range bad {
			p.metrics.RecordInvalidReading(f.String())
		}
		return nil, reading.Validate()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a, err := p.loader.Load()
	if err != nil {
		return nil, err
	}

	class, proba, err := a.Model.Predict(reading.Values())
	if err != nil {
		return nil, err
	}
	organism, err := a.Encoder.Decode(class)
	if err != nil {
		return nil, err
	}

	scores := make([]Score, 0, len(proba))
	for i, pr := range proba {
		name, err := a.Encoder.Decode(i)
		if err != nil {
			return nil, errors.New(err).
				Component("predictor").
				Category(errors.CategoryPrediction).
				Context("class", i).
				Build()
		}
		scores = append(scores, Score{Organism: name, Probability: pr})
	}
	slices.SortStableFunc(scores, func(x, y Score) int {
		return cmp.Compare(y.Probability, x.Probability)
	})

	return &Outcome{
		Reading:    reading,
		Impurities: impurities,
		Organism:   organism,
		Confidence: proba[class],
		Scores:     scores,
		Verdicts:   remediation.Assess(organism, impurities),
		ModelPath:  a.ModelPath,
	}, nil
}

func (p *Predictor) record(out *Outcome) *datastore.Prediction {
	names := make([]string, len(out.Verdicts))
	for i, v := range out.Verdicts {
		names[i] = string(v.Impurity)
	}
	rec := &datastore.Prediction{
		Source:       p.source,
		ModelPath:    out.ModelPath,
		Temperature:  out.Reading.Temperature,
		PH:           out.Reading.PH,
		DissolvedO2:  out.Reading.DissolvedO2,
		BOD:          out.Reading.BOD,
		Conductivity: out.Reading.Conductivity,
		Salinity:     out.Reading.Salinity,
		Nitrate:      out.Reading.Nitrate,
		Impurities:   strings.Join(names, ","),
		Organism:     out.Organism,
		Confidence:   out.Confidence,
		CreatedAt:    time.Now().UTC(),
	}
	for _, s := range out.Scores {
		rec.Scores = append(rec.Scores, datastore.PredictionScore{
			Organism:    s.Organism,
			Probability: s.Probability,
		})
	}
	return rec
}

// ParseImpurities parses impurity names, ignoring duplicates.
func ParseImpurities(names []string) ([]remediation.Impurity, error) {
	var out []remediation.Impurity
	for _, n := range names {
		imp, err := remediation.ParseImpurity(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, imp) {
			out = append(out, imp)
		}
	}
	return out, nil
}

// FeatureLabel is the human-readable name of f with its unit.
func FeatureLabel(f catalog.Feature) string {
	switch f {
	case catalog.Temperature:
		return "Temperature (°C)"
	case catalog.PH:
		return "pH"
	case catalog.DissolvedO2:
		return "Dissolved O2 (mg/L)"
	case catalog.BOD:
		return "BOD (mg/L)"
	case catalog.Conductivity:
		return "Conductivity (µS/cm)"
	case catalog.Salinity:
		return "Salinity (ppt)"
	case catalog.Nitrate:
		return "Nitrate-N (mg/L)"
	default:
		return f.String()
	}
}
