// Package trainer runs the model training pipeline: load the dataset,
// encode labels, scale, split, fit, evaluate and persist the artifacts.
package trainer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/classifier"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/dataset"
	"github.com/tphakala/microbe-go/internal/datastore"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/observability/metrics"
)

// Options selects what to train and where to put it.
type Options struct {
	Algorithm   classifier.Algorithm
	Scaler      classifier.ScalerKind
	DatasetPath string
	ModelDir    string
	TestRatio   float64
	Params      classifier.Params
}

// OptionsFromSettings validates the training section of settings.
func OptionsFromSettings(settings *conf.Settings) (Options, error) {
	t := settings.Training
	alg, err := classifier.ParseAlgorithm(t.Algorithm)
	if err != nil {
		return Options{}, err
	}
	path := t.Dataset
	if path == "" {
		path = settings.Dataset.Path
	}
	return Options{
		Algorithm:   alg,
		Scaler:      classifier.ScalerKind(t.Scaler),
		DatasetPath: path,
		ModelDir:    t.ModelDir,
		TestRatio:   t.TestRatio,
		Params: classifier.Params{
			Estimators:   t.Estimators,
			MaxDepth:     t.MaxDepth,
			LearningRate: t.LearningRate,
			Neighbors:    t.Neighbors,
			C:            t.SVMC,
			Gamma:        t.Gamma,
			Seed:         t.Seed,
		},
	}, nil
}

// RunRecorder stores a summary of each completed run.
type RunRecorder interface {
	SaveTrainingRun(run *datastore.TrainingRun) error
}

// Trainer executes the pipeline for one set of Options.
type Trainer struct {
	opts     Options
	log      logger.Logger
	metrics  *metrics.TrainerMetrics
	recorder RunRecorder
	now      func() time.Time
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(t *Trainer) { t.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.TrainerMetrics) Option {
	return func(t *Trainer) { t.metrics = m }
}

// WithRecorder records completed runs, typically in the datastore.
func WithRecorder(r RunRecorder) Option {
	return func(t *Trainer) { t.recorder = r }
}

// New returns a Trainer.
func New(opts Options, options ...Option) *Trainer {
	t := &Trainer{
		opts: opts,
		log:  logger.NewNopLogger(),
		now:  time.Now,
	}
	for _, o := range options {
		o(t)
	}
	return t
}

// Result is the outcome of a training run.
type Result struct {
	Model       *classifier.Model
	Encoder     *classifier.LabelEncoder
	Report      *classifier.Report
	ModelPath   string
	EncoderPath string
	RunID       string
	Duration    time.Duration
}

// Run loads the dataset file, trains, writes both artifacts into ModelDir
// and records the run.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	start := t.now()
	res, err := t.run(ctx)
	elapsed := t.now().Sub(start)

	accuracy := 0.0
	if res != nil {
		res.Duration = elapsed
		accuracy = res.Report.Accuracy
	}
	t.metrics.RecordTraining(string(t.opts.Algorithm), elapsed, accuracy, err)
	if err != nil {
		return nil, err
	}

	if t.recorder != nil {
		run := t.runRecord(res)
		if err := t.recorder.SaveTrainingRun(run); err != nil {
			// Artifacts stay on disk even when the run cannot be recorded.
			t.log.Warn("failed to record training run", logger.Error(err))
		} else {
			res.RunID = run.ID
		}
	}

	t.log.Info("training complete",
		logger.String("algorithm", string(t.opts.Algorithm)),
		logger.Float64("accuracy", res.Report.Accuracy),
		logger.String("model_path", res.ModelPath),
		logger.Time("trained_at", res.Model.Metadata.TrainedAt),
		logger.Duration("elapsed", elapsed))
	return res, nil
}

func (t *Trainer) run(ctx context.Context) (*Result, error) {
	t.log.Info("loading dataset", logger.String("path", t.opts.DatasetPath))
	rows, err := dataset.LoadFile(t.opts.DatasetPath)
	if err != nil {
		return nil, err
	}

	res, err := t.Train(ctx, rows)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.persist(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Train fits and evaluates a model on rows without touching the disk.
func (t *Trainer) Train(ctx context.Context, rows []dataset.SampleRow) (*Result, error) {
	if len(rows) == 0 {
		return nil, errors.Newf("dataset is empty").
			Component("trainer").
			Category(errors.CategoryValidation).
			Build()
	}

	x, labels := dataset.Matrix(rows)
	enc := classifier.FitLabelEncoder(labels)
	y, err := enc.Transform(labels)
	if err != nil {
		return nil, err
	}

	split, err := classifier.TrainTestSplit(len(x), t.opts.TestRatio, t.opts.Params.Seed)
	if err != nil {
		return nil, err
	}
	trainX, trainY := classifier.Rows(x, split.Train), classifier.Rows(y, split.Train)
	testX, testY := classifier.Rows(x, split.Test), classifier.Rows(y, split.Test)
	t.metrics.SetSplit(len(trainX), len(testX))

	scaler, err := classifier.NewScaler(t.opts.Scaler, trainX)
	if err != nil {
		return nil, err
	}

	clf, err := classifier.New(t.opts.Algorithm, t.opts.Params)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.log.Info("fitting model",
		logger.String("algorithm", string(t.opts.Algorithm)),
		logger.Int("train_samples", len(trainX)),
		logger.Int("test_samples", len(testX)),
		logger.Int("classes", enc.Len()))

	fitStart := t.now()
	if err := clf.Fit(classifier.TransformAll(scaler, trainX), trainY, enc.Len()); err != nil {
		return nil, errors.New(err).
			Component("trainer").
			Category(errors.CategoryModelTraining).
			Context("algorithm", string(t.opts.Algorithm)).
			Timing("fit_model", t.now().Sub(fitStart)).
			Build()
	}
	fitElapsed := t.now().Sub(fitStart)
	t.log.Debug("model fitted", logger.Duration("elapsed", fitElapsed))

	pred := make([]int, len(testX))
	for i, row := range classifier.TransformAll(scaler, testX) {
		pred[i] = classifier.Predict(clf, row)
	}
	report := classifier.Evaluate(testY, pred, enc.Classes)

	features := make([]string, 0, catalog.NumFeatures)
	for _, f := range catalog.Features() {
		features = append(features, f.String())
	}

	scalerKind := t.opts.Scaler
	if scalerKind == "" {
		scalerKind = classifier.ScalerMinMax
	}

	model := &classifier.Model{
		Classifier: clf,
		Scaler:     scaler,
		Metadata: classifier.Metadata{
			Algorithm:    t.opts.Algorithm,
			Scaler:       scalerKind,
			Params:       t.opts.Params,
			Features:     features,
			Classes:      enc.Classes,
			Accuracy:     report.Accuracy,
			TrainSamples: len(trainX),
			TestSamples:  len(testX),
			TrainedAt:    t.now().UTC(),
			Duration:     fitElapsed,
		},
	}
	return &Result{Model: model, Encoder: enc, Report: report}, nil
}

func (t *Trainer) persist(res *Result) error {
	dir := t.opts.ModelDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.New(err).
			Component("trainer").
			Category(errors.CategoryFileIO).
			Context("model_dir", dir).
			Build()
	}

	res.ModelPath = filepath.Join(dir, classifier.ModelFileName(t.opts.Algorithm))
	res.EncoderPath = filepath.Join(dir, classifier.EncoderFileName)

	if err := classifier.SaveModel(res.ModelPath, res.Model); err != nil {
		return err
	}
	if err := res.Encoder.SaveFile(res.EncoderPath); err != nil {
		return err
	}
	t.log.Debug("artifacts written",
		logger.String("model", res.ModelPath),
		logger.String("encoder", res.EncoderPath))
	return nil
}

func (t *Trainer) runRecord(res *Result) *datastore.TrainingRun {
	md := res.Model.Metadata
	return &datastore.TrainingRun{
		Algorithm:    string(md.Algorithm),
		Scaler:       string(md.Scaler),
		Dataset:      t.opts.DatasetPath,
		ModelPath:    res.ModelPath,
		Samples:      md.TrainSamples + md.TestSamples,
		TrainSamples: md.TrainSamples,
		TestSamples:  md.TestSamples,
		Accuracy:     res.Report.Accuracy,
		MacroF1:      res.Report.MacroAvg.F1,
		WeightedF1:   res.Report.WeightedAvg.F1,
		Duration:     res.Duration,
		CreatedAt:    md.TrainedAt,
	}
}
