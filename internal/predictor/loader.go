package predictor

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/microbe-go/internal/classifier"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/observability/metrics"
)

// Artifacts is a model with the label encoder that decodes its classes.
type Artifacts struct {
	Model       *classifier.Model
	Encoder     *classifier.LabelEncoder
	ModelPath   string
	EncoderPath string
	LoadedAt    time.Time
}

// Loader reads artifacts from disk and keeps them for a while so repeated
// predictions do not decode the model each time.
type Loader struct {
	modelPath   string
	encoderPath string
	cache       *cache.Cache
	metrics     *metrics.PredictorMetrics
	log         logger.Logger

	// serialises disk loads so concurrent misses decode once
	mu sync.Mutex
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger.
func WithLoaderLogger(log logger.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

// WithLoaderMetrics records cache lookups and model loads.
func WithLoaderMetrics(m *metrics.PredictorMetrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader returns a Loader for the given artifact paths. A ttl of zero
// keeps artifacts until Invalidate is called.
func NewLoader(modelPath, encoderPath string, ttl time.Duration, opts ...LoaderOption) *Loader {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	// No janitor goroutine; expired entries are dropped on lookup.
	l := &Loader{
		modelPath:   modelPath,
		encoderPath: encoderPath,
		cache:       cache.New(ttl, 0),
		log:         logger.NewNopLogger(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Loader) key() string {
	return l.modelPath + "|" + l.encoderPath
}

// Load returns the cached artifacts, reading them from disk on a miss.
func (l *Loader) Load() (*Artifacts, error) {
	if a, ok := l.cached(); ok {
		l.metrics.RecordCacheLookup(true)
		return a, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// another caller may have filled the cache while we waited
	if a, ok := l.cached(); ok {
		l.metrics.RecordCacheLookup(true)
		return a, nil
	}
	l.metrics.RecordCacheLookup(false)

	a, err := l.read()
	l.metrics.RecordModelLoad(err)
	if err != nil {
		return nil, err
	}
	l.cache.Set(l.key(), a, cache.DefaultExpiration)
	l.log.Info("model loaded",
		logger.String("model", a.ModelPath),
		logger.String("algorithm", string(a.Model.Metadata.Algorithm)),
		logger.Int("classes", a.Encoder.Len()))
	return a, nil
}

// Invalidate drops the cached artifacts, forcing the next Load to read the
// files again.
func (l *Loader) Invalidate() {
	l.cache.Delete(l.key())
}

func (l *Loader) cached() (*Artifacts, bool) {
	v, found := l.cache.Get(l.key())
	if !found {
		return nil, false
	}
	a, ok := v.(*Artifacts)
	return a, ok
}

func (l *Loader) read() (*Artifacts, error) {
	model, err := classifier.LoadModel(l.modelPath)
	if err != nil {
		return nil, err
	}
	enc, err := classifier.LoadLabelEncoder(l.encoderPath)
	if err != nil {
		return nil, err
	}

	if classes := model.Metadata.Classes; len(classes) > 0 && len(classes) != enc.Len() {
		return nil, errors.Newf("model has %d classes but label encoder has %d", len(classes), enc.Len()).
			Component("predictor").
			Category(errors.CategoryModelLoad).
			Context("model_path", l.modelPath).
			Context("encoder_path", l.encoderPath).
			Build()
	}

	return &Artifacts{
		Model:       model,
		Encoder:     enc,
		ModelPath:   l.modelPath,
		EncoderPath: l.encoderPath,
		LoadedAt:    time.Now(),
	}, nil
}
