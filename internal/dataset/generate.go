package dataset

import (
	"math/rand/v2"
	"time"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

// DefaultSampleCount is the number of rows generated when none is configured.
const DefaultSampleCount = 10000

// RandomSource is the uniform generator used for sampling. *rand.Rand from
// math/rand/v2 satisfies it.
type RandomSource interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// NewRandomSource returns a deterministic PCG source for seed.
func NewRandomSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Option configures Generate.
type Option func(*generateOptions)

type generateOptions struct {
	policy   catalog.NitratePolicy
	log      logger.Logger
	observer func(organism string)
}

// WithNitratePolicy selects how degenerate nitrate intervals are handled.
// The default is catalog.PolicyClamp.
func WithNitratePolicy(policy catalog.NitratePolicy) Option {
	return func(o *generateOptions) {
		o.policy = policy
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(log logger.Logger) Option {
	return func(o *generateOptions) {
		o.log = log
	}
}

// WithObserver registers a callback invoked once per generated row, used to
// feed metrics.
func WithObserver(fn func(organism string)) Option {
	return func(o *generateOptions) {
		o.observer = fn
	}
}

// Generate draws n labelled rows from cat using rng.
//
// Each row picks an organism uniformly with replacement, then draws every
// measurement uniformly from that organism's range and rounds it to two
// decimals. Nitrate-N is drawn from the range returned by
// OrganismProfile.NitrateRange for the row's rounded BOD.
//
// n == 0 returns an empty slice. A negative n, a nil rng or a catalog that
// fails validation under the selected policy returns a configuration error
// and no rows.
func Generate(n int, cat *catalog.Catalog, rng RandomSource, opts ...Option) ([]SampleRow, error) {
	o := generateOptions{policy: catalog.PolicyClamp}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewNopLogger()
	}

	if n < 0 {
		return nil, errors.Newf("sample count must not be negative, got %d", n).
			Component("generator").
			Category(errors.CategoryConfiguration).
			Context("sample_count", n).
			Build()
	}
	if rng == nil {
		return nil, errors.Newf("random source is required").
			Component("generator").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := cat.Validate(o.policy); err != nil {
		return nil, err
	}

	start := time.Now()
	rows := make([]SampleRow, 0, n)
	organisms := cat.Len()

	for range n {
		profile := cat.Profile(rng.IntN(organisms))
		row := SampleRow{
			Temperature:  uniform(rng, profile.Temperature),
			PH:           uniform(rng, profile.PH),
			DissolvedO2:  uniform(rng, profile.DissolvedO2),
			BOD:          uniform(rng, profile.BOD),
			Conductivity: uniform(rng, profile.Conductivity),
			Salinity:     uniform(rng, profile.Salinity),
			Organism:     profile.Name,
		}
		row.Nitrate = uniform(rng, profile.NitrateRange(row.BOD))

		rows = append(rows, row)
		if o.observer != nil {
			o.observer(row.Organism)
		}
	}

	o.log.Debug("samples generated",
		logger.Int("rows", n),
		logger.Int("organisms", organisms),
		logger.String("nitrate_policy", string(o.policy)),
		logger.Duration("elapsed", time.Since(start)))

	return rows, nil
}

// uniform draws from [r.Lower, r.Upper) and rounds to two decimals, so the
// rounded value may equal r.Upper.
func uniform(rng RandomSource, r catalog.Range) float64 {
	return Round2(r.Lower + rng.Float64()*r.Width())
}
