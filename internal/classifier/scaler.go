package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/errors"
)

// ScalerKind names a feature scaling strategy.
type ScalerKind string

const (
	// ScalerMinMax maps each feature from its accepted reading range to [0, 1].
	ScalerMinMax ScalerKind = "minmax"
	// ScalerStandard centres each feature on the training mean with unit
	// variance.
	ScalerStandard ScalerKind = "standard"
)

// Scaler transforms a single feature vector. Implementations are stateless
// after construction and must be gob-encodable.
type Scaler interface {
	Transform(x []float64) []float64
}

// MinMaxScaler rescales features linearly from [Min, Max] to [0, 1].
// Values outside the range map outside [0, 1].
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

// NewFixedRangeScaler returns a MinMaxScaler over the accepted reading
// ranges, so training data and operator input share one transformation.
func NewFixedRangeScaler() *MinMaxScaler {
	ranges := catalog.ReadingRanges()
	s := &MinMaxScaler{
		Min: make([]float64, len(ranges)),
		Max: make([]float64, len(ranges)),
	}
	for i, r := range ranges {
		s.Min[i], s.Max[i] = r.Lower, r.Upper
	}
	return s
}

func (s *MinMaxScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if w := s.Max[i] - s.Min[i]; w != 0 {
			out[i] = (v - s.Min[i]) / w
		}
	}
	return out
}

// StandardScaler applies z-score normalisation with population statistics.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// FitStandardScaler computes per-feature mean and standard deviation of x.
func FitStandardScaler(x [][]float64) *StandardScaler {
	if len(x) == 0 {
		return &StandardScaler{}
	}
	p := len(x[0])
	s := &StandardScaler{Mean: make([]float64, p), Std: make([]float64, p)}
	col := make([]float64, len(x))
	for j := range p {
		for i := range x {
			col[i] = x[i][j]
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
	}
	return s
}

func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - s.Mean[i]
		if s.Std[i] != 0 {
			out[i] /= s.Std[i]
		}
	}
	return out
}

// NewScaler builds the scaler of the given kind. Only ScalerStandard looks at
// the training matrix.
func NewScaler(kind ScalerKind, train [][]float64) (Scaler, error) {
	switch kind {
	case ScalerMinMax, "":
		return NewFixedRangeScaler(), nil
	case ScalerStandard:
		return FitStandardScaler(train), nil
	default:
		return nil, errors.New(fmt.Errorf("unknown scaler %q", kind)).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// TransformAll applies s to every row of x.
func TransformAll(s Scaler, x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.Transform(x[i])
	}
	return out
}
