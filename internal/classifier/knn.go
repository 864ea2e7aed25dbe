package classifier

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/microbe-go/internal/errors"
)

// KNN is a k-nearest-neighbours classifier with Euclidean distance and
// uniform votes. Training only stores the samples.
type KNN struct {
	K          int
	X          [][]float64
	Y          []int
	NumClasses int
}

// NewKNN returns an untrained classifier.
func NewKNN(p Params) *KNN {
	return &KNN{K: p.Neighbors}
}

func (m *KNN) Fit(x [][]float64, y []int, numClasses int) error {
	if err := checkTrainingSet(x, y, numClasses); err != nil {
		return err
	}
	if m.K < 1 || m.K > len(x) {
		return errors.Newf("neighbors %d must be in [1, %d]", m.K, len(x)).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
	m.X, m.Y, m.NumClasses = x, y, numClasses
	return nil
}

type neighbor struct {
	index int
	dist  float64
}

// PredictProba returns the vote share of each class among the K nearest
// training samples. Equal distances are ordered by training index.
func (m *KNN) PredictProba(x []float64) []float64 {
	nn := make([]neighbor, len(m.X))
	for i, row := range m.X {
		nn[i] = neighbor{index: i, dist: floats.Distance(x, row, 2)}
	}
	slices.SortFunc(nn, func(a, b neighbor) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	proba := make([]float64, m.NumClasses)
	for _, n := range nn[:m.K] {
		proba[m.Y[n.index]]++
	}
	floats.Scale(1/float64(m.K), proba)
	return proba
}
