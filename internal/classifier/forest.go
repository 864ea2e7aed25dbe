package classifier

import (
	"math"
	"math/rand/v2"

	"github.com/tphakala/microbe-go/internal/errors"
)

// Forest is an ensemble of classification trees whose class probabilities
// are averaged. With SplitRandom it is an extra-trees ensemble; with
// SplitBest it is a random forest. Both draw a bootstrap sample per tree.
type Forest struct {
	Trees       []*DecisionTree
	NumClasses  int
	Estimators  int
	MaxDepth    int
	MaxFeatures int // 0 means floor(sqrt(features))
	Bootstrap   bool
	Splitter    Splitter
	Seed        uint64
}

// NewExtraTrees returns an untrained extremely randomized trees ensemble.
func NewExtraTrees(p Params) *Forest {
	return &Forest{
		Estimators: p.Estimators,
		MaxDepth:   p.MaxDepth,
		Bootstrap:  true,
		Splitter:   SplitRandom,
		Seed:       p.Seed,
	}
}

// NewRandomForest returns an untrained random forest.
func NewRandomForest(p Params) *Forest {
	return &Forest{
		Estimators: p.Estimators,
		MaxDepth:   p.MaxDepth,
		Bootstrap:  true,
		Splitter:   SplitBest,
		Seed:       p.Seed,
	}
}

// Fit grows Estimators trees one after another from a single seeded source.
func (f *Forest) Fit(x [][]float64, y []int, numClasses int) error {
	if err := checkTrainingSet(x, y, numClasses); err != nil {
		return err
	}
	if f.Estimators < 1 {
		return errors.Newf("forest needs at least one estimator, got %d", f.Estimators).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(len(x[0])))))
	}

	rng := rand.New(rand.NewPCG(f.Seed, f.Seed^0x9e3779b97f4a7c15))
	n := len(x)
	idx := make([]int, n)

	f.NumClasses = numClasses
	f.Trees = make([]*DecisionTree, 0, f.Estimators)
	for range f.Estimators {
		for i := range idx {
			if f.Bootstrap {
				idx[i] = rng.IntN(n)
			} else {
				idx[i] = i
			}
		}
		tree := newTree(f.MaxDepth, maxFeatures, f.Splitter)
		tree.fitClassifier(x, y, numClasses, idx, rng)
		f.Trees = append(f.Trees, tree)
	}
	return nil
}

// PredictProba averages the leaf distributions of all trees.
func (f *Forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, f.NumClasses)
	for _, t := range f.Trees {
		for c, p := range t.PredictProba(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}
