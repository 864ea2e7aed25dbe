package classifier

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/microbe-go/internal/errors"
)

// DefaultBoostingDepth is the depth of the regression trees fitted per stage
// when no depth is configured.
const DefaultBoostingDepth = 3

// GradientBoosting is a multiclass gradient-boosted tree ensemble with a
// softmax link. Each stage fits one regression tree per class to the
// negative gradient of the multinomial deviance.
type GradientBoosting struct {
	Stages       [][]*DecisionTree // [stage][class]
	Init         []float64         // log class priors
	NumClasses   int
	Estimators   int
	LearningRate float64
	MaxDepth     int
	Seed         uint64
}

// NewGradientBoosting returns an untrained booster.
func NewGradientBoosting(p Params) *GradientBoosting {
	depth := p.MaxDepth
	if depth <= 0 {
		depth = DefaultBoostingDepth
	}
	return &GradientBoosting{
		Estimators:   p.Estimators,
		LearningRate: p.LearningRate,
		MaxDepth:     depth,
		Seed:         p.Seed,
	}
}

func (g *GradientBoosting) Fit(x [][]float64, y []int, numClasses int) error {
	if err := checkTrainingSet(x, y, numClasses); err != nil {
		return err
	}
	if g.Estimators < 1 || g.LearningRate <= 0 {
		return errors.Newf("invalid boosting parameters: %d stages, learning rate %g", g.Estimators, g.LearningRate).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	n, k := len(x), numClasses
	g.NumClasses = k

	g.Init = make([]float64, k)
	for _, c := range y {
		g.Init[c]++
	}
	for c := range g.Init {
		// Absent classes get a large negative score instead of -Inf.
		g.Init[c] = math.Log(max(g.Init[c], 1e-3) / float64(n))
	}

	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = append([]float64(nil), g.Init...)
	}

	rng := rand.New(rand.NewPCG(g.Seed, g.Seed))
	idx := make([]int, n)
	residual := make([]float64, n)
	proba := make([][]float64, n)
	scale := float64(k-1) / float64(k)

	g.Stages = make([][]*DecisionTree, 0, g.Estimators)
	for range g.Estimators {
		for i := range raw {
			proba[i] = softmax(raw[i])
		}

		stage := make([]*DecisionTree, k)
		for c := range k {
			for i := range residual {
				residual[i] = -proba[i][c]
				if y[i] == c {
					residual[i]++
				}
				idx[i] = i
			}

			tree := newTree(g.MaxDepth, 0, SplitBest)
			tree.fitRegressor(x, residual, idx, rng)

			// Replace leaf means with one Newton step per leaf.
			num := make(map[int]float64)
			den := make(map[int]float64)
			leaves := make([]int, n)
			for i := range x {
				leaf := tree.leaf(x[i])
				leaves[i] = leaf
				r := residual[i]
				num[leaf] += r
				den[leaf] += math.Abs(r) * (1 - math.Abs(r))
			}
			for leaf, s := range num {
				gamma := 0.0
				if den[leaf] > 1e-150 {
					gamma = scale * s / den[leaf]
				}
				tree.Nodes[leaf].Value = []float64{gamma}
			}

			for i := range raw {
				raw[i][c] += g.LearningRate * tree.Nodes[leaves[i]].Value[0]
			}
			stage[c] = tree
		}
		g.Stages = append(g.Stages, stage)
	}
	return nil
}

// PredictProba returns softmax class probabilities.
func (g *GradientBoosting) PredictProba(x []float64) []float64 {
	raw := append([]float64(nil), g.Init...)
	for _, stage := range g.Stages {
		for c, tree := range stage {
			raw[c] += g.LearningRate * tree.predictValue(x)
		}
	}
	return softmax(raw)
}

func softmax(raw []float64) []float64 {
	out := make([]float64, len(raw))
	top := floats.Max(raw)
	for i, v := range raw {
		out[i] = math.Exp(v - top)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
