// Package classifier implements the supervised models used to map
// water-quality readings to organisms: tree ensembles, gradient boosting,
// k-nearest neighbours and an RBF support vector machine, plus the label
// encoding, feature scaling, evaluation and on-disk artifacts that go with
// them.
//
// All training runs on the calling goroutine and is deterministic for a
// given seed.
package classifier

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/microbe-go/internal/errors"
)

const componentName = "classifier"

// Classifier is a multiclass model over dense feature vectors. Labels are
// integer codes in [0, numClasses).
type Classifier interface {
	Fit(x [][]float64, y []int, numClasses int) error
	PredictProba(x []float64) []float64
}

// Predict returns the most probable class. Ties go to the lowest code.
func Predict(c Classifier, x []float64) int {
	return floats.MaxIdx(c.PredictProba(x))
}

// Algorithm names a supported model family.
type Algorithm string

const (
	ExtraTrees    Algorithm = "extratrees"
	RandomForest  Algorithm = "randomforest"
	GradientBoost Algorithm = "gboost"
	KNearest      Algorithm = "knn"
	SVM           Algorithm = "svm"
)

// Algorithms lists the supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{ExtraTrees, RandomForest, GradientBoost, KNearest, SVM}
}

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(s)
	if slices.Contains(Algorithms(), a) {
		return a, nil
	}
	return "", errors.New(fmt.Errorf("unknown algorithm %q", s)).
		Component(componentName).
		Category(errors.CategoryConfiguration).
		Context("algorithm", s).
		Build()
}

// Params carries the hyperparameters of every algorithm; each model reads
// the ones it needs.
type Params struct {
	Estimators   int
	MaxDepth     int // 0 means unlimited for forests and DefaultBoostingDepth for boosting
	LearningRate float64
	Neighbors    int
	C            float64 // SVM soft-margin penalty
	Gamma        float64 // RBF width, 0 derives it from the training set
	Seed         uint64
}

// DefaultParams returns the stock hyperparameters.
func DefaultParams() Params {
	return Params{
		Estimators:   100,
		LearningRate: 0.1,
		Neighbors:    5,
		C:            1,
		Seed:         42,
	}
}

// New returns an untrained model for the algorithm.
func New(a Algorithm, p Params) (Classifier, error) {
	switch a {
	case ExtraTrees:
		return NewExtraTrees(p), nil
	case RandomForest:
		return NewRandomForest(p), nil
	case GradientBoost:
		return NewGradientBoosting(p), nil
	case KNearest:
		return NewKNN(p), nil
	case SVM:
		return NewSVC(p), nil
	default:
		return nil, errors.New(fmt.Errorf("unknown algorithm %q", a)).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func checkTrainingSet(x [][]float64, y []int, numClasses int) error {
	switch {
	case len(x) == 0:
		return errors.ValidationError("training set is empty")
	case len(x) != len(y):
		return errors.ValidationError(fmt.Sprintf("%d samples but %d labels", len(x), len(y)))
	case numClasses < 1:
		return errors.ValidationError("training set needs at least one class")
	}
	p := len(x[0])
	for i := range x {
		if len(x[i]) != p {
			return errors.ValidationError(fmt.Sprintf("sample %d has %d features, want %d", i, len(x[i]), p))
		}
		if y[i] < 0 || y[i] >= numClasses {
			return errors.ValidationError(fmt.Sprintf("label %d of sample %d out of range", y[i], i))
		}
	}
	return nil
}
