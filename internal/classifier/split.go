package classifier

import (
	"math/rand/v2"

	"github.com/tphakala/microbe-go/internal/errors"
)

// Split holds row indices of a train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles the indices 0..n-1 with a PCG source seeded by
// seed and puts ceil(n*testRatio) of them in the test set.
func TrainTestSplit(n int, testRatio float64, seed uint64) (Split, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, errors.Newf("test ratio %g must be in (0, 1)", testRatio).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	nTest := int(float64(n) * testRatio)
	if float64(nTest) < float64(n)*testRatio {
		nTest++
	}
	if nTest == 0 || nTest >= n {
		return Split{}, errors.Newf("cannot split %d samples with test ratio %g", n, testRatio).
			Component(componentName).
			Category(errors.CategoryValidation).
			Context("samples", n).
			Build()
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}

// Rows selects the listed rows of x.
func Rows[T any](x []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}
