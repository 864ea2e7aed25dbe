package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/errors"
)

// xor returns four tight clusters at the corners of a square where opposite
// corners share a class. No linear boundary separates them.
func xor() (x [][]float64, y []int) {
	offsets := []float64{-0.1, 0, 0.1}
	for _, c := range [][2]float64{{-1, -1}, {1, 1}, {-1, 1}, {1, -1}} {
		for _, dx := range offsets {
			for _, dy := range offsets {
				x = append(x, []float64{c[0] + dx, c[1] + dy})
				y = append(y, btoi(c[0] != c[1]))
			}
		}
	}
	return x, y
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestSVCSeparatesXOR(t *testing.T) {
	t.Parallel()

	x, y := xor()
	m := NewSVC(Params{C: 10, Gamma: 1})
	require.NoError(t, m.Fit(x, y, 2))

	assert.InDelta(t, 1.0, accuracy(m, x, y), 1e-12)
	assert.Equal(t, 0, Predict(m, []float64{0.9, 1.1}))
	assert.Equal(t, 1, Predict(m, []float64{-1.1, 0.9}))
	assert.Equal(t, []float64{1, 0}, m.PredictProba([]float64{-1, -1}))

	require.Len(t, m.Machines, 1)
	assert.Positive(t, m.Decision(0, []float64{1, 1}))
	assert.Negative(t, m.Decision(0, []float64{1, -1}))
}

func TestSVCDualConstraints(t *testing.T) {
	t.Parallel()

	x, y := blobs(3, 30, 6)
	m := NewSVC(Params{C: 0.5})
	require.NoError(t, m.Fit(x, y, 3))

	require.Len(t, m.Machines, 3)
	for _, mc := range m.Machines {
		require.NotEmpty(t, mc.Index, "%d vs %d", mc.Pos, mc.Neg)
		require.Len(t, mc.Coef, len(mc.Index))

		sum := 0.0
		for _, c := range mc.Coef {
			assert.LessOrEqual(t, c, 0.5+1e-9)
			assert.GreaterOrEqual(t, c, -0.5-1e-9)
			sum += c
		}
		assert.InDelta(t, 0, sum, 1e-9, "coefficients balance between the two classes")
	}
	assert.Positive(t, m.Gamma, "gamma derived from the training set")
	assert.LessOrEqual(t, len(m.Vectors), len(x))
}

func TestSVCMissingClassVotes(t *testing.T) {
	t.Parallel()

	// Class 1 never appears, so its machines vote for the class that does.
	x := [][]float64{{0}, {0.2}, {5}, {5.2}}
	y := []int{0, 0, 2, 2}
	m := NewSVC(DefaultParams())
	require.NoError(t, m.Fit(x, y, 3))

	assert.Equal(t, 0, Predict(m, []float64{0.1}))
	assert.Equal(t, 2, Predict(m, []float64{5.1}))
	assert.InDelta(t, 0, m.PredictProba([]float64{0.1})[1], 1e-12)
}

func TestSVCSingleClass(t *testing.T) {
	t.Parallel()

	m := NewSVC(DefaultParams())
	require.NoError(t, m.Fit([][]float64{{1}, {2}}, []int{0, 0}, 1))
	assert.Empty(t, m.Machines)
	assert.Equal(t, []float64{1}, m.PredictProba([]float64{3}))
}

func TestSVCRejectsBadHyperparameters(t *testing.T) {
	t.Parallel()

	x, y := [][]float64{{0}, {1}}, []int{0, 1}
	for _, p := range []Params{{C: 0}, {C: -1}, {C: 1, Gamma: -0.5}} {
		err := NewSVC(p).Fit(x, y, 2)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	}
}
