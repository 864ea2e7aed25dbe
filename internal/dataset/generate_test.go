package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/errors"
)

// isRounded reports whether v has at most two decimal places
func isRounded(v float64) bool {
	return math.Abs(v*100-math.Round(v*100)) < 1e-6
}

func TestGenerateRespectsRanges(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	rows, err := Generate(DefaultSampleCount, cat, NewRandomSource(1))
	require.NoError(t, err)
	require.Len(t, rows, DefaultSampleCount)

	for i := range rows {
		row := &rows[i]
		profile, ok := cat.Lookup(row.Organism)
		require.True(t, ok, "unknown label %q", row.Organism)

		for _, f := range catalog.Features() {
			v := row.Value(f)
			assert.True(t, isRounded(v), "row %d %s=%v not rounded", i, f, v)
			if f == catalog.Nitrate {
				continue
			}
			assert.True(t, profile.Range(f).Contains(v), "row %d %s=%v outside %s", i, f, v, profile.Range(f))
		}
	}
}

func TestGenerateConditionalNitrate(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	rows, err := Generate(DefaultSampleCount, cat, NewRandomSource(2))
	require.NoError(t, err)

	elevated := 0
	for i := range rows {
		row := &rows[i]
		profile, _ := cat.Lookup(row.Organism)

		if row.BOD > catalog.BODThreshold {
			elevated++
			assert.GreaterOrEqual(t, row.Nitrate, catalog.NitrateFloor, "row %d", i)
			assert.LessOrEqual(t, row.Nitrate, math.Max(catalog.NitrateFloor, profile.Nitrate.Upper), "row %d", i)
		} else {
			assert.True(t, profile.Nitrate.Contains(row.Nitrate), "row %d nitrate %v outside %s", i, row.Nitrate, profile.Nitrate)
		}
	}
	assert.Positive(t, elevated, "expected some rows on the elevated nitrate branch")
}

func TestGenerateClampsDegenerateInterval(t *testing.T) {
	t.Parallel()

	alcaligenes, _ := catalog.Default().Lookup("Alcaligenes eutrophus")
	rows, err := Generate(2000, catalog.New(alcaligenes), NewRandomSource(3))
	require.NoError(t, err)

	for i := range rows {
		if rows[i].BOD > catalog.BODThreshold {
			assert.InDelta(t, 15.0, rows[i].Nitrate, 1e-9)
		}
	}
}

func TestGenerateRejectPolicy(t *testing.T) {
	t.Parallel()

	rows, err := Generate(10, catalog.Default(), NewRandomSource(4), WithNitratePolicy(catalog.PolicyReject))
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "Alcaligenes eutrophus")

	putida, _ := catalog.Default().Lookup("Pseudomonas putida")
	rows, err = Generate(10, catalog.New(putida), NewRandomSource(4), WithNitratePolicy(catalog.PolicyReject))
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Generate(500, catalog.Default(), NewRandomSource(42))
	require.NoError(t, err)
	b, err := Generate(500, catalog.Default(), NewRandomSource(42))
	require.NoError(t, err)
	c, err := Generate(500, catalog.Default(), NewRandomSource(43))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateZeroAndNegative(t *testing.T) {
	t.Parallel()

	rows, err := Generate(0, catalog.Default(), NewRandomSource(1))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	rows, err = Generate(-1, catalog.Default(), NewRandomSource(1))
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestGenerateInvalidInputs(t *testing.T) {
	t.Parallel()

	_, err := Generate(5, catalog.New(), NewRandomSource(1))
	require.Error(t, err)

	_, err = Generate(5, nil, NewRandomSource(1))
	require.Error(t, err)

	_, err = Generate(5, catalog.Default(), nil)
	require.Error(t, err)
}

func TestGenerateLabelBalance(t *testing.T) {
	t.Parallel()

	const n = DefaultSampleCount
	rows, err := Generate(n, catalog.Default(), NewRandomSource(2))
	require.NoError(t, err)

	dist := Distribution(rows)
	require.Len(t, dist, 6)
	expected := float64(n) / 6
	for _, c := range dist {
		assert.InEpsilon(t, expected, float64(c.Count), 0.05, "%s has %d rows", c.Organism, c.Count)
	}
}

func TestGenerateObserver(t *testing.T) {
	t.Parallel()

	seen := make(map[string]int)
	rows, err := Generate(300, catalog.Default(), NewRandomSource(9), WithObserver(func(o string) { seen[o]++ }))
	require.NoError(t, err)

	total := 0
	for _, c := range Distribution(rows) {
		assert.Equal(t, c.Count, seen[c.Organism])
		total += seen[c.Organism]
	}
	assert.Equal(t, 300, total)
}
