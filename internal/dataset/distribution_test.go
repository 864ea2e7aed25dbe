package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDistributionOrdering(t *testing.T) {
	t.Parallel()

	rows := []SampleRow{
		{Organism: "b"}, {Organism: "a"}, {Organism: "c"},
		{Organism: "c"}, {Organism: "b"}, {Organism: "c"},
	}

	dist := Distribution(rows)
	require.Len(t, dist, 3)
	assert.Equal(t, "c", dist[0].Organism)
	assert.Equal(t, 3, dist[0].Count)
	assert.InDelta(t, 0.5, dist[0].Share, 1e-9)
	assert.Equal(t, "b", dist[1].Organism)
	assert.Equal(t, "a", dist[2].Organism)

	assert.Empty(t, Distribution(nil))
}

func TestDistributionTiesByName(t *testing.T) {
	t.Parallel()

	dist := Distribution([]SampleRow{{Organism: "z"}, {Organism: "m"}, {Organism: "a"}})
	assert.Equal(t, "a", dist[0].Organism)
	assert.Equal(t, "m", dist[1].Organism)
	assert.Equal(t, "z", dist[2].Organism)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	dist := []ClassCount{
		{Organism: "Bacillus cereus", Count: 1700, Share: 0.5},
		{Organism: "Pseudomonas putida", Count: 1700, Share: 0.5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, dist, language.English))

	out := buf.String()
	assert.Contains(t, out, "Bioremediating Organism")
	assert.Contains(t, out, "1,700")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "3,400")
}

func TestPlotDistribution(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dist.png")
	dist := []ClassCount{{Organism: "a", Count: 3}, {Organism: "b", Count: 1}}
	require.NoError(t, PlotDistribution(dist, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.Error(t, PlotDistribution(nil, path))
}
