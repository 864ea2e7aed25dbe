package catalog

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/errors"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := Default()
	require.Equal(t, 6, c.Len())
	assert.Equal(t, []string{
		"Ideonella sakaiensis",
		"Pseudomonas putida",
		"Pseudomonas aeruginosa",
		"Bacillus cereus",
		"Acinetobacter baumannii",
		"Alcaligenes eutrophus",
	}, c.Names())

	p, ok := c.Lookup("Acinetobacter baumannii")
	require.True(t, ok)
	assert.Equal(t, Range{400, 1000}, p.Conductivity)
	assert.Equal(t, Range{15, 40}, p.Nitrate)

	_, ok = c.Lookup("Escherichia coli")
	assert.False(t, ok)
}

func TestCatalogIsImmutable(t *testing.T) {
	t.Parallel()

	profiles := Default().Profiles()
	c := New(profiles...)

	profiles[0].Name = "mutated"
	got := c.Profiles()
	got[1].Name = "mutated too"

	assert.Equal(t, "Ideonella sakaiensis", c.Profile(0).Name)
	assert.Equal(t, "Pseudomonas putida", c.Profile(1).Name)
}

func TestValidateDefaultCatalog(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate(PolicyClamp))

	err := Default().Validate(PolicyReject)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Contains(t, err.Error(), "Alcaligenes eutrophus")
	assert.NotContains(t, err.Error(), "Pseudomonas aeruginosa", "aeruginosa reaches 30 mg/L nitrate")
}

func TestValidateRejectsBadCatalogs(t *testing.T) {
	t.Parallel()

	good := Default().Profile(0)
	reversed := good
	reversed.Name = "Reversed"
	reversed.PH = Range{8, 6}
	infinite := good
	infinite.Name = "Infinite"
	infinite.Salinity = Range{0, math.Inf(1)}
	unnamed := good
	unnamed.Name = "  "

	tests := []struct {
		name    string
		catalog *Catalog
		want    string
	}{
		{"nil", nil, "empty"},
		{"empty", New(), "empty"},
		{"duplicate", New(good, good), "duplicate organism"},
		{"reversed", New(reversed), "Reversed ph"},
		{"non-finite", New(infinite), "finite"},
		{"unnamed", New(unnamed), "empty name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.catalog.Validate(PolicyClamp)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNitrateRange(t *testing.T) {
	t.Parallel()

	c := Default()
	aeruginosa, _ := c.Lookup("Pseudomonas aeruginosa")
	alcaligenes, _ := c.Lookup("Alcaligenes eutrophus")

	assert.Equal(t, Range{10, 30}, aeruginosa.NitrateRange(10), "threshold itself uses the full range")
	assert.Equal(t, Range{15, 30}, aeruginosa.NitrateRange(10.01))
	assert.Equal(t, Range{15, 15}, alcaligenes.NitrateRange(12.5), "clamped to a point")
	assert.True(t, alcaligenes.ElevatedNitrate())

	putida, _ := c.Lookup("Pseudomonas putida")
	assert.False(t, putida.ElevatedNitrate())
}

func TestParseNitratePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseNitratePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyClamp, p)

	p, err = ParseNitratePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParseNitratePolicy("ignore")
	require.Error(t, err)
}

func TestFeatureNames(t *testing.T) {
	t.Parallel()

	assert.Len(t, Features(), NumFeatures)
	assert.Equal(t, "dissolved_o2", DissolvedO2.String())
	assert.Equal(t, "feature(9)", Feature(9).String())

	p := Default().Profile(0)
	assert.Equal(t, p.BOD, p.Range(BOD))
	assert.Equal(t, Range{}, p.Range(Feature(-1)))
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, Default().SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Profiles(), loaded.Profiles())
}

func TestReadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader("organisms:\n  - name: X\n    tempature: {lower: 1, upper: 2}\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestReadEmptyDocument(t *testing.T) {
	t.Parallel()

	c, err := Read(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestReadingRangesCoverDefaultCatalog(t *testing.T) {
	t.Parallel()

	require.Len(t, ReadingRanges(), NumFeatures)
	for _, p := range Default().Profiles() {
		for _, f := range Features() {
			r, accepted := p.Range(f), ReadingRange(f)
			assert.GreaterOrEqual(t, r.Lower, accepted.Lower, "%s %s", p.Name, f)
			assert.LessOrEqual(t, r.Upper, accepted.Upper, "%s %s", p.Name, f)
		}
	}
}

func TestReadingRangesReturnsCopy(t *testing.T) {
	t.Parallel()

	want := ReadingRange(Temperature)
	ranges := ReadingRanges()
	ranges[Temperature] = Range{Lower: -100, Upper: 100}

	assert.Equal(t, want, ReadingRange(Temperature))
	assert.Equal(t, want, ReadingRanges()[Temperature])
}
