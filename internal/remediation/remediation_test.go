package remediation

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/errors"
)

func TestCapabilityTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		organism string
		want     []Impurity
	}{
		{"Ideonella sakaiensis", []Impurity{Plastic}},
		{"Pseudomonas putida", []Impurity{Organic, HeavyMetal}},
		{"Pseudomonas aeruginosa", []Impurity{Organic, Pesticide}},
		{"Bacillus cereus", []Impurity{HeavyMetal}},
		{"Acinetobacter baumannii", []Impurity{HeavyMetal}},
		{"Alcaligenes eutrophus", nil},
		{"Escherichia coli", nil},
	}

	for _, tt := range tests {
		t.Run(tt.organism, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Capabilities(tt.organism))
			for _, i := range Impurities() {
				assert.Equal(t, slices.Contains(tt.want, i), CanRemediate(tt.organism, i), "%s", i)
			}
		})
	}
}

func TestAssessOrderAndText(t *testing.T) {
	t.Parallel()

	verdicts := Assess("Pseudomonas putida", []Impurity{Pesticide, Plastic, HeavyMetal, Plastic})
	require.Len(t, verdicts, 3)

	assert.Equal(t, "The predicted microbe will not be able to do plastic remediation.", verdicts[0].String())
	assert.Equal(t, "The predicted microbe will be able to do heavy metal remediation.", verdicts[1].String())
	assert.Equal(t, "The predicted microbe will not be able to do pesticide remediation.", verdicts[2].String())

	assert.Empty(t, Assess("Pseudomonas putida", nil))
}

func TestParseImpurity(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Impurity{
		"plastic":     Plastic,
		"Organic":     Organic,
		"heavy-metal": HeavyMetal,
		"heavy metal": HeavyMetal,
		"HEAVY_METAL": HeavyMetal,
		" pesticide ": Pesticide,
	} {
		got, err := ParseImpurity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseImpurity("radioactive")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestImpurityMetadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Impurity{Plastic, Organic, HeavyMetal, Pesticide}, Impurities())
	assert.Equal(t, "heavy-metal", HeavyMetal.Key())
	assert.Equal(t, "Plastic materials on the water body", Plastic.Description())
	assert.Empty(t, Impurity("unknown").Description())
}
