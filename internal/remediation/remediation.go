// Package remediation answers which kinds of pollution a predicted organism
// can remediate. The answers come from a fixed table; there is no per-organism
// logic.
package remediation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tphakala/microbe-go/internal/errors"
)

// Impurity is a kind of pollution an operator can report.
type Impurity string

const (
	Plastic    Impurity = "plastic"
	Organic    Impurity = "organic"
	HeavyMetal Impurity = "heavy metal"
	Pesticide  Impurity = "pesticide"
)

type entry struct {
	impurity    Impurity
	description string
	capable     []string
}

// table is ordered as impurities are displayed.
var table = []entry{
	{
		impurity:    Plastic,
		description: "Plastic materials on the water body",
		capable:     []string{"Ideonella sakaiensis"},
	},
	{
		impurity:    Organic,
		description: "Organic waste such as Slug, Feaces, food, wet waste",
		capable:     []string{"Pseudomonas putida", "Pseudomonas aeruginosa"},
	},
	{
		impurity:    HeavyMetal,
		description: "Sediments deep down.. black/gray/brown, metal sheen",
		capable:     []string{"Pseudomonas putida", "Bacillus cereus", "Acinetobacter baumannii"},
	},
	{
		impurity:    Pesticide,
		description: "Oily films, discoloration, and algal overgrowth",
		capable:     []string{"Pseudomonas aeruginosa"},
	},
}

func lookup(i Impurity) (entry, bool) {
	for _, e := range table {
		if e.impurity == i {
			return e, true
		}
	}
	return entry{}, false
}

// Impurities lists all impurity kinds in display order.
func Impurities() []Impurity {
	out := make([]Impurity, len(table))
	for i, e := range table {
		out[i] = e.impurity
	}
	return out
}

// Description returns the observable sign of the impurity shown to
// operators.
func (i Impurity) Description() string {
	e, _ := lookup(i)
	return e.description
}

// Key returns a form- and flag-friendly identifier, e.g. "heavy-metal".
func (i Impurity) Key() string {
	return strings.ReplaceAll(string(i), " ", "-")
}

// ParseImpurity accepts an impurity kind or its key, case-insensitively.
func ParseImpurity(s string) (Impurity, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", " ")
	norm = strings.ReplaceAll(norm, "_", " ")
	if _, ok := lookup(Impurity(norm)); ok {
		return Impurity(norm), nil
	}
	return "", errors.New(fmt.Errorf("unknown impurity %q", s)).
		Component("remediation").
		Category(errors.CategoryValidation).
		Context("impurity", s).
		Build()
}

// CanRemediate reports whether organism is capable of treating impurity.
func CanRemediate(organism string, impurity Impurity) bool {
	e, ok := lookup(impurity)
	return ok && slices.Contains(e.capable, organism)
}

// Capabilities returns the impurities organism can treat, in display order.
func Capabilities(organism string) []Impurity {
	var out []Impurity
	for _, e := range table {
		if slices.Contains(e.capable, organism) {
			out = append(out, e.impurity)
		}
	}
	return out
}

// Verdict is the answer for one selected impurity.
type Verdict struct {
	Impurity Impurity
	Capable  bool
}

func (v Verdict) String() string {
	if v.Capable {
		return fmt.Sprintf("The predicted microbe will be able to do %s remediation.", v.Impurity)
	}
	return fmt.Sprintf("The predicted microbe will not be able to do %s remediation.", v.Impurity)
}

// Assess returns one verdict per selected impurity, in display order.
// Duplicates and unknown impurities are ignored.
func Assess(organism string, selected []Impurity) []Verdict {
	var out []Verdict
	for _, e := range table {
		if slices.Contains(selected, e.impurity) {
			out = append(out, Verdict{
				Impurity: e.impurity,
				Capable:  slices.Contains(e.capable, organism),
			})
		}
	}
	return out
}
