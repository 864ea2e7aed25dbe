// Package catalog defines the organism profiles that drive synthetic sample
// generation: for each bioremediating organism, the closed range of every
// water-quality measurement in which it survives.
package catalog

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tphakala/microbe-go/internal/errors"
)

// Feature identifies one of the seven water-quality measurements.
type Feature int

const (
	Temperature Feature = iota
	PH
	DissolvedO2
	BOD
	Conductivity
	Salinity
	Nitrate
)

// NumFeatures is the number of measurements per sample.
const NumFeatures = 7

var featureNames = [NumFeatures]string{
	"temperature",
	"ph",
	"dissolved_o2",
	"bod",
	"conductivity",
	"salinity",
	"nitrate",
}

// Features lists all measurements in column order.
func Features() []Feature {
	return []Feature{Temperature, PH, DissolvedO2, BOD, Conductivity, Salinity, Nitrate}
}

// String returns the snake_case identifier used in logs, forms and YAML.
func (f Feature) String() string {
	if f < 0 || int(f) >= NumFeatures {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return featureNames[f]
}

const (
	// BODThreshold is the rounded BOD value above which nitrate-N is drawn
	// from the elevated interval.
	BODThreshold = 10.0

	// NitrateFloor is the lower bound of the elevated nitrate-N interval.
	NitrateFloor = 15.0
)

// Range is a closed interval [Lower, Upper].
type Range struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Contains reports whether v lies within the inclusive bounds.
func (r Range) Contains(v float64) bool {
	return v >= r.Lower && v <= r.Upper
}

// Width returns Upper - Lower.
func (r Range) Width() float64 {
	return r.Upper - r.Lower
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Lower, r.Upper)
}

func (r Range) check() error {
	if math.IsNaN(r.Lower) || math.IsNaN(r.Upper) || math.IsInf(r.Lower, 0) || math.IsInf(r.Upper, 0) {
		return fmt.Errorf("bounds must be finite, got %s", r)
	}
	if r.Lower > r.Upper {
		return fmt.Errorf("lower bound %g exceeds upper bound %g", r.Lower, r.Upper)
	}
	return nil
}

// OrganismProfile is the survival envelope of one organism.
type OrganismProfile struct {
	Name         string `yaml:"name"`
	Temperature  Range  `yaml:"temperature"`  // °C
	PH           Range  `yaml:"ph"`
	DissolvedO2  Range  `yaml:"dissolved_o2"` // mg/L
	BOD          Range  `yaml:"bod"`          // mg/L
	Conductivity Range  `yaml:"conductivity"` // µS/cm
	Salinity     Range  `yaml:"salinity"`     // ppt
	Nitrate      Range  `yaml:"nitrate"`      // nitrate-N, mg/L
}

// Range returns the profile's range for a feature.
func (p *OrganismProfile) Range(f Feature) Range {
	switch f {
	case Temperature:
		return p.Temperature
	case PH:
		return p.PH
	case DissolvedO2:
		return p.DissolvedO2
	case BOD:
		return p.BOD
	case Conductivity:
		return p.Conductivity
	case Salinity:
		return p.Salinity
	case Nitrate:
		return p.Nitrate
	default:
		return Range{}
	}
}

// ElevatedNitrate reports whether the profile can produce a rounded BOD above
// BODThreshold, which switches nitrate-N to the elevated interval.
func (p *OrganismProfile) ElevatedNitrate() bool {
	return p.BOD.Upper > BODThreshold
}

// NitrateRange returns the interval nitrate-N is drawn from for a sample
// whose rounded BOD is bod. Above BODThreshold the interval is
// [max(15, lower), max(15, upper)], which degenerates to the single point 15
// for profiles whose nitrate upper bound is below 15.
func (p *OrganismProfile) NitrateRange(bod float64) Range {
	if bod <= BODThreshold {
		return p.Nitrate
	}
	return Range{
		Lower: math.Max(NitrateFloor, p.Nitrate.Lower),
		Upper: math.Max(NitrateFloor, p.Nitrate.Upper),
	}
}

// NitratePolicy decides what happens when a profile's nitrate upper bound is
// below NitrateFloor while its BOD range reaches past BODThreshold.
type NitratePolicy string

const (
	// PolicyClamp draws from the clamped interval returned by NitrateRange.
	PolicyClamp NitratePolicy = "clamp"
	// PolicyReject refuses such catalogs during validation.
	PolicyReject NitratePolicy = "reject"
)

// ParseNitratePolicy converts a configuration value to a NitratePolicy.
// An empty value selects PolicyClamp.
func ParseNitratePolicy(s string) (NitratePolicy, error) {
	switch NitratePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyClamp:
		return PolicyClamp, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", errors.Newf("unknown nitrate policy %q, expected clamp or reject", s).
			Component("catalog").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Catalog is an ordered, immutable set of organism profiles. The order
// defines the index mapping used when drawing organisms.
type Catalog struct {
	profiles []OrganismProfile
}

// New builds a catalog from profiles. The slice is copied. No validation is
// performed; call Validate before generating.
func New(profiles ...OrganismProfile) *Catalog {
	return &Catalog{profiles: slices.Clone(profiles)}
}

// Len returns the number of profiles. A nil catalog has none.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.profiles)
}

// Profile returns the i-th profile by value.
func (c *Catalog) Profile(i int) OrganismProfile {
	return c.profiles[i]
}

// Profiles returns a copy of all profiles in catalog order.
func (c *Catalog) Profiles() []OrganismProfile {
	if c == nil {
		return nil
	}
	return slices.Clone(c.profiles)
}

// Names returns organism names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.Len())
	for i := range c.Len() {
		names = append(names, c.profiles[i].Name)
	}
	return names
}

// Lookup returns the profile with the given name.
func (c *Catalog) Lookup(name string) (OrganismProfile, bool) {
	for i := range c.Len() {
		if c.profiles[i].Name == name {
			return c.profiles[i], true
		}
	}
	return OrganismProfile{}, false
}

// Validate checks the catalog is usable for generation under policy: it must
// be non-empty, names must be non-empty and unique, and every range finite
// and ordered. Under PolicyReject, every profile that can reach the elevated
// nitrate branch with a nitrate upper bound below NitrateFloor is reported.
func (c *Catalog) Validate(policy NitratePolicy) error {
	if c.Len() == 0 {
		return errors.Newf("catalog is empty").
			Component("catalog").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var problems []string
	seen := make(map[string]bool, c.Len())
	var degenerate []string

	for i := range c.profiles {
		p := &c.profiles[i]
		name := strings.TrimSpace(p.Name)
		switch {
		case name == "":
			problems = append(problems, fmt.Sprintf("profile %d has an empty name", i))
		case seen[name]:
			problems = append(problems, fmt.Sprintf("duplicate organism %q", name))
		}
		seen[name] = true

		for _, f := range Features() {
			if err := p.Range(f).check(); err != nil {
				problems = append(problems, fmt.Sprintf("%s %s: %v", p.Name, f, err))
			}
		}

		if p.ElevatedNitrate() && p.Nitrate.Upper < NitrateFloor {
			degenerate = append(degenerate, p.Name)
		}
	}

	if policy == PolicyReject && len(degenerate) > 0 {
		problems = append(problems, fmt.Sprintf(
			"nitrate range below %g reachable with BOD above %g for: %s",
			NitrateFloor, BODThreshold, strings.Join(degenerate, ", ")))
	}

	if len(problems) > 0 {
		return errors.Newf("invalid catalog: %s", strings.Join(problems, "; ")).
			Component("catalog").
			Category(errors.CategoryConfiguration).
			Context("problems", len(problems)).
			Build()
	}

	return nil
}
