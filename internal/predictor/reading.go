package predictor

import (
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/errors"
)

// Reading is one set of operator-supplied water-quality measurements.
type Reading struct {
	Temperature  float64 // °C
	PH           float64
	DissolvedO2  float64 // mg/L
	BOD          float64 // mg/L
	Conductivity float64 // µS/cm
	Salinity     float64 // ppt
	Nitrate      float64 // nitrate-N, mg/L
}

// DefaultReading returns the values the input form starts with.
func DefaultReading() Reading {
	return Reading{
		Temperature:  25,
		PH:           7.0,
		DissolvedO2:  8,
		BOD:          5,
		Conductivity: 500,
		Salinity:     2,
		Nitrate:      10,
	}
}

// Values returns the measurements in column order.
func (r Reading) Values() []float64 {
	return []float64{
		r.Temperature,
		r.PH,
		r.DissolvedO2,
		r.BOD,
		r.Conductivity,
		r.Salinity,
		r.Nitrate,
	}
}

// Set assigns a single measurement.
func (r *Reading) Set(f catalog.Feature, v float64) {
	switch f {
	case catalog.Temperature:
		r.Temperature = v
	case catalog.PH:
		r.PH = v
	case catalog.DissolvedO2:
		r.DissolvedO2 = v
	case catalog.BOD:
		r.BOD = v
	case catalog.Conductivity:
		r.Conductivity = v
	case catalog.Salinity:
		r.Salinity = v
	case catalog.Nitrate:
		r.Nitrate = v
	}
}

// Step is the input resolution of f. pH and salinity take one decimal,
// everything else whole numbers.
func Step(f catalog.Feature) float64 {
	switch f {
	case catalog.PH, catalog.Salinity:
		return 0.1
	default:
		return 1
	}
}

// InvalidFeatures returns the measurements that are not finite or fall
// outside their accepted range.
func (r Reading) InvalidFeatures() []catalog.Feature {
	var bad []catalog.Feature
	for i, v := range r.Values() {
		f := catalog.Feature(i)
		if math.IsNaN(v) || math.IsInf(v, 0) || !catalog.ReadingRange(f).Contains(v) {
			bad = append(bad, f)
		}
	}
	return bad
}

// Validate reports every out-of-range measurement in a single validation
// error.
func (r Reading) Validate() error {
	bad := r.InvalidFeatures()
	if len(bad) == 0 {
		return nil
	}
	values := r.Values()
	parts := make([]string, len(bad))
	for i, f := range bad {
		parts[i] = fmt.Sprintf("%s=%g not in %s", f, values[f], catalog.ReadingRange(f))
	}
	return errors.Newf("reading out of range: %s", strings.Join(parts, ", ")).
		Component("predictor").
		Category(errors.CategoryValidation).
		Context("invalid_features", len(bad)).
		Build()
}
