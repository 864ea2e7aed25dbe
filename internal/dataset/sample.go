// Package dataset generates, persists and summarises the synthetic
// water-quality table used to train the organism classifier.
package dataset

import (
	"math"

	"github.com/tphakala/microbe-go/internal/catalog"
)

// SampleRow is one labelled observation. Measurements are rounded to two
// decimal places when the row is created and never modified afterwards.
type SampleRow struct {
	Temperature  float64 // °C
	PH           float64
	DissolvedO2  float64 // mg/L
	BOD          float64 // mg/L
	Conductivity float64 // µS/cm
	Salinity     float64 // ppt
	Nitrate      float64 // nitrate-N, mg/L
	Organism     string
}

// Features returns the measurements in column order.
func (r *SampleRow) Features() []float64 {
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

// Value returns a single measurement.
func (r *SampleRow) Value(f catalog.Feature) float64 {
	switch f {
	case catalog.Temperature:
		return r.Temperature
	case catalog.PH:
		return r.PH
	case catalog.DissolvedO2:
		return r.DissolvedO2
	case catalog.BOD:
		return r.BOD
	case catalog.Conductivity:
		return r.Conductivity
	case catalog.Salinity:
		return r.Salinity
	case catalog.Nitrate:
		return r.Nitrate
	default:
		return math.NaN()
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Matrix splits rows into a feature matrix and a label column.
func Matrix(rows []SampleRow) (x [][]float64, labels []string) {
	x = make([][]float64, len(rows))
	labels = make([]string, len(rows))
	for i := range rows {
		x[i] = rows[i].Features()
		labels[i] = rows[i].Organism
	}
	return x, labels
}
