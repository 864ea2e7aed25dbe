package catalog

import "slices"

// readingRanges are the bounds accepted from an operator for each
// measurement. They cover every organism's survival range and are also the
// fixed ranges of the min-max feature scaler.
var readingRanges = [NumFeatures]Range{
	Temperature:  {Lower: 20, Upper: 30},
	PH:           {Lower: 6, Upper: 9},
	DissolvedO2:  {Lower: 5, Upper: 14},
	BOD:          {Lower: 1, Upper: 20},
	Conductivity: {Lower: 50, Upper: 1500},
	Salinity:     {Lower: 0, Upper: 5},
	Nitrate:      {Lower: 0, Upper: 60},
}

// ReadingRange returns the accepted input range for f.
func ReadingRange(f Feature) Range {
	return readingRanges[f]
}

// ReadingRanges returns a copy of the accepted input ranges in column order.
func ReadingRanges() []Range {
	return slices.Clone(readingRanges[:])
}
