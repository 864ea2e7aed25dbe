// Package metrics provides the Prometheus collectors of the generator,
// trainer, predictor and web front-end.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/microbe-go/internal/errors"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache result label values.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Histogram bucket layouts.
var (
	// trainingBuckets span 10ms to ~5 minutes.
	trainingBuckets = prometheus.ExponentialBuckets(0.01, 2, 16)
	// fastBuckets span 0.1ms to ~1.6s.
	fastBuckets = prometheus.ExponentialBuckets(0.0001, 2, 15)
)

// errorType maps an error to a low-cardinality label value.
func errorType(err error) string {
	if err == nil {
		return "none"
	}
	return string(errors.CategoryOf(err))
}

// seconds converts a duration for histogram observation.
func seconds(d time.Duration) float64 {
	return d.Seconds()
}
