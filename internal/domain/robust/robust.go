// Package robust provides outlier-resistant summary statistics used to
// put heterogeneous score components on a common scale.
package robust

import (
	"math"
	"sort"
)

// madConsistency rescales the median absolute deviation so it estimates
// the standard deviation under a normal-distribution assumption.
const madConsistency = 1.4826

// Stats is a robust location/spread summary of a sample.
type Stats struct {
	Median float64
	MAD    float64 // median absolute deviation from the median, unscaled
}

// Median returns the order-statistic median of sorted. For even lengths
// it is the mean of the two middle elements. Empty input returns 0.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Describe computes the median and MAD of values, ignoring non-finite
// entries. Empty (or all non-finite) input yields the zero Stats.
func Describe(values []float64) Stats {
	clean := finite(values)
	if len(clean) == 0 {
		return Stats{}
	}
	sort.Float64s(clean)
	med := Median(clean)

	devs := make([]float64, len(clean))
	for i, v := range clean {
		devs[i] = math.Abs(v - med)
	}
	sort.Float64s(devs)
	return Stats{Median: med, MAD: Median(devs)}
}

// Z returns the robust z-score of value against s. A zero MAD or a
// non-finite value yields 0 rather than blowing up.
func Z(value float64, s Stats) float64 {
	if !isFinite(value) || s.MAD == 0 {
		return 0
	}
	return (value - s.Median) / (s.MAD * madConsistency)
}

// Percentile returns the linearly interpolated order statistic of values
// at rank in [0, 1], ignoring non-finite entries. Empty input returns 0.
func Percentile(values []float64, rank float64) float64 {
	clean := finite(values)
	if len(clean) == 0 {
		return 0
	}
	sort.Float64s(clean)
	if rank <= 0 {
		return clean[0]
	}
	if rank >= 1 {
		return clean[len(clean)-1]
	}
	pos := rank * float64(len(clean)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return clean[lo]
	}
	frac := pos - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// finite copies values with NaN and infinities dropped.
func finite(values []float64) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			clean = append(clean, v)
		}
	}
	return clean
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
