package forecast

import (
	"math"
	"sort"
)

// Percentile returns the nearest-rank percentile p in [0,1] of values, using
// index floor(p*(n-1)) into the ascending order. NaN and infinite values are
// ignored; ok is false when nothing finite remains. values is not modified.
func Percentile(values []float64, p float64) (v float64, ok bool) {
	finite := finiteSorted(values)
	if len(finite) == 0 {
		return 0, false
	}
	return rank(finite, p), true
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func rank(sorted []float64, p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	return sorted[int(math.Floor(p*float64(len(sorted)-1)))]
}
