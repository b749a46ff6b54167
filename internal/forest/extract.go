package forest

import (
	"math"

	"intervalforest/internal/series"
	"intervalforest/internal/stats"
)

// extractFeatures builds the member's feature table: one row per case, one
// column per (interval, attribute) pair with intervals outer and attributes
// inner. This ordering is identical at fit and predict time for a member;
// the base learner's column semantics depend on it.
//
// Non-finite results are substituted with replaceNaN immediately after each
// attribute call, before anything reaches the learner. The substitution count
// is returned for tracking.
func extractFeatures(views []series.Batch, intervals []IntervalSpec, atts []stats.Feature, replaceNaN float64) ([][]float64, int) {
	nCases := views[0].NCases()
	nCols := len(intervals) * len(atts)
	replaced := 0

	table := make([][]float64, nCases)
	for c := 0; c < nCases; c++ {
		row := make([]float64, 0, nCols)
		for _, iv := range intervals {
			slice := intervalSlice(views[iv.View][c][iv.Channel], iv)
			for _, att := range atts {
				v := att.Fn(slice)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					v = replaceNaN
					replaced++
				}
				row = append(row, v)
			}
		}
		table[c] = row
	}
	return table, replaced
}

// intervalSlice slices one channel for an interval. Geometry is resolved
// against the shortest fit-time series, so in the common case this is a plain
// re-slice. A predict-time case shorter than the interval clips to the case
// end, mirroring the permissive degenerate-interval policy.
func intervalSlice(ch []float64, iv IntervalSpec) []float64 {
	start := iv.Start
	if start >= len(ch) {
		start = len(ch) - 1
	}
	end := start + iv.Length
	if end > len(ch) {
		end = len(ch)
	}
	return ch[start:end]
}
