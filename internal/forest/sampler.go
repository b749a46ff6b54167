package forest

import (
	"math/rand"
)

// IntervalSpec is one sampled interval: a contiguous timepoint range within
// one channel of one series view. Specs are generated at fit time, stored on
// the member, and never mutated afterwards.
type IntervalSpec struct {
	View    int `json:"view"`
	Channel int `json:"channel"`
	Start   int `json:"start"`
	Length  int `json:"length"`
}

// viewGeometry is the per-view sampling geometry, resolved once per fit call
// and shared read-only across all member builds.
type viewGeometry struct {
	nTimepoints int
	nChannels   int
	count       int
	minLen      int
	maxLen      int
}

// resolveGeometry evaluates counts and length bounds for every view against
// the fit batch. Bound violations surface as ConfigError here, before any
// sampling. The one deliberate exception: a minimum length larger than the
// series itself degrades to a single full-series interval instead of failing.
func resolveGeometry(cfg *Config, viewTimepoints []int, nChannels int) ([]viewGeometry, error) {
	nViews := len(viewTimepoints)
	geos := make([]viewGeometry, nViews)

	for v, T := range viewTimepoints {
		countSpec := cfg.NIntervals
		if len(cfg.NIntervalsPerView) > 0 {
			countSpec = cfg.NIntervalsPerView[v]
		}
		count, err := countSpec.resolve(T, nViews)
		if err != nil {
			return nil, err
		}

		minSpec := cfg.MinLength
		if len(cfg.MinLengthPerView) > 0 {
			minSpec = cfg.MinLengthPerView[v]
		}
		maxSpec := cfg.MaxLength
		if len(cfg.MaxLengthPerView) > 0 {
			maxSpec = cfg.MaxLengthPerView[v]
		}

		minLen := 3
		if minSpec.isSet() {
			minLen = minSpec.resolve(T)
		}
		maxLen := T
		if maxSpec.isSet() {
			maxLen = maxSpec.resolve(T)
		}

		if minSpec.isSet() && maxSpec.isSet() && minLen > maxLen {
			return nil, configErrorf("view %d: min interval length %d exceeds max %d", v, minLen, maxLen)
		}

		// Clip into [1, T]. A minimum beyond the series collapses to the
		// degenerate full-series interval.
		if maxLen > T {
			maxLen = T
		}
		if maxLen < 1 {
			maxLen = 1
		}
		if minLen > T {
			minLen = T
		}
		if minLen < 1 {
			minLen = 1
		}
		if minLen > maxLen {
			maxLen = minLen
		}

		geos[v] = viewGeometry{
			nTimepoints: T,
			nChannels:   nChannels,
			count:       count,
			minLen:      minLen,
			maxLen:      maxLen,
		}
	}
	return geos, nil
}

// sampleIntervals draws the member's intervals from the resolved geometry.
// Channel, length, and start are each uniform draws from the member-scoped
// generator, so identical seeds reproduce identical intervals.
func sampleIntervals(rng *rand.Rand, geos []viewGeometry) []IntervalSpec {
	var out []IntervalSpec
	for v, g := range geos {
		for i := 0; i < g.count; i++ {
			channel := rng.Intn(g.nChannels)
			length := g.minLen
			if g.maxLen > g.minLen {
				length += rng.Intn(g.maxLen - g.minLen + 1)
			}
			start := 0
			if g.nTimepoints > length {
				start = rng.Intn(g.nTimepoints - length + 1)
			}
			out = append(out, IntervalSpec{View: v, Channel: channel, Start: start, Length: length})
		}
	}
	return out
}
