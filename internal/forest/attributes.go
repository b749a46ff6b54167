package forest

import (
	"math"
	"math/rand"

	"intervalforest/internal/stats"
)

// subsampleAttributes picks the member's attribute selection from the full
// battery. With no subsample configured every attribute is kept in
// registration order. Otherwise k attributes are drawn without replacement;
// the randomized draw order is kept, since it defines the member's feature
// column layout.
func subsampleAttributes(rng *rand.Rand, full []stats.Feature, spec AttSubsample) []stats.Feature {
	if !spec.isSet() {
		out := make([]stats.Feature, len(full))
		copy(out, full)
		return out
	}

	k := spec.K
	if k == 0 {
		k = int(math.Round(spec.Frac * float64(len(full))))
		if k < 1 {
			k = 1
		}
	}
	if k > len(full) {
		k = len(full)
	}

	// Partial Fisher-Yates: the first k slots end up holding the draw.
	idx := make([]int, len(full))
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]stats.Feature, k)
	for i := 0; i < k; i++ {
		out[i] = full[idx[i]]
	}
	return out
}
