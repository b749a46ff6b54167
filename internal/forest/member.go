package forest

import (
	"math/rand"
	"time"

	"intervalforest/internal/learner"
	"intervalforest/internal/series"
	"intervalforest/internal/stats"
)

// Member is one unit of the ensemble: a fixed interval/attribute geometry
// plus one fitted base learner. Immutable once built.
type Member struct {
	Index      int
	Intervals  []IntervalSpec
	Attributes []stats.Feature
	fitted     learner.Fitted
}

// AttributeNames returns the member's attribute selection in column order.
func (m *Member) AttributeNames() []string {
	names := make([]string, len(m.Attributes))
	for i, a := range m.Attributes {
		names[i] = a.Name
	}
	return names
}

// memberSeed derives the member-scoped seed from the ensemble master seed and
// the member index. The derivation is a splitmix-style mix so neighbouring
// indices land far apart, and it depends only on (master, index), keeping
// results identical whatever order members are built in.
func memberSeed(master int64, index int) int64 {
	z := uint64(master) + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// buildMember runs one (sample, subsample, extract, fit) unit. A learner fit
// failure is retried once with fresh sampling from the same member generator;
// a second failure surfaces as MemberBuildError.
func buildMember(index int, cfg *Config, geos []viewGeometry, views []series.Batch, targets []float64, tracker Tracker) (*Member, error) {
	rng := rand.New(rand.NewSource(memberSeed(cfg.Seed, index)))

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		start := time.Now()
		intervals := sampleIntervals(rng, geos)
		atts := subsampleAttributes(rng, cfg.Attributes, cfg.AttSubsample)

		extractStart := time.Now()
		table, replaced := extractFeatures(views, intervals, atts, cfg.ReplaceNaN)
		tracker.ExtractDuration(time.Since(extractStart))
		if replaced > 0 {
			tracker.NaNReplaced(replaced)
		}

		fitted, err := cfg.Base.Fit(table, targets)
		if err != nil {
			lastErr = err
			tracker.MemberRetried()
			continue
		}

		tracker.MemberBuilt(time.Since(start))
		return &Member{
			Index:      index,
			Intervals:  intervals,
			Attributes: atts,
			fitted:     fitted,
		}, nil
	}
	return nil, &MemberBuildError{Member: index, Err: lastErr}
}

// predictMember replays the member's stored geometry on new views and queries
// the fitted learner.
func (m *Member) predict(views []series.Batch, replaceNaN float64, tracker Tracker) []float64 {
	start := time.Now()
	table, replaced := extractFeatures(views, m.Intervals, m.Attributes, replaceNaN)
	tracker.ExtractDuration(time.Since(start))
	if replaced > 0 {
		tracker.NaNReplaced(replaced)
	}
	return m.fitted.Predict(table)
}
