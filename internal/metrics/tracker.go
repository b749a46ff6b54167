package metrics

import (
	"time"
)

// ForestTracker adapts Metrics to the narrow tracker interface the forest
// package consumes, keeping the core free of collector dependencies.
type ForestTracker struct {
	m *Metrics
}

// NewForestTracker wraps the given metrics for use as a forest.Tracker.
func NewForestTracker(m *Metrics) *ForestTracker {
	return &ForestTracker{m: m}
}

func (t *ForestTracker) MemberBuilt(d time.Duration) {
	t.m.MembersBuilt.Inc()
	t.m.MemberBuildDuration.Observe(d.Seconds())
}

func (t *ForestTracker) MemberRetried() {
	t.m.MemberRetries.Inc()
}

func (t *ForestTracker) NaNReplaced(n int) {
	t.m.NaNReplacements.Add(float64(n))
}

func (t *ForestTracker) ExtractDuration(d time.Duration) {
	t.m.ExtractDuration.Observe(d.Seconds())
}

func (t *ForestTracker) PredictionsServed(n int) {
	t.m.Predictions.Add(float64(n))
}
