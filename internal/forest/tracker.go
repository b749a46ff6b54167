package forest

import "time"

// Tracker receives build and inference observations from the forest. The
// concrete Prometheus implementation lives in internal/metrics so this
// package stays free of collector dependencies.
type Tracker interface {
	MemberBuilt(d time.Duration)
	MemberRetried()
	NaNReplaced(n int)
	ExtractDuration(d time.Duration)
	PredictionsServed(n int)
}

// noopTracker is installed when no tracker is configured.
type noopTracker struct{}

func (noopTracker) MemberBuilt(time.Duration)     {}
func (noopTracker) MemberRetried()                {}
func (noopTracker) NaNReplaced(int)               {}
func (noopTracker) ExtractDuration(time.Duration) {}
func (noopTracker) PredictionsServed(int)         {}
