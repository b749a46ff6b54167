package forest

import (
	"math"
	"runtime"
	"time"

	"intervalforest/internal/learner"
	"intervalforest/internal/series"
	"intervalforest/internal/stats"
)

// CountTerm is one term of an interval-count specification: either a literal
// count or a rule evaluated against the series length.
type CountTerm struct {
	Literal int
	Rule    string // "sqrt" or "sqrt-div"; empty means Literal
}

// CountSpec is a sum of count terms. A nil spec defaults to a single "sqrt"
// term.
type CountSpec []CountTerm

// Count builds a literal interval count.
func Count(n int) CountSpec { return CountSpec{{Literal: n}} }

// Sqrt builds the round(sqrt(n_timepoints)) rule.
func Sqrt() CountSpec { return CountSpec{{Rule: "sqrt"}} }

// SqrtDiv builds the round(sqrt(n_timepoints)/n_views) rule.
func SqrtDiv() CountSpec { return CountSpec{{Rule: "sqrt-div"}} }

// Plus sums two specs, e.g. forest.Count(4).Plus(forest.Sqrt()).
func (c CountSpec) Plus(o CountSpec) CountSpec { return append(append(CountSpec{}, c...), o...) }

// resolve evaluates the spec against a view's series length. The result is
// never below 1.
func (c CountSpec) resolve(nTimepoints, nViews int) (int, error) {
	if len(c) == 0 {
		c = Sqrt()
	}
	total := 0
	for _, t := range c {
		switch t.Rule {
		case "":
			if t.Literal < 0 {
				return 0, configErrorf("negative interval count %d", t.Literal)
			}
			total += t.Literal
		case "sqrt":
			total += int(math.Round(math.Sqrt(float64(nTimepoints))))
		case "sqrt-div":
			total += int(math.Round(math.Sqrt(float64(nTimepoints)) / float64(nViews)))
		default:
			return 0, configErrorf("unknown interval count rule %q", t.Rule)
		}
	}
	if total < 1 {
		total = 1
	}
	return total, nil
}

// Length is an interval-length bound: an absolute timepoint count or a
// proportion of the series length. The zero value means "unset" and falls
// back to the per-bound default (3 for the minimum, the full series for the
// maximum).
type Length struct {
	Abs  int
	Prop float64
}

// AbsLength builds an absolute length bound.
func AbsLength(n int) Length { return Length{Abs: n} }

// PropLength builds a proportional length bound.
func PropLength(p float64) Length { return Length{Prop: p} }

func (l Length) isSet() bool { return l.Abs != 0 || l.Prop != 0 }

// resolve turns the bound into a timepoint count. Proportions round to at
// least 1.
func (l Length) resolve(nTimepoints int) int {
	if l.Abs != 0 {
		return l.Abs
	}
	n := int(math.Round(l.Prop * float64(nTimepoints)))
	if n < 1 {
		n = 1
	}
	return n
}

// AttSubsample selects how many attributes each member draws from the full
// battery. The zero value keeps all attributes in registration order. K takes
// precedence over Frac when both are set.
type AttSubsample struct {
	K    int
	Frac float64
}

func (a AttSubsample) isSet() bool { return a.K != 0 || a.Frac != 0 }

// Config is the full construction surface of the forest.
type Config struct {
	// NEstimators is the member count when no time limit is set. Default 200.
	NEstimators int
	// NIntervals applies to every view unless NIntervalsPerView overrides it.
	// Default "sqrt".
	NIntervals CountSpec
	// NIntervalsPerView gives each series view its own count spec; length
	// must match the view count when set.
	NIntervalsPerView []CountSpec
	// MinLength / MaxLength bound sampled interval lengths. Defaults: 3 and
	// the full series.
	MinLength Length
	MaxLength Length
	// MinLengthPerView / MaxLengthPerView override the bounds per view.
	MinLengthPerView []Length
	MaxLengthPerView []Length
	// AttSubsample controls per-member attribute subsampling.
	AttSubsample AttSubsample
	// TimeLimit switches construction to contracting: members are built in
	// batches until the wall-clock budget is exceeded or
	// ContractMaxEstimators is reached. Zero disables contracting.
	TimeLimit time.Duration
	// ContractMaxEstimators caps contracted construction. Default 500.
	ContractMaxEstimators int
	// Seed drives all sampling. Zero seeds from the clock; any other value
	// makes fit and predict fully reproducible.
	Seed int64
	// NJobs bounds concurrent member builds; -1 uses all cores. Default 1.
	NJobs int
	// ReplaceNaN substitutes non-finite feature values. Default 0.
	ReplaceNaN float64
	// Attributes is the full feature battery; nil uses stats.Registry().
	Attributes []stats.Feature
	// Base is the per-member learner; nil uses learner.NewTree().
	Base learner.Learner
	// Views are the series representations intervals are sampled from; nil
	// means the raw series only.
	Views []series.Transform
	// OnProgress, when set, is invoked after every build batch.
	OnProgress func(Progress)
	// Tracker receives build/predict observations; nil disables tracking.
	Tracker Tracker
}

// Progress describes construction state at a batch boundary.
type Progress struct {
	MembersBuilt int
	Target       int
	Elapsed      time.Duration
	Done         bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.NEstimators == 0 {
		out.NEstimators = 200
	}
	if out.ContractMaxEstimators == 0 {
		out.ContractMaxEstimators = 500
	}
	if out.NJobs == 0 {
		out.NJobs = 1
	}
	if out.Attributes == nil {
		out.Attributes = stats.Registry()
	}
	if out.Base == nil {
		out.Base = learner.NewTree()
	}
	if len(out.Views) == 0 {
		out.Views = []series.Transform{series.Raw()}
	}
	return out
}

// validate performs the eager checks that do not depend on data geometry.
func (c *Config) validate() error {
	if c.NEstimators < 0 {
		return configErrorf("n_estimators must be positive, got %d", c.NEstimators)
	}
	if c.ContractMaxEstimators < 0 {
		return configErrorf("contract_max_n_estimators must be positive, got %d", c.ContractMaxEstimators)
	}
	if c.NJobs < -1 {
		return configErrorf("n_jobs must be -1 or positive, got %d", c.NJobs)
	}
	nViews := len(c.Views)
	if nViews == 0 {
		nViews = 1
	}
	if len(c.NIntervalsPerView) != 0 && len(c.NIntervalsPerView) != nViews {
		return configErrorf("n_intervals given for %d views, have %d", len(c.NIntervalsPerView), nViews)
	}
	if len(c.MinLengthPerView) != 0 && len(c.MinLengthPerView) != nViews {
		return configErrorf("min_interval_length given for %d views, have %d", len(c.MinLengthPerView), nViews)
	}
	if len(c.MaxLengthPerView) != 0 && len(c.MaxLengthPerView) != nViews {
		return configErrorf("max_interval_length given for %d views, have %d", len(c.MaxLengthPerView), nViews)
	}
	if s := c.AttSubsample; s.isSet() {
		n := len(c.Attributes)
		if n == 0 {
			n = len(stats.Registry())
		}
		if s.K < 0 {
			return configErrorf("att_subsample_size must be positive, got %d", s.K)
		}
		if s.K > n {
			return configErrorf("att_subsample_size %d exceeds %d registered attributes", s.K, n)
		}
		if s.K == 0 && (s.Frac <= 0 || s.Frac > 1) {
			return configErrorf("att_subsample_size fraction must be in (0, 1], got %v", s.Frac)
		}
	}
	return nil
}

func (c *Config) parallelism() int {
	if c.NJobs == -1 {
		return runtime.NumCPU()
	}
	if c.NJobs < 1 {
		return 1
	}
	return c.NJobs
}
