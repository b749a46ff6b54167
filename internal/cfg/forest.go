package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"intervalforest/internal/forest"
	"intervalforest/internal/series"
)

// ForestConfig translates the string-typed settings into the forest's typed
// configuration surface.
func (s *Settings) ForestConfig() (forest.Config, error) {
	count, err := parseCountSpec(s.NIntervals)
	if err != nil {
		return forest.Config{}, err
	}
	minLen, err := parseLength(s.MinIntervalLength)
	if err != nil {
		return forest.Config{}, err
	}
	maxLen, err := parseLength(s.MaxIntervalLength)
	if err != nil {
		return forest.Config{}, err
	}
	att, err := parseAttSubsample(s.AttSubsampleSize)
	if err != nil {
		return forest.Config{}, err
	}

	cfg := forest.Config{
		NEstimators:           s.NEstimators,
		NIntervals:            count,
		MinLength:             minLen,
		MaxLength:             maxLen,
		AttSubsample:          att,
		TimeLimit:             s.TimeLimit,
		ContractMaxEstimators: s.ContractMaxEstimators,
		Seed:                  s.Seed,
		NJobs:                 s.NJobs,
		ReplaceNaN:            s.ReplaceNaN,
	}
	if s.DiffView {
		cfg.Views = []series.Transform{series.Raw(), series.Difference()}
	}
	return cfg, nil
}

// parseCountSpec parses an interval-count expression: "sqrt", "sqrt-div", a
// plain integer, or a "+"-joined sum of those, e.g. "4+sqrt". Empty means the
// default ("sqrt").
func parseCountSpec(v string) (forest.CountSpec, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	var spec forest.CountSpec
	for _, term := range strings.Split(v, "+") {
		term = strings.TrimSpace(term)
		switch term {
		case "sqrt":
			spec = spec.Plus(forest.Sqrt())
		case "sqrt-div":
			spec = spec.Plus(forest.SqrtDiv())
		default:
			n, err := strconv.Atoi(term)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid interval count term %q", term)
			}
			spec = spec.Plus(forest.Count(n))
		}
	}
	return spec, nil
}

// parseLength parses an interval-length bound: an integer timepoint count or
// a decimal proportion of the series length. Empty means unset.
func parseLength(v string) (forest.Length, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return forest.Length{}, nil
	}
	if strings.Contains(v, ".") {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p <= 0 || p > 1 {
			return forest.Length{}, fmt.Errorf("invalid interval length proportion %q", v)
		}
		return forest.PropLength(p), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return forest.Length{}, fmt.Errorf("invalid interval length %q", v)
	}
	return forest.AbsLength(n), nil
}

// parseAttSubsample parses the attribute subsample size: an integer count or
// a decimal fraction. Empty keeps the whole battery.
func parseAttSubsample(v string) (forest.AttSubsample, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return forest.AttSubsample{}, nil
	}
	if strings.Contains(v, ".") {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p <= 0 || p > 1 {
			return forest.AttSubsample{}, fmt.Errorf("invalid attribute subsample fraction %q", v)
		}
		return forest.AttSubsample{Frac: p}, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return forest.AttSubsample{}, fmt.Errorf("invalid attribute subsample size %q", v)
	}
	return forest.AttSubsample{K: n}, nil
}
