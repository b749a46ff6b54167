// Package stats provides the battery of summary statistics applied to
// interval slices. Every function is pure: it maps a numeric sequence to a
// single scalar and has no side effects. Functions may return NaN or Inf on
// degenerate input; callers are expected to substitute such values.
package stats

import (
	"math"
	"sort"
)

// Func maps a series slice to one scalar characteristic.
type Func func(x []float64) float64

// Feature pairs a registered function with its stable name. Registration
// order in Registry defines the default attribute order.
type Feature struct {
	Name string
	Fn   Func
}

// Registry returns the full attribute battery in registration order. The
// returned slice is freshly allocated; callers may reorder or subset it.
func Registry() []Feature {
	return []Feature{
		{"mean", Mean},
		{"std", StdDev},
		{"slope", Slope},
		{"min", Min},
		{"max", Max},
		{"median", Median},
		{"iqr", IQR},
		{"energy", Energy},
		{"mean_abs_change", MeanAbsChange},
		{"mean_crossings", MeanCrossings},
		{"autocorr", AutocorrLag1},
		{"range_ratio", RangeRatio},
	}
}

// Lookup finds a registered function by name.
func Lookup(name string) (Func, bool) {
	for _, f := range Registry() {
		if f.Name == name {
			return f.Fn, true
		}
	}
	return nil, false
}

// Mean returns the arithmetic mean.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

// StdDev returns the population standard deviation.
func StdDev(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	m := Mean(x)
	var s float64
	for _, v := range x {
		d := v - m
		s += d * d
	}
	v := s / float64(len(x))
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

// Slope returns the least-squares slope against the timepoint index.
func Slope(x []float64) float64 {
	n := float64(len(x))
	if len(x) < 2 {
		return math.NaN()
	}
	// x-axis is 0..n-1, so its mean and variance are closed-form.
	mt := (n - 1) / 2
	mx := Mean(x)
	var num, den float64
	for i, v := range x {
		dt := float64(i) - mt
		num += dt * (v - mx)
		den += dt * dt
	}
	return num / den
}

// Min returns the smallest value.
func Min(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value.
func Max(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Median returns the middle value, averaging the two central values for
// even-length input.
func Median(x []float64) float64 {
	return quantile(x, 0.5)
}

// IQR returns the interquartile range.
func IQR(x []float64) float64 {
	return quantile(x, 0.75) - quantile(x, 0.25)
}

// Energy returns the sum of squared values.
func Energy(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	var s float64
	for _, v := range x {
		s += v * v
	}
	return s
}

// MeanAbsChange returns the mean absolute difference between consecutive
// timepoints.
func MeanAbsChange(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	var s float64
	for i := 1; i < len(x); i++ {
		s += math.Abs(x[i] - x[i-1])
	}
	return s / float64(len(x)-1)
}

// MeanCrossings counts how often the series crosses its own mean.
func MeanCrossings(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	m := Mean(x)
	var n float64
	for i := 1; i < len(x); i++ {
		if (x[i-1] < m) != (x[i] < m) {
			n++
		}
	}
	return n
}

// AutocorrLag1 returns the lag-one autocorrelation. Constant series yield
// NaN (zero variance), which the extraction layer substitutes.
func AutocorrLag1(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	m := Mean(x)
	var num, den float64
	for i, v := range x {
		d := v - m
		den += d * d
		if i > 0 {
			num += d * (x[i-1] - m)
		}
	}
	return num / den
}

// RangeRatio returns the value range divided by the absolute mean level. A
// zero-mean interval yields Inf, substituted downstream.
func RangeRatio(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return (Max(x) - Min(x)) / math.Abs(Mean(x))
}

func quantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo]*(1-frac) + s[hi]*frac
}
