package forest

import (
	"math"
	"testing"

	"intervalforest/internal/series"
	"intervalforest/internal/stats"
)

func TestExtractFeaturesOrdering(t *testing.T) {
	batch := series.Batch{
		{{1, 2, 3, 4}},
		{{10, 20, 30, 40}},
	}
	intervals := []IntervalSpec{
		{View: 0, Channel: 0, Start: 0, Length: 2},
		{View: 0, Channel: 0, Start: 2, Length: 2},
	}
	atts := []stats.Feature{
		{Name: "mean", Fn: stats.Mean},
		{Name: "min", Fn: stats.Min},
	}

	table, replaced := extractFeatures([]series.Batch{batch}, intervals, atts, 0)
	if replaced != 0 {
		t.Errorf("replaced = %d, want 0", replaced)
	}
	// Intervals outer, attributes inner.
	want := [][]float64{
		{1.5, 1, 3.5, 3},
		{15, 10, 35, 30},
	}
	if len(table) != len(want) {
		t.Fatalf("table has %d rows, want %d", len(table), len(want))
	}
	for r, row := range want {
		for c, v := range row {
			if math.Abs(table[r][c]-v) > 1e-12 {
				t.Errorf("table[%d][%d] = %v, want %v", r, c, table[r][c], v)
			}
		}
	}
}

func TestExtractFeaturesMultiView(t *testing.T) {
	raw := series.Batch{{{1, 3, 6, 10}}}
	diff := series.Difference().Apply(raw)
	intervals := []IntervalSpec{
		{View: 0, Channel: 0, Start: 0, Length: 4},
		{View: 1, Channel: 0, Start: 0, Length: 3},
	}
	atts := []stats.Feature{{Name: "mean", Fn: stats.Mean}}

	table, _ := extractFeatures([]series.Batch{raw, diff}, intervals, atts, 0)
	if got := table[0][0]; math.Abs(got-5) > 1e-12 {
		t.Errorf("raw-view mean = %v, want 5", got)
	}
	if got := table[0][1]; math.Abs(got-3) > 1e-12 {
		t.Errorf("diff-view mean = %v, want 3", got)
	}
}

func TestExtractFeaturesReplacesNonFinite(t *testing.T) {
	batch := series.Batch{{{1, 2, 3}}, {{4, 5, 6}}}
	intervals := []IntervalSpec{{View: 0, Channel: 0, Start: 0, Length: 3}}
	atts := []stats.Feature{
		{Name: "nan", Fn: func([]float64) float64 { return math.NaN() }},
		{Name: "inf", Fn: func([]float64) float64 { return math.Inf(1) }},
		{Name: "mean", Fn: stats.Mean},
	}

	table, replaced := extractFeatures([]series.Batch{batch}, intervals, atts, -7)
	if replaced != 4 {
		t.Errorf("replaced = %d, want 4", replaced)
	}
	for r := range table {
		if table[r][0] != -7 || table[r][1] != -7 {
			t.Errorf("row %d non-finite cells = %v/%v, want the sentinel -7", r, table[r][0], table[r][1])
		}
		if math.IsNaN(table[r][2]) {
			t.Errorf("row %d finite cell was clobbered", r)
		}
	}
}

func TestIntervalSliceClipsShortCases(t *testing.T) {
	short := []float64{1, 2, 3}

	got := intervalSlice(short, IntervalSpec{Start: 1, Length: 10})
	if len(got) != 2 || got[0] != 2 {
		t.Errorf("clipped slice = %v, want [2 3]", got)
	}

	// A start beyond the case end clips to the final point.
	got = intervalSlice(short, IntervalSpec{Start: 5, Length: 4})
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("out-of-range start slice = %v, want [3]", got)
	}
}
