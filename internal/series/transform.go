package series

// Transform is a per-channel series view. An estimator may extract intervals
// from several transformed views of the same input in parallel; the zero Fn
// means the raw series is used unchanged.
type Transform struct {
	Name string
	Fn   func([]float64) []float64
}

// Raw is the identity view.
func Raw() Transform {
	return Transform{Name: "raw"}
}

// Difference returns the first-order difference view. The transformed series
// is one timepoint shorter than its input.
func Difference() Transform {
	return Transform{
		Name: "diff",
		Fn: func(x []float64) []float64 {
			if len(x) < 2 {
				return []float64{0}
			}
			out := make([]float64, len(x)-1)
			for i := 1; i < len(x); i++ {
				out[i-1] = x[i] - x[i-1]
			}
			return out
		},
	}
}

// Apply materializes the view for a whole batch. The raw view returns the
// input batch unchanged (no copy); transformed views allocate fresh slices and
// never touch the input.
func (t Transform) Apply(b Batch) Batch {
	if t.Fn == nil {
		return b
	}
	out := make(Batch, len(b))
	for i, c := range b {
		out[i] = make([][]float64, len(c))
		for ci, ch := range c {
			out[i][ci] = t.Fn(ch)
		}
	}
	return out
}
