// Package series holds the time-series batch container shared by fit and
// predict paths. A batch is indexed case, then channel, then timepoint.
// Batches are treated as immutable once handed to an estimator; nothing in
// this package mutates them.
package series

import (
	"fmt"
	"math"
)

// Batch is an ordered collection of cases. Batch[i][c][t] is the value of
// channel c of case i at timepoint t. Cases may have differing timepoint
// counts (variable length); the channel count must be uniform.
type Batch [][][]float64

// NCases returns the number of cases in the batch.
func (b Batch) NCases() int { return len(b) }

// NChannels returns the channel count of the first case, or 0 for an empty
// batch. Validate guarantees the count is uniform across cases.
func (b Batch) NChannels() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// MinTimepoints returns the shortest series length across all cases and
// channels. Interval geometry is resolved against this bound so sampled
// intervals are valid for every case in the batch.
func (b Batch) MinTimepoints() int {
	min := math.MaxInt
	for _, c := range b {
		for _, ch := range c {
			if len(ch) < min {
				min = len(ch)
			}
		}
	}
	if min == math.MaxInt {
		return 0
	}
	return min
}

// EqualLength reports whether every channel of every case has the same
// timepoint count.
func (b Batch) EqualLength() bool {
	if len(b) == 0 {
		return true
	}
	n := -1
	for _, c := range b {
		for _, ch := range c {
			if n == -1 {
				n = len(ch)
			} else if len(ch) != n {
				return false
			}
		}
	}
	return true
}

// Validate checks structural soundness: at least one case, a uniform non-zero
// channel count, and at least one timepoint per channel.
func (b Batch) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("batch is empty")
	}
	nch := len(b[0])
	if nch == 0 {
		return fmt.Errorf("case 0 has no channels")
	}
	for i, c := range b {
		if len(c) != nch {
			return fmt.Errorf("case %d has %d channels, expected %d", i, len(c), nch)
		}
		for ci, ch := range c {
			if len(ch) == 0 {
				return fmt.Errorf("case %d channel %d has no timepoints", i, ci)
			}
		}
	}
	return nil
}
