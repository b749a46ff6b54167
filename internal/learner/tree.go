package learner

import (
	"fmt"
	"math"
	"sort"
)

// Tree is a regression tree learner splitting on variance reduction.
type Tree struct {
	MaxDepth int // -1 grows until MinLeaf/MinSplit stop it
	MinSplit int // smallest node eligible for splitting
	MinLeaf  int // smallest permitted child node
}

// NewTree returns a tree with the default growth limits.
func NewTree() *Tree {
	return &Tree{MaxDepth: -1, MinSplit: 2, MinLeaf: 1}
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// FittedTree is a trained regression tree. It is immutable after Fit and safe
// for concurrent prediction.
type FittedTree struct {
	root      *treeNode
	nFeatures int
}

// Fit grows a tree on the feature matrix X and targets y.
func (t *Tree) Fit(X [][]float64, y []float64) (Fitted, error) {
	if len(X) == 0 || len(y) == 0 {
		return nil, fmt.Errorf("tree fit: empty training set")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("tree fit: %d rows but %d targets", len(X), len(y))
	}
	for i, row := range X {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("tree fit: non-finite value in row %d", i)
			}
		}
	}

	minSplit := t.MinSplit
	if minSplit < 2 {
		minSplit = 2
	}
	minLeaf := t.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	g := &grower{X: X, y: y, minSplit: minSplit, minLeaf: minLeaf, maxDepth: t.MaxDepth}
	root := g.grow(idx, 0)
	return &FittedTree{root: root, nFeatures: len(X[0])}, nil
}

// Predict returns one prediction per row of X.
func (f *FittedTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		n := f.root
		for !n.leaf {
			if row[n.feature] <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out[i] = n.value
	}
	return out
}

type grower struct {
	X        [][]float64
	y        []float64
	minSplit int
	minLeaf  int
	maxDepth int
}

func (g *grower) grow(idx []int, depth int) *treeNode {
	mean := g.meanOf(idx)
	if len(idx) < g.minSplit || (g.maxDepth >= 0 && depth >= g.maxDepth) || g.constantTarget(idx) {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := g.bestSplit(idx)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if g.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.minLeaf || len(right) < g.minLeaf {
		return &treeNode{leaf: true, value: mean}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      g.grow(left, depth+1),
		right:     g.grow(right, depth+1),
	}
}

// bestSplit scans every feature for the threshold with the largest weighted
// variance reduction, using running prefix sums over the sorted column.
func (g *grower) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	nFeatures := len(g.X[idx[0]])

	bestScore := math.Inf(1)
	order := make([]int, n)

	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return g.X[order[a]][f] < g.X[order[b]][f] })

		var sumL, sqL float64
		var sumR, sqR float64
		for _, i := range order {
			sumR += g.y[i]
			sqR += g.y[i] * g.y[i]
		}

		for k := 0; k < n-1; k++ {
			yi := g.y[order[k]]
			sumL += yi
			sqL += yi * yi
			sumR -= yi
			sqR -= yi * yi

			// Cannot split between identical feature values.
			if g.X[order[k]][f] == g.X[order[k+1]][f] {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < g.minLeaf || nr < g.minLeaf {
				continue
			}
			score := (sqL - sumL*sumL/float64(nl)) + (sqR - sumR*sumR/float64(nr))
			if score < bestScore {
				bestScore = score
				feature = f
				threshold = (g.X[order[k]][f] + g.X[order[k+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (g *grower) meanOf(idx []int) float64 {
	var s float64
	for _, i := range idx {
		s += g.y[i]
	}
	return s / float64(len(idx))
}

func (g *grower) constantTarget(idx []int) bool {
	first := g.y[idx[0]]
	for _, i := range idx[1:] {
		if g.y[i] != first {
			return false
		}
	}
	return true
}
