package partition

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/fairml/pkg/errors"
)

// Mode selects how the target vector is interpreted during training.
type Mode int

const (
	// ModeClassification treats targets as discrete class labels.
	ModeClassification Mode = iota
	// ModeRegression treats targets as continuous values.
	ModeRegression
)

const minSamplesSplit = 2

// Tree is a deterministic CART partitioner. It trains without any
// randomness: identical inputs always produce an identical tree, so leaf
// assignment (and therefore anonymization output) is reproducible.
//
// Node ids are assigned in construction (preorder) order; the root is
// always node 0.
type Tree struct {
	mode           Mode
	minSamplesLeaf int
	nodes          []node
	classes        []float64
	numFeatures    int
	fitted         bool
}

// node is a tagged tree node: a leaf carries the training statistics for
// its member rows, an internal node carries the split and its children.
type node struct {
	leaf      bool
	feature   int
	threshold float64
	left      int
	right     int
	size      int
	histogram []int
}

// NewTree creates an unfitted tree partitioner.
func NewTree(mode Mode) *Tree {
	return &Tree{mode: mode}
}

// Fit trains the tree on features against target, guaranteeing every leaf
// holds at least minLeafSize training rows.
func (t *Tree) Fit(ctx context.Context, features [][]float64, target []float64, minLeafSize int) error {
	if len(features) == 0 {
		return errors.NewConfigurationError(errors.CodeNoData, errors.ErrNoData.Error())
	}
	if len(features) != len(target) {
		return errors.NewShapeMismatchError(errors.ErrRowCountMismatch.Error()).
			WithDetails(fmt.Sprintf("features has %d rows, target has %d", len(features), len(target)))
	}
	if minLeafSize < 1 {
		minLeafSize = 1
	}
	numFeatures := len(features[0])
	for i := range features {
		if len(features[i]) != numFeatures {
			return errors.NewShapeMismatchError(errors.ErrRaggedRow.Error()).
				WithDetails(fmt.Sprintf("row %d has %d columns, expected %d", i, len(features[i]), numFeatures))
		}
	}

	t.minSamplesLeaf = minLeafSize
	t.numFeatures = numFeatures
	t.nodes = t.nodes[:0]
	t.classes = nil

	if t.mode == ModeClassification {
		seen := make(map[float64]struct{})
		for _, y := range target {
			if _, ok := seen[y]; !ok {
				seen[y] = struct{}{}
				t.classes = append(t.classes, y)
			}
		}
	}

	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}
	t.grow(features, target, idx)
	t.fitted = true
	return nil
}

// grow builds the subtree for the given row indexes and returns its node id.
func (t *Tree) grow(features [][]float64, target []float64, idx []int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{size: len(idx), histogram: t.histogramOf(target, idx)})

	if len(idx) < minSamplesSplit || len(idx) < 2*t.minSamplesLeaf || t.isPure(target, idx) {
		t.nodes[id].leaf = true
		return id
	}

	feature, threshold, ok := t.bestSplit(features, target, idx)
	if !ok {
		t.nodes[id].leaf = true
		return id
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	// children append to t.nodes, so write the split fields only after both
	// subtrees are built and the slice header is final
	left := t.grow(features, target, leftIdx)
	right := t.grow(features, target, rightIdx)
	n := &t.nodes[id]
	n.feature = feature
	n.threshold = threshold
	n.left = left
	n.right = right
	return id
}

type valuePair struct {
	v float64
	y float64
}

// bestSplit scans every feature in declared order for the threshold with
// the largest impurity decrease. Ties keep the earliest feature and the
// earliest threshold, which keeps training deterministic.
func (t *Tree) bestSplit(features [][]float64, target []float64, idx []int) (int, float64, bool) {
	parent := t.impurity(target, idx)
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	pairs := make([]valuePair, len(idx))
	for f := 0; f < t.numFeatures; f++ {
		for i, ii := range idx {
			pairs[i] = valuePair{v: features[ii][f], y: target[ii]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		gain, threshold, ok := t.scanThresholds(pairs, parent)
		if ok && gain > bestGain {
			bestGain = gain
			bestFeature = f
			bestThreshold = threshold
		}
	}

	if bestFeature < 0 || bestGain <= 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// scanThresholds walks the sorted (value, target) pairs once, maintaining
// running statistics for the left side, and evaluates a candidate split at
// every boundary between distinct values.
func (t *Tree) scanThresholds(pairs []valuePair, parent float64) (float64, float64, bool) {
	n := len(pairs)
	bestGain := 0.0
	bestThreshold := 0.0
	found := false

	if t.mode == ModeClassification {
		leftCounts := make(map[float64]int)
		rightCounts := make(map[float64]int)
		for _, p := range pairs {
			rightCounts[p.y]++
		}
		for s := 1; s < n; s++ {
			leftCounts[pairs[s-1].y]++
			rightCounts[pairs[s-1].y]--
			if pairs[s].v == pairs[s-1].v {
				continue
			}
			if s < t.minSamplesLeaf || n-s < t.minSamplesLeaf {
				continue
			}
			weighted := float64(s)/float64(n)*gini(leftCounts, s) +
				float64(n-s)/float64(n)*gini(rightCounts, n-s)
			if gain := parent - weighted; gain > bestGain {
				bestGain = gain
				bestThreshold = (pairs[s-1].v + pairs[s].v) / 2
				found = true
			}
		}
		return bestGain, bestThreshold, found
	}

	var leftSum, leftSq float64
	var rightSum, rightSq float64
	for _, p := range pairs {
		rightSum += p.y
		rightSq += p.y * p.y
	}
	for s := 1; s < n; s++ {
		y := pairs[s-1].y
		leftSum += y
		leftSq += y * y
		rightSum -= y
		rightSq -= y * y
		if pairs[s].v == pairs[s-1].v {
			continue
		}
		if s < t.minSamplesLeaf || n-s < t.minSamplesLeaf {
			continue
		}
		weighted := (sse(leftSum, leftSq, s) + sse(rightSum, rightSq, n-s)) / float64(n)
		if gain := parent - weighted; gain > bestGain {
			bestGain = gain
			bestThreshold = (pairs[s-1].v + pairs[s].v) / 2
			found = true
		}
	}
	return bestGain, bestThreshold, found
}

// gini computes the Gini impurity from class counts over n samples.
func gini(counts map[float64]int, n int) float64 {
	res := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		res += p * (1 - p)
	}
	return res
}

// sse returns the sum of squared deviations from the mean given the sum
// and sum of squares of n values.
func sse(sum, sq float64, n int) float64 {
	return sq - sum*sum/float64(n)
}

func (t *Tree) impurity(target []float64, idx []int) float64 {
	if t.mode == ModeClassification {
		counts := make(map[float64]int)
		for _, i := range idx {
			counts[target[i]]++
		}
		return gini(counts, len(idx))
	}
	var sum, sq float64
	for _, i := range idx {
		sum += target[i]
		sq += target[i] * target[i]
	}
	return sse(sum, sq, len(idx)) / float64(len(idx))
}

func (t *Tree) isPure(target []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if target[i] != target[idx[0]] {
			return false
		}
	}
	return true
}

// histogramOf records per-class training counts for a node. In regression
// mode it records the rounded mean of the member targets, matching the
// single-value leaf summary of a regression tree.
func (t *Tree) histogramOf(target []float64, idx []int) []int {
	if t.mode == ModeClassification {
		hist := make([]int, len(t.classes))
		for _, i := range idx {
			for c, class := range t.classes {
				if target[i] == class {
					hist[c]++
					break
				}
			}
		}
		return hist
	}
	values := make([]float64, len(idx))
	for i, j := range idx {
		values[i] = target[j]
	}
	return []int{int(stat.Mean(values, nil))}
}

// DecisionPath returns the node ids visited routing row from the root to
// its leaf, in visit order.
func (t *Tree) DecisionPath(row []float64) []int {
	if !t.fitted {
		return nil
	}
	path := []int{0}
	cur := 0
	for !t.nodes[cur].leaf {
		n := t.nodes[cur]
		v := row[n.feature]
		if math.IsNaN(v) {
			// missing value: follow the larger child
			if t.nodes[n.left].size >= t.nodes[n.right].size {
				cur = n.left
			} else {
				cur = n.right
			}
		} else if v <= n.threshold {
			cur = n.left
		} else {
			cur = n.right
		}
		path = append(path, cur)
	}
	return path
}

// NodeCount returns the number of nodes in the trained tree.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// IsLeaf reports whether node id is a leaf of the trained tree.
func (t *Tree) IsLeaf(id int) bool {
	if id < 0 || id >= len(t.nodes) {
		return false
	}
	return t.nodes[id].leaf
}

// LeafHistogram returns the training value counts recorded at a node.
func (t *Tree) LeafHistogram(id int) []int {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	hist := make([]int, len(t.nodes[id].histogram))
	copy(hist, t.nodes[id].histogram)
	return hist
}

// Classes returns the distinct class labels seen during training, in first
// occurrence order. Empty in regression mode.
func (t *Tree) Classes() []float64 {
	return t.classes
}
