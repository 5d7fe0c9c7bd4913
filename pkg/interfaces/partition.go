package interfaces

import (
	"context"
)

// PartitionModel defines the supervised tree-partitioning capability the
// anonymization engine consumes. Any tree learner can satisfy it; the engine
// never inspects the model beyond this surface.
type PartitionModel interface {
	// Fit trains the partitioner on a feature matrix against a target
	// vector. Implementations must guarantee that every leaf of the
	// trained model holds at least minLeafSize training rows.
	Fit(ctx context.Context, features [][]float64, target []float64, minLeafSize int) error

	// DecisionPath returns the ids of every node visited when routing a
	// row from the root to its leaf, in visit order. Paths are acyclic and
	// terminate in exactly one leaf.
	DecisionPath(row []float64) []int

	// NodeCount returns the total number of nodes in the trained model.
	NodeCount() int

	// IsLeaf reports whether the given node id is a leaf.
	IsLeaf(node int) bool

	// LeafHistogram returns the per-class training value counts recorded
	// at a leaf node.
	LeafHistogram(node int) []int
}

// PartitionModelFactory builds a fresh, unfitted partition model for a
// single anonymization run.
type PartitionModelFactory func(isRegression bool) PartitionModel
