package anonymization

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/inferloop/fairml/pkg/errors"
	"github.com/inferloop/fairml/pkg/interfaces"
	"github.com/inferloop/fairml/pkg/models"
)

// Cell is one equivalence class of the partition: the set of rows routed to
// a single leaf of the trained partition model. Every released row carries
// the representative values of its cell, so every cell of size >= k yields
// a k-anonymous group.
type Cell struct {
	ID              int
	Size            int
	Histogram       []int
	Representatives map[int]models.Value
}

// buildCells enumerates every leaf of the trained model exactly once and
// creates one empty cell per leaf. Internal nodes contribute nothing.
func buildCells(model interfaces.PartitionModel) (map[int]*Cell, error) {
	cells := make(map[int]*Cell)
	for id := 0; id < model.NodeCount(); id++ {
		if !model.IsLeaf(id) {
			continue
		}
		cells[id] = &Cell{
			ID:              id,
			Histogram:       model.LeafHistogram(id),
			Representatives: make(map[int]models.Value),
		}
	}
	if len(cells) == 0 {
		return nil, errors.NewTrainingError(errors.CodeEmptyLeafSet, errors.ErrEmptyLeafSet.Error())
	}
	return cells, nil
}

// assignCells routes every encoded row through the model's decision path
// and intersects the visited nodes with the leaf set. Decision paths are
// acyclic and end in exactly one leaf, so the intersection is a singleton.
func assignCells(model interfaces.PartitionModel, matrix [][]float64, cells map[int]*Cell) ([]int, error) {
	assignments := make([]int, len(matrix))
	for r, row := range matrix {
		leaf := -1
		for _, node := range model.DecisionPath(row) {
			if _, ok := cells[node]; ok {
				leaf = node
				break
			}
		}
		if leaf < 0 {
			return nil, errors.NewInternalError(
				fmt.Sprintf("decision path of row %d reached no leaf", r))
		}
		assignments[r] = leaf
		cells[leaf].Size++
	}
	return assignments, nil
}

// selectRepresentatives computes, for every cell, one representative value
// per quasi-identifier column:
//
//   - grouped (one-hot) columns get the most frequent joint sub-vector of
//     the group, applied atomically to every member column;
//   - categorical columns get their most frequent value;
//   - continuous columns get the member value closest to the member median,
//     never the median itself, so the representative is always a value that
//     occurred in the data.
//
// All ties break on first occurrence in input row order.
func selectRepresentatives(ds *models.Dataset, assignments []int, cells map[int]*Cell, qi []int, groups [][]int, categorical map[int]bool) {
	members := make(map[int][]int, len(cells))
	for r, leaf := range assignments {
		members[leaf] = append(members[leaf], r)
	}

	groupOf := make(map[int]int)
	for g, group := range groups {
		for _, col := range group {
			groupOf[col] = g
		}
	}

	for _, cell := range cells {
		rows := members[cell.ID]
		if len(rows) == 0 {
			continue
		}
		covered := make(map[int]bool)
		for _, col := range qi {
			if covered[col] {
				continue
			}
			if g, ok := groupOf[col]; ok {
				assignGroupRepresentative(ds, rows, groups[g], cell, covered)
				continue
			}
			covered[col] = true
			if categorical[col] {
				cell.Representatives[col] = modeValue(ds, rows, col)
			} else {
				cell.Representatives[col] = closestToMedian(ds, rows, col)
			}
		}
	}
}

// assignGroupRepresentative finds the most frequent joint value vector
// across the group columns and assigns it to every column atomically.
func assignGroupRepresentative(ds *models.Dataset, rows []int, group []int, cell *Cell, covered map[int]bool) {
	counts := make(map[string]int)
	var order []string
	vectors := make(map[string][]models.Value)
	for _, r := range rows {
		vec := make([]models.Value, len(group))
		var key strings.Builder
		for i, col := range group {
			vec[i] = ds.Rows[r][col]
			key.WriteString(vec[i].String())
			key.WriteByte('\x1f')
		}
		k := key.String()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
			vectors[k] = vec
		}
		counts[k]++
	}

	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	for i, col := range group {
		covered[col] = true
		cell.Representatives[col] = vectors[best][i]
	}
}

// modeValue returns the most frequent value of the column among the member
// rows, breaking ties by first occurrence.
func modeValue(ds *models.Dataset, rows []int, col int) models.Value {
	counts := make(map[string]int)
	var order []models.Value
	for _, r := range rows {
		v := ds.Rows[r][col]
		key := v.String()
		if _, ok := counts[key]; !ok {
			order = append(order, v)
		}
		counts[key]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v.String()] > counts[best.String()] {
			best = v
		}
	}
	return best
}

// closestToMedian returns the member value with minimum absolute distance
// to the member median. The earliest row wins on equal distance.
func closestToMedian(ds *models.Dataset, rows []int, col int) models.Value {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = ds.Rows[r][col].Float
	}
	med := median(values)

	best := values[0]
	bestDist := math.Inf(1)
	for _, v := range values {
		if dist := math.Abs(v - med); dist < bestDist {
			bestDist = dist
			best = v
		}
	}
	return models.Number(best)
}

// median returns the midpoint median: the average of the two middle values
// for even counts, matching the usual numeric convention.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
