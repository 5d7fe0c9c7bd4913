package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/inferloop/fairml/pkg/models"
)

// Encoder prepares a dataset for tree training: selected numeric columns
// pass through with missing values imputed to zero, selected categorical
// columns expand into one-hot blocks. Numeric columns come first, then the
// one-hot blocks, so the matrix layout is independent of the original
// column interleaving.
type Encoder struct {
	numericColumns     []int
	categoricalColumns []int
	categories         map[int][]string
	fitted             bool
}

// NewEncoder creates an encoder over the given dataset column indexes.
// usedColumns lists every column that participates in training;
// categoricalColumns marks the subset that needs one-hot expansion.
func NewEncoder(usedColumns []int, categoricalColumns []int) *Encoder {
	catSet := make(map[int]bool, len(categoricalColumns))
	for _, c := range categoricalColumns {
		catSet[c] = true
	}
	e := &Encoder{categories: make(map[int][]string)}
	for _, c := range usedColumns {
		if catSet[c] {
			e.categoricalColumns = append(e.categoricalColumns, c)
		} else {
			e.numericColumns = append(e.numericColumns, c)
		}
	}
	return e
}

// Fit learns the category vocabulary of every categorical column. Categories
// are sorted so the encoded layout does not depend on row order.
func (e *Encoder) Fit(ds *models.Dataset) error {
	for _, c := range e.categoricalColumns {
		seen := make(map[string]struct{})
		var cats []string
		for _, row := range ds.Rows {
			key := row[c].String()
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				cats = append(cats, key)
			}
		}
		sort.Strings(cats)
		e.categories[c] = cats
	}
	e.fitted = true
	return nil
}

// Transform encodes every dataset row into a numeric feature vector.
// Unknown categories encode as an all-zero block.
func (e *Encoder) Transform(ds *models.Dataset) ([][]float64, error) {
	if !e.fitted {
		return nil, fmt.Errorf("encoder has not been fitted")
	}
	width := e.Width()
	out := make([][]float64, ds.NumRows())
	for r, row := range ds.Rows {
		vec := make([]float64, width)
		i := 0
		for _, c := range e.numericColumns {
			v := row[c].Float
			if row[c].Kind != models.ValueNumeric || math.IsNaN(v) {
				v = 0 // constant imputation
			}
			vec[i] = v
			i++
		}
		for _, c := range e.categoricalColumns {
			key := row[c].String()
			for _, cat := range e.categories[c] {
				if cat == key {
					vec[i] = 1
				}
				i++
			}
		}
		out[r] = vec
	}
	return out, nil
}

// FitTransform fits the encoder and transforms the dataset in one step.
func (e *Encoder) FitTransform(ds *models.Dataset) ([][]float64, error) {
	if err := e.Fit(ds); err != nil {
		return nil, err
	}
	return e.Transform(ds)
}

// Width returns the number of columns in the encoded matrix.
func (e *Encoder) Width() int {
	w := len(e.numericColumns)
	for _, c := range e.categoricalColumns {
		w += len(e.categories[c])
	}
	return w
}
