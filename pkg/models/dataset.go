package models

import (
	"fmt"
	"strconv"
)

// ValueKind identifies how a dataset cell is stored.
type ValueKind int

const (
	// ValueNumeric is a continuous or integer-coded value stored as float64.
	ValueNumeric ValueKind = iota
	// ValueCategorical is a discrete string-labelled value.
	ValueCategorical
)

func (k ValueKind) String() string {
	switch k {
	case ValueNumeric:
		return "numeric"
	case ValueCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a single dataset cell, either numeric or categorical.
type Value struct {
	Kind  ValueKind `json:"kind"`
	Float float64   `json:"float,omitempty"`
	Label string    `json:"label,omitempty"`
}

// Number creates a numeric value.
func Number(f float64) Value {
	return Value{Kind: ValueNumeric, Float: f}
}

// Category creates a categorical value.
func Category(label string) Value {
	return Value{Kind: ValueCategorical, Label: label}
}

// IsNumeric reports whether the value is numeric.
func (v Value) IsNumeric() bool {
	return v.Kind == ValueNumeric
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == ValueNumeric {
		return v.Float == o.Float
	}
	return v.Label == o.Label
}

func (v Value) String() string {
	if v.Kind == ValueNumeric {
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return v.Label
}

// Dataset is an ordered sequence of rows over named feature columns. Rows
// are row-major; every row must have one value per feature.
type Dataset struct {
	Features []string  `json:"features"`
	Rows     [][]Value `json:"rows"`
}

// NewDataset creates an empty dataset with the given feature columns.
func NewDataset(features []string) *Dataset {
	return &Dataset{Features: features}
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	return len(d.Rows)
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	return len(d.Features)
}

// FeatureIndex returns the column index of the named feature, or -1.
func (d *Dataset) FeatureIndex(name string) int {
	for i, f := range d.Features {
		if f == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the values in column i across all rows.
func (d *Dataset) Column(i int) []Value {
	col := make([]Value, len(d.Rows))
	for r, row := range d.Rows {
		col[r] = row[i]
	}
	return col
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	features := make([]string, len(d.Features))
	copy(features, d.Features)
	rows := make([][]Value, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = make([]Value, len(row))
		copy(rows[i], row)
	}
	return &Dataset{Features: features, Rows: rows}
}

// ColumnKind returns the kind of column i, taken from the first row that
// holds a value for it. A column is categorical if any of its values is.
func (d *Dataset) ColumnKind(i int) ValueKind {
	for _, row := range d.Rows {
		if row[i].Kind == ValueCategorical {
			return ValueCategorical
		}
	}
	return ValueNumeric
}

// ColumnKinds returns the kind of every column in order.
func (d *Dataset) ColumnKinds() []ValueKind {
	kinds := make([]ValueKind, d.NumFeatures())
	for i := range kinds {
		kinds[i] = d.ColumnKind(i)
	}
	return kinds
}

// HasCategoricalColumns reports whether any column holds categorical values.
func (d *Dataset) HasCategoricalColumns() bool {
	for i := range d.Features {
		if d.ColumnKind(i) == ValueCategorical {
			return true
		}
	}
	return false
}

// Validate checks the dataset for structural consistency.
func (d *Dataset) Validate() error {
	if len(d.Features) == 0 {
		return fmt.Errorf("dataset has no feature columns")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Features) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(d.Features))
		}
	}
	return nil
}
