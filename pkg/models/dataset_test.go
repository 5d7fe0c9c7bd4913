package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	assert.True(t, Number(1.5).Equal(Number(1.5)))
	assert.False(t, Number(1.5).Equal(Number(2.5)))
	assert.True(t, Category("a").Equal(Category("a")))
	assert.False(t, Category("a").Equal(Category("b")))
	assert.False(t, Number(0).Equal(Category("0")))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "25", Number(25).String())
	assert.Equal(t, "1.5", Number(1.5).String())
	assert.Equal(t, "red", Category("red").String())
}

func TestDatasetFeatureIndex(t *testing.T) {
	ds := NewDataset([]string{"age", "income"})
	assert.Equal(t, 0, ds.FeatureIndex("age"))
	assert.Equal(t, 1, ds.FeatureIndex("income"))
	assert.Equal(t, -1, ds.FeatureIndex("height"))
}

func TestDatasetCloneIsDeep(t *testing.T) {
	ds := &Dataset{
		Features: []string{"age"},
		Rows:     [][]Value{{Number(25)}, {Number(40)}},
	}

	clone := ds.Clone()
	clone.Rows[0][0] = Number(99)

	assert.Equal(t, Number(25), ds.Rows[0][0])
	assert.Equal(t, Number(99), clone.Rows[0][0])
}

func TestDatasetColumnKinds(t *testing.T) {
	ds := &Dataset{
		Features: []string{"age", "color"},
		Rows: [][]Value{
			{Number(25), Category("red")},
			{Number(40), Category("blue")},
		},
	}

	assert.Equal(t, []ValueKind{ValueNumeric, ValueCategorical}, ds.ColumnKinds())
	assert.True(t, ds.HasCategoricalColumns())
}

func TestDatasetValidateRaggedRow(t *testing.T) {
	ds := &Dataset{
		Features: []string{"age", "income"},
		Rows:     [][]Value{{Number(25)}},
	}
	require.Error(t, ds.Validate())
}

func TestDatasetColumn(t *testing.T) {
	ds := &Dataset{
		Features: []string{"age", "income"},
		Rows: [][]Value{
			{Number(25), Number(1200)},
			{Number(40), Number(5000)},
		},
	}
	assert.Equal(t, []Value{Number(1200), Number(5000)}, ds.Column(1))
}
