package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/fairml/pkg/models"
)

func TestEncoderNumericPassthrough(t *testing.T) {
	ds := &models.Dataset{
		Features: []string{"age", "income"},
		Rows: [][]models.Value{
			{models.Number(25), models.Number(1200)},
			{models.Number(40), models.Number(3400)},
		},
	}

	enc := NewEncoder([]int{0, 1}, nil)
	matrix, err := enc.FitTransform(ds)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{25, 1200}, {40, 3400}}, matrix)
	assert.Equal(t, 2, enc.Width())
}

func TestEncoderImputesMissingNumeric(t *testing.T) {
	ds := &models.Dataset{
		Features: []string{"age"},
		Rows: [][]models.Value{
			{models.Number(25)},
			{models.Number(math.NaN())},
		},
	}

	enc := NewEncoder([]int{0}, nil)
	matrix, err := enc.FitTransform(ds)
	require.NoError(t, err)

	assert.Equal(t, 0.0, matrix[1][0])
}

func TestEncoderOneHot(t *testing.T) {
	ds := &models.Dataset{
		Features: []string{"age", "color"},
		Rows: [][]models.Value{
			{models.Number(25), models.Category("red")},
			{models.Number(40), models.Category("blue")},
			{models.Number(31), models.Category("red")},
		},
	}

	enc := NewEncoder([]int{0, 1}, []int{1})
	matrix, err := enc.FitTransform(ds)
	require.NoError(t, err)

	// numeric columns first, then the one-hot block in sorted category order
	assert.Equal(t, 3, enc.Width())
	assert.Equal(t, [][]float64{
		{25, 0, 1},
		{40, 1, 0},
		{31, 0, 1},
	}, matrix)
}

func TestEncoderUnknownCategoryEncodesZero(t *testing.T) {
	train := &models.Dataset{
		Features: []string{"color"},
		Rows: [][]models.Value{
			{models.Category("red")},
			{models.Category("blue")},
		},
	}
	enc := NewEncoder([]int{0}, []int{0})
	_, err := enc.FitTransform(train)
	require.NoError(t, err)

	unseen := &models.Dataset{
		Features: []string{"color"},
		Rows:     [][]models.Value{{models.Category("green")}},
	}
	matrix, err := enc.Transform(unseen)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}}, matrix)
}

func TestEncoderRestrictedColumns(t *testing.T) {
	ds := &models.Dataset{
		Features: []string{"age", "income", "zip"},
		Rows: [][]models.Value{
			{models.Number(25), models.Number(1200), models.Number(94110)},
		},
	}

	// only age and zip participate in training
	enc := NewEncoder([]int{0, 2}, nil)
	matrix, err := enc.FitTransform(ds)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{25, 94110}}, matrix)
}

func TestEncoderTransformBeforeFit(t *testing.T) {
	enc := NewEncoder([]int{0}, nil)
	_, err := enc.Transform(&models.Dataset{Features: []string{"a"}})
	require.Error(t, err)
}
