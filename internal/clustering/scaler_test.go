package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScaler_FitTransform(t *testing.T) {
	x := [][]float64{
		{0, 10, -5},
		{5, 20, 0},
		{10, 30, 5},
	}

	var s MinMaxScaler
	out, err := s.FitTransform(x)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, -5}, s.Min)
	assert.Equal(t, []float64{10, 30, 5}, s.Max)
	assert.Equal(t, [][]float64{
		{0, 0, 0},
		{0.5, 0.5, 0.5},
		{1, 1, 1},
	}, out)

	// input untouched
	assert.Equal(t, []float64{0, 10, -5}, x[0])
}

func TestMinMaxScaler_ConstantColumnMapsToZero(t *testing.T) {
	x := [][]float64{{7, 1}, {7, 3}}

	var s MinMaxScaler
	out, err := s.FitTransform(x)
	require.NoError(t, err)

	assert.Equal(t, 0.0, out[0][0])
	assert.Equal(t, 0.0, out[1][0])
	assert.Equal(t, 1.0, out[1][1])
}

func TestMinMaxScaler_TransformOutsideFittedRange(t *testing.T) {
	var s MinMaxScaler
	require.NoError(t, s.Fit([][]float64{{0}, {10}}))

	out, err := s.Transform([][]float64{{20}, {-10}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out[0][0])
	assert.Equal(t, -1.0, out[1][0])
}

func TestMinMaxScaler_Errors(t *testing.T) {
	var s MinMaxScaler

	assert.ErrorIs(t, s.Fit(nil), ErrEmptyInput)
	assert.ErrorIs(t, s.Fit([][]float64{{}}), ErrEmptyInput)
	assert.ErrorIs(t, s.Fit([][]float64{{1, 2}, {3}}), ErrDimensionMismatch)

	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))
	_, err := s.Transform([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
