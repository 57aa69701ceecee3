// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/stretchr/testify/require"
)

func TestNewDense_InvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
	_, err = matrix.NewDense(2, -1)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestDense_AtSetBounds(t *testing.T) {
	m := mustFrom(t, 2, 2, []float64{1, 2, 3, 4})

	v, err := m.At(1, 0)
	require.NoError(t, err)
	require.Equal(t, 3.0, v)

	_, err = m.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 1), matrix.ErrOutOfRange)
}

func TestDense_NaNPolicy(t *testing.T) {
	m, err := matrix.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, math.NaN()), "NaN is legal by default")

	strict, err := matrix.NewDenseWithOptions(1, 1, matrix.WithValidateNaNInf())
	require.NoError(t, err)
	require.ErrorIs(t, strict.Set(0, 0, math.Inf(1)), matrix.ErrNaNInf)
}

func TestWrap_SharesBuffer(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6}
	m, err := matrix.Wrap(2, 3, buf)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 60))
	require.Equal(t, 60.0, buf[5])

	buf[0] = -1
	v, _ := m.At(0, 0)
	require.Equal(t, -1.0, v)

	_, err = matrix.Wrap(2, 2, buf)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestNewDenseFrom_Copies(t *testing.T) {
	buf := []float64{1, 2}
	m := mustFrom(t, 1, 2, buf)
	buf[0] = 100
	v, _ := m.At(0, 0)
	require.Equal(t, 1.0, v)
}

func TestDense_Induced(t *testing.T) {
	m := mustFrom(t, 3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	sub, err := m.Induced([]int{0, 2}, []int{1, 2})
	require.NoError(t, err)
	requireClose(t, mustFrom(t, 2, 2, []float64{2, 3, 8, 9}), sub, 0)

	empty, err := m.Induced(nil, []int{0})
	require.NoError(t, err)
	require.Equal(t, 0, empty.Rows())

	_, err = m.Induced([]int{3}, []int{0})
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestDense_ColAndSetCol(t *testing.T) {
	m := mustFrom(t, 2, 2, []float64{1, 2, 3, 4})
	col, err := m.Col(1)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 4}, col)

	require.NoError(t, m.SetCol(0, []float64{-1, -3}))
	require.Equal(t, []float64{-1, 2, -3, 4}, m.Raw())
	require.ErrorIs(t, m.SetCol(0, []float64{1}), matrix.ErrDimensionMismatch)
}

func TestDense_CloneIsDeep(t *testing.T) {
	m := mustFrom(t, 1, 2, []float64{1, 2})
	c := m.Clone()
	require.NoError(t, m.Set(0, 0, 9))
	v, _ := c.At(0, 0)
	require.Equal(t, 1.0, v)
}
