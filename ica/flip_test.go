// SPDX-License-Identifier: MIT

package ica

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlath-mva/matrix"
)

func TestFlipNegative(t *testing.T) {
	// columns: all zero, no positive entry, mixed (negative first)
	ic, err := matrix.NewDenseFrom(3, 3, []float64{
		0, -1, -1,
		0, 0, 2,
		0, -2, 0,
	})
	require.NoError(t, err)
	w, err := matrix.NewDenseFrom(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	require.NoError(t, err)

	flipped := flipNegative(ic, w)
	require.Equal(t, []int{1}, flipped)

	require.Equal(t, []float64{
		0, 1, -1,
		0, 0, 2,
		0, 2, 0,
	}, ic.Raw())
	require.Equal(t, []float64{
		1, 2, 3,
		-4, -5, -6,
		7, 8, 9,
	}, w.Raw())

	// idempotent once every column has a positive entry or is zero
	require.Empty(t, flipNegative(ic, w))
}

func TestJointDiagonalize_ReportsSweeps(t *testing.T) {
	// already diagonal: no rotation, stops in the first sweep
	_, sweeps := jointDiagonalize([][]float64{{2, 0, 0, 1}}, 2, 1e-12, 10)
	require.Equal(t, 0, sweeps)

	// needs rotating; a single sweep cannot confirm convergence
	_, sweeps = jointDiagonalize([][]float64{{2, 1, 1, 1}}, 2, 1e-12, 1)
	require.Equal(t, 1, sweeps)
}
