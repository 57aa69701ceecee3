// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Small deterministic fixtures shared by the kernel tests.

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type and force the At-based paths.
type hide struct{ matrix.Matrix }

// mustFrom builds an r×c Dense from row-major data or fails the test.
func mustFrom(t *testing.T, r, c int, data []float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)

	return m
}

// requireClose asserts elementwise |a-b| ≤ tol.
func requireClose(t *testing.T, want, got matrix.Matrix, tol float64) {
	t.Helper()
	require.Equal(t, want.Rows(), got.Rows())
	require.Equal(t, want.Cols(), got.Cols())
	for i := 0; i < want.Rows(); i++ {
		for j := 0; j < want.Cols(); j++ {
			w, _ := want.At(i, j)
			g, _ := got.At(i, j)
			require.LessOrEqualf(t, math.Abs(w-g), tol, "(%d,%d): want %g got %g", i, j, w, g)
		}
	}
}
