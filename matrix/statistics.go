// SPDX-License-Identifier: MIT

// Package matrix - descriptive statistics over observation matrices.
//
// Conventions:
//   - Rows are observations, columns are variables (a nav × signal block has one
//     spectrum per row; a factor matrix has one signal sample per row).
//   - Means/stds are population statistics (divide by N).
//   - All functions are deterministic with fixed i→j accumulation order.

package matrix

import (
	"fmt"
	"math"
)

const (
	opColumnMeans = "ColumnMeans"
	opRowSums     = "RowSums"
	opColSums     = "ColSums"
	opCenterCols  = "CenterColumns"
	opCovariance  = "Covariance"
	opDiff        = "Diff"
)

// ColumnMeans returns the mean of each column.
// Errors: ErrNilMatrix, ErrInvalidDimensions (no rows).
func ColumnMeans(X Matrix) ([]float64, error) {
	xd, err := AsDense(X)
	if err != nil {
		return nil, matrixErrorf(opColumnMeans, err)
	}
	if xd.r == 0 {
		return nil, matrixErrorf(opColumnMeans, ErrInvalidDimensions)
	}
	means, _ := ColSums(xd)
	inv := 1 / float64(xd.r)
	for j := range means {
		means[j] *= inv
	}

	return means, nil
}

// RowSums returns Σ_j X[i,j] for each row i.
func RowSums(X Matrix) ([]float64, error) {
	xd, err := AsDense(X)
	if err != nil {
		return nil, matrixErrorf(opRowSums, err)
	}
	out := make([]float64, xd.r)
	var acc float64
	for i := 0; i < xd.r; i++ {
		acc = 0
		for _, v := range xd.Row(i) {
			acc += v
		}
		out[i] = acc
	}

	return out, nil
}

// ColSums returns Σ_i X[i,j] for each column j.
func ColSums(X Matrix) ([]float64, error) {
	xd, err := AsDense(X)
	if err != nil {
		return nil, matrixErrorf(opColSums, err)
	}
	out := make([]float64, xd.c)
	for i := 0; i < xd.r; i++ {
		for j, v := range xd.Row(i) {
			out[j] += v
		}
	}

	return out, nil
}

// CenterColumns returns a copy of X with column means removed, plus the means.
func CenterColumns(X Matrix) (*Dense, []float64, error) {
	means, err := ColumnMeans(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterCols, err)
	}
	xd, _ := AsDense(X)
	out := xd.Copy()
	if err = SubRowVectorInPlace(out, means); err != nil {
		return nil, nil, matrixErrorf(opCenterCols, err)
	}

	return out, means, nil
}

// Covariance returns the population covariance (c×c) of the columns of X and
// the column means.
//
// Implementation:
//   - Stage 1: center columns.
//   - Stage 2: accumulate the upper triangle of XcᵀXc / N and mirror it, so the
//     result is exactly symmetric.
//
// Complexity: O(r*c²).
func Covariance(X Matrix) (*Dense, []float64, error) {
	xc, means, err := CenterColumns(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCovariance, err)
	}
	c := xc.c
	cov, err := newDenseZeroOK(c, c)
	if err != nil {
		return nil, nil, matrixErrorf(opCovariance, err)
	}
	var i, j, k int
	var row []float64
	for k = 0; k < xc.r; k++ {
		row = xc.Row(k)
		for i = 0; i < c; i++ {
			for j = i; j < c; j++ {
				cov.data[i*c+j] += row[i] * row[j]
			}
		}
	}
	inv := 1 / float64(xc.r)
	for i = 0; i < c; i++ {
		for j = i; j < c; j++ {
			cov.data[i*c+j] *= inv
			cov.data[j*c+i] = cov.data[i*c+j]
		}
	}

	return cov, means, nil
}

// Diff returns the order-th discrete difference of X along its rows:
// out[i,:] = X[i+1,:] - X[i,:], repeated order times. order 0 returns a copy.
//
// Errors:
//   - ErrBadOrder when order < 0 or order >= X.Rows().
func Diff(X Matrix, order int) (*Dense, error) {
	xd, err := AsDense(X)
	if err != nil {
		return nil, matrixErrorf(opDiff, err)
	}
	if order < 0 || (order > 0 && order >= xd.r) {
		return nil, matrixErrorf(opDiff, fmt.Errorf("order=%d rows=%d: %w", order, xd.r, ErrBadOrder))
	}
	cur := xd.Copy()
	var i, j int
	for o := 0; o < order; o++ {
		next, _ := newDenseZeroOK(cur.r-1, cur.c)
		for i = 0; i < next.r; i++ {
			for j = 0; j < cur.c; j++ {
				next.data[i*cur.c+j] = cur.data[(i+1)*cur.c+j] - cur.data[i*cur.c+j]
			}
		}
		cur = next
	}

	return cur, nil
}

// FrobeniusSq returns Σ X[i,j]², skipping NaN entries.
func FrobeniusSq(X Matrix) (float64, error) {
	xd, err := AsDense(X)
	if err != nil {
		return 0, err
	}
	var acc float64
	for _, v := range xd.data {
		if !math.IsNaN(v) {
			acc += v * v
		}
	}

	return acc, nil
}
