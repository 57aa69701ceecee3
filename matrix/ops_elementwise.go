// SPDX-License-Identifier: MIT

// Package matrix - in-place broadcast kernels.
//
// Purpose:
//   - Row/column broadcasting used by reversible preprocessing: subtract or add a
//     per-column vector to every row, scale every row or every column.
//   - All kernels mutate X in place (X usually wraps a signal buffer).
//   - Hot loops delegate to algo-vecmath block kernels, one row at a time.
//
// Contracts:
//   - X must be non-nil; vectors must match the broadcast dimension exactly.
//   - On error X is left untouched.

package matrix

import vecmath "github.com/cwbudde/algo-vecmath"

const (
	opSubRowVec  = "SubRowVectorInPlace"
	opAddRowVec  = "AddRowVectorInPlace"
	opScaleCols  = "ScaleColsInPlace"
	opScaleRows  = "ScaleRowsInPlace"
	opReplaceNaN = "ReplaceNaN"
)

// SubRowVectorInPlace computes X[i,:] -= v for every row i.
// Complexity: O(r*c).
func SubRowVectorInPlace(X *Dense, v []float64) error {
	if X == nil {
		return matrixErrorf(opSubRowVec, ErrNilMatrix)
	}
	if err := ValidateVecLen(v, X.c); err != nil {
		return matrixErrorf(opSubRowVec, err)
	}
	neg := make([]float64, len(v))
	vecmath.ScaleBlock(neg, v, -1)
	for i := 0; i < X.r; i++ {
		vecmath.AddBlockInPlace(X.Row(i), neg)
	}

	return nil
}

// AddRowVectorInPlace computes X[i,:] += v for every row i.
func AddRowVectorInPlace(X *Dense, v []float64) error {
	if X == nil {
		return matrixErrorf(opAddRowVec, ErrNilMatrix)
	}
	if err := ValidateVecLen(v, X.c); err != nil {
		return matrixErrorf(opAddRowVec, err)
	}
	for i := 0; i < X.r; i++ {
		vecmath.AddBlockInPlace(X.Row(i), v)
	}

	return nil
}

// ScaleColsInPlace computes X[:,j] *= s[j] for every column j.
// Dividing by a per-column vector is ScaleColsInPlace with reciprocals.
func ScaleColsInPlace(X *Dense, s []float64) error {
	if X == nil {
		return matrixErrorf(opScaleCols, ErrNilMatrix)
	}
	if err := ValidateVecLen(s, X.c); err != nil {
		return matrixErrorf(opScaleCols, err)
	}
	for i := 0; i < X.r; i++ {
		vecmath.MulBlockInPlace(X.Row(i), s)
	}

	return nil
}

// ScaleRowsInPlace computes X[i,:] *= s[i] for every row i.
func ScaleRowsInPlace(X *Dense, s []float64) error {
	if X == nil {
		return matrixErrorf(opScaleRows, ErrNilMatrix)
	}
	if err := ValidateVecLen(s, X.r); err != nil {
		return matrixErrorf(opScaleRows, err)
	}
	var row []float64
	for i := 0; i < X.r; i++ {
		row = X.Row(i)
		vecmath.ScaleBlock(row, row, s[i])
	}

	return nil
}

// ReplaceNaN returns a copy of X with every NaN replaced by val.
func ReplaceNaN(X Matrix, val float64) (*Dense, error) {
	xd, err := AsDense(X)
	if err != nil {
		return nil, matrixErrorf(opReplaceNaN, err)
	}
	out := xd.Copy()
	for k, v := range out.data {
		if v != v {
			out.data[k] = val
		}
	}

	return out, nil
}
