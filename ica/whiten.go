// SPDX-License-Identifier: MIT

package ica

import (
	"math"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// degenerateRatio is the smallest eigenvalue, relative to the largest, that
// still counts as an independent direction.
const degenerateRatio = 1e-12

// Whitening holds a centred, decorrelated copy of an observation matrix.
type Whitening struct {
	// Mean of every column before centring.
	Mean []float64
	// InvSqrtCov is the symmetric inverse square root of the column covariance.
	InvSqrtCov *matrix.Dense
	// Data is (X - Mean)·InvSqrtCov; its covariance is the identity.
	Data *matrix.Dense
}

// Whiten centres the columns of X (rows are observations) and rotates them
// onto unit covariance.
//
// Errors:
//   - matrix.ErrInvalidDimensions for fewer than two observations.
//   - mvaerr.ErrDegenerateComponents when the covariance is (near) singular.
func Whiten(X *matrix.Dense) (*Whitening, error) {
	if X == nil {
		return nil, matrix.ErrNilMatrix
	}
	if X.Rows() < 2 || X.Cols() == 0 {
		return nil, matrix.ErrInvalidDimensions
	}
	cov, mean, err := matrix.Covariance(X)
	if err != nil {
		return nil, err
	}
	isq, err := inverseSqrt(cov)
	if err != nil {
		return nil, err
	}
	xc, _, err := matrix.CenterColumns(X)
	if err != nil {
		return nil, err
	}
	z, err := matrix.Mul(xc, isq)
	if err != nil {
		return nil, err
	}

	return &Whitening{Mean: mean, InvSqrtCov: isq, Data: z}, nil
}

// inverseSqrt returns Q·diag(λ^-1/2)·Qᵀ for a symmetric positive definite m.
func inverseSqrt(m *matrix.Dense) (*matrix.Dense, error) {
	vals, q, err := matrix.Eigen(m, matrix.WithMaxSweeps(500))
	if err != nil {
		return nil, err
	}
	k := len(vals)
	if vals[0] <= 0 || vals[k-1] <= degenerateRatio*vals[0] {
		return nil, mvaerr.Usagef(mvaerr.ErrDegenerateComponents,
			"covariance eigenvalues span [%g, %g]", vals[k-1], vals[0])
	}
	scaled := q.Copy()
	inv := make([]float64, k)
	for i, v := range vals {
		inv[i] = 1 / math.Sqrt(v)
	}
	if err = matrix.ScaleColsInPlace(scaled, inv); err != nil {
		return nil, err
	}
	qt, err := matrix.Transpose(q)
	if err != nil {
		return nil, err
	}

	return matrix.Mul(scaled, qt)
}
