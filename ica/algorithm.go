// SPDX-License-Identifier: MIT

package ica

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// Algorithm selects the rotation trained on whitened components.
type Algorithm int

const (
	// CuBICA jointly diagonalises third- and fourth-order cumulant slices.
	CuBICA Algorithm = iota
	// FastICA is the symmetric fixed-point iteration with log-cosh contrast.
	FastICA
	// JADE jointly diagonalises fourth-order cumulant matrices.
	JADE
	// TDSEP jointly diagonalises time-lagged covariance matrices.
	TDSEP
)

var algorithmNames = [...]string{
	CuBICA:  "CuBICA",
	FastICA: "FastICA",
	JADE:    "JADE",
	TDSEP:   "TDSEP",
}

func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(algorithmNames) {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}

	return algorithmNames[a]
}

// ParseAlgorithm maps a name (case-insensitive) to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for i, name := range algorithmNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Algorithm(i), nil
		}
	}

	return 0, mvaerr.Usagef(mvaerr.ErrUnknownAlgorithm, "ICA algorithm %q", s)
}

// rotation is a learned orthogonal k×k matrix R, rows flattened row-major.
// Converged is false when the learner stopped at Options.MaxIterations.
type rotation struct {
	R          []float64
	Iterations int
	Converged  bool
}

// rotator learns R from whitened data z (n×k), such that the sources are z·Rᵀ.
type rotator func(z [][]float64, opts Options) (rotation, error)

var rotators = map[Algorithm]rotator{
	CuBICA:  trainCuBICA,
	FastICA: trainFastICA,
	JADE:    trainJADE,
	TDSEP:   trainTDSEP,
}
