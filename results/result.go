// SPDX-License-Identifier: MIT

// Package results holds decomposition outcomes: the Result record, the
// two-slot Store keyed by analysis target, and BSON archive persistence.
package results

import (
	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// Result is one decomposition of one analysis target.
type Result struct {
	// Factors is signal × k.
	Factors *matrix.Dense
	// Scores is navigation × k; excluded navigation positions are NaN rows.
	Scores *matrix.Dense
	// Magnitudes are descending component magnitudes (squared singular
	// values or component variances, by algorithm).
	Magnitudes []float64

	PCAAlgorithm      decomposition.Algorithm
	Centered          bool
	Variance2One      bool
	PoissonNormalized bool
	// OutputDimension is nil when the decomposition kept full rank.
	OutputDimension *int

	// Mean is the per-signal-index mean removed by centering, nil otherwise.
	// Reconstructions add it back.
	Mean []float64

	// UnfoldedShape is the signal shape before unfolding, nil when the
	// signal was already canonical.
	UnfoldedShape []int
	// NavShape reshapes score rows into maps.
	NavShape []int
	NavMask  signal.Mask
	SigMask  signal.Mask

	MLPCA *decomposition.MLPCAReport

	// ICA part; Unmixing is nil until an ICA ran.
	Unmixing      *matrix.Dense
	ICAFactors    *matrix.Dense
	ICAScores     *matrix.Dense
	ICAAlgorithm  ica.Algorithm
	ICAComponents []int
}

// HasICA reports whether the result carries an unmixing.
func (r *Result) HasICA() bool { return r != nil && r.Unmixing != nil }

// ClearICA drops the unmixing and everything derived from it.
func (r *Result) ClearICA() {
	r.Unmixing = nil
	r.ICAFactors = nil
	r.ICAScores = nil
	r.ICAComponents = nil
	r.ICAAlgorithm = ica.CuBICA
}

// CropScores keeps only the first n score columns. Factors are untouched,
// so later reconstructions can use at most n components.
func (r *Result) CropScores(n int) error {
	if r == nil || r.Scores == nil {
		return mvaerr.ErrNoDecomposition
	}
	if n <= 0 || n > r.Scores.Cols() {
		return mvaerr.Usagef(mvaerr.ErrInvalidSelection, "crop to %d of %d components", n, r.Scores.Cols())
	}
	cropped, err := r.Scores.Induced(seq(r.Scores.Rows()), seq(n))
	if err != nil {
		return err
	}
	r.Scores = cropped

	return nil
}

// Components is the number of components usable for reconstruction.
func (r *Result) Components() int {
	if r == nil || r.Factors == nil || r.Scores == nil {
		return 0
	}
	if r.Scores.Cols() < r.Factors.Cols() {
		return r.Scores.Cols()
	}

	return r.Factors.Cols()
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}
