// SPDX-License-Identifier: MIT

// Package decomposition implements the PCA back-ends of the analysis pipeline.
//
// Conventions:
//   - Input data dc is signal × navigation (one spectrum per column).
//   - A back-end trains on the masked block dc[sigMask][:, navMask] and returns
//     loadings V (navigation' × k), magnitudes and an optional column offset.
//   - Factors are dc[:, navMask]·V (one column per component, full signal length);
//     scores are V expanded to every navigation position, NaN where excluded.
package decomposition

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/signal"
)

const (
	// DefaultTolerance is the ML-PCA relative objective change (and NIPALS
	// score change) under which iterations stop.
	DefaultTolerance = 1e-10

	// DefaultMaxIterations caps ML-PCA and NIPALS iterations.
	DefaultMaxIterations = 50000

	// DefaultSeed seeds the randomised SVD sketch.
	DefaultSeed int64 = 0

	// oversample and powerIterations tune the randomised SVD.
	oversample      = 10
	powerIterations = 4
)

// Variance describes the per-element noise variance for ML-PCA. At most one
// of Array and Func (or Polynomial) may be set; none means Poisson noise
// (variance = data).
type Variance struct {
	// Array is signal × navigation, aligned with Input.Data.
	Array *matrix.Dense
	// Func derives the variance from the training block (same shape out).
	Func func(block *matrix.Dense) (*matrix.Dense, error)
	// Polynomial holds coefficients, highest power first, evaluated on the data.
	Polynomial []float64
}

func (v Variance) isZero() bool {
	return v.Array == nil && v.Func == nil && v.Polynomial == nil
}

// Input is one decomposition request.
type Input struct {
	Data            *matrix.Dense
	NavMask         signal.Mask
	SigMask         signal.Mask
	OutputDimension int // 0 means unset
	Variance        Variance
	Seed            int64
	Tolerance       float64
	MaxIterations   int
	Logger          *slog.Logger
}

// MLPCAReport is the convergence record of an ML-PCA run.
type MLPCAReport struct {
	Objective  float64
	Iterations int
	Converged  bool
}

// Output is a decomposition result before any Poisson rescaling.
type Output struct {
	Factors    *matrix.Dense // signal × k
	Scores     *matrix.Dense // navigation × k, NaN rows where excluded
	Magnitudes []float64
	MLPCA      *MLPCAReport
}

// basis is what a back-end learns from the training block.
type basis struct {
	loadings   *mat.Dense // navigation' × k
	magnitudes []float64
	offset     []float64 // per training column; nil when uncentered
	report     *MLPCAReport
}

// Decomposer is one PCA back-end.
type Decomposer interface {
	train(block *mat.Dense, in *Input) (*basis, error)
}

// Decompose runs algo on in.
//
// Implementation:
//   - Stage 1: validate the request (before anything is computed).
//   - Stage 2: cut the training block and dispatch.
//   - Stage 3: project, expand scores, truncate to the output dimension.
//
// Errors:
//   - ErrUnknownAlgorithm, ErrOutputDimensionRequired, ErrConflictingVariance,
//     ErrInvalidPolynomial, ErrShapeMismatch (usage).
//   - Numerical failures wrapped with the algorithm tag.
func Decompose(algo Algorithm, in Input) (*Output, error) {
	if err := Validate(algo, in); err != nil {
		return nil, err
	}
	d := decomposers[algo]
	if in.Logger == nil {
		in.Logger = slog.Default()
	}
	if in.Tolerance <= 0 {
		in.Tolerance = DefaultTolerance
	}
	if in.MaxIterations <= 0 {
		in.MaxIterations = DefaultMaxIterations
	}

	// Stage 2
	sigN, navN := in.Data.Shape()
	nm, err := in.NavMask.Resolve(navN)
	if err != nil {
		return nil, err
	}
	sm, err := in.SigMask.Resolve(sigN)
	if err != nil {
		return nil, err
	}
	in.NavMask, in.SigMask = nm, sm
	navIdx, sigIdx := nm.Indices(), sm.Indices()
	if len(navIdx) == 0 || len(sigIdx) == 0 {
		return nil, fmt.Errorf("%w: masks leave an empty training block", mvaerr.ErrData)
	}
	tb, err := in.Data.Induced(sigIdx, navIdx)
	if err != nil {
		return nil, err
	}
	block, err := matrix.ToGonum(tb)
	if err != nil {
		return nil, err
	}

	bound := minInt(len(navIdx), len(sigIdx))
	if in.OutputDimension > bound {
		in.Logger.Info("output dimension exceeds the training block rank bound; truncating",
			slog.Int("requested", in.OutputDimension), slog.Int("bound", bound))
		in.OutputDimension = bound
	}

	b, err := d.train(block, &in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", algo, err)
	}

	// Stage 3
	return project(in, navIdx, b)
}

// Validate checks a request without computing anything.
func Validate(algo Algorithm, in Input) error {
	if in.Data == nil {
		return mvaerr.Usagef(mvaerr.ErrUsage, "no data")
	}
	r, c := in.Data.Shape()

	return ValidateShape(algo, in, r, c)
}

// ValidateShape is Validate for data of signalSize × navSize that has not
// been built yet; in.Data is ignored. Callers use it to reject a request
// before touching their buffers.
func ValidateShape(algo Algorithm, in Input, signalSize, navSize int) error {
	if _, ok := decomposers[algo]; !ok {
		return mvaerr.Usagef(mvaerr.ErrUnknownAlgorithm, "PCA algorithm %v", algo)
	}
	if in.OutputDimension < 0 {
		return mvaerr.Usagef(mvaerr.ErrUsage, "negative output dimension %d", in.OutputDimension)
	}
	if algo.IsMaximumLikelihood() {
		return validateVariance(in, signalSize, navSize)
	}

	return nil
}

// project builds factors and scores from a learned basis.
func project(in Input, navIdx []int, b *basis) (*Output, error) {
	sigN, navN := in.Data.Shape()
	_, k := b.loadings.Dims()
	if in.OutputDimension > 0 && in.OutputDimension < k {
		k = in.OutputDimension
	}

	full, err := in.Data.Induced(seqInts(sigN), navIdx)
	if err != nil {
		return nil, err
	}
	if b.offset != nil {
		if err = matrix.SubRowVectorInPlace(full, b.offset); err != nil {
			return nil, err
		}
	}
	dn, err := matrix.ToGonum(full)
	if err != nil {
		return nil, err
	}
	lk := b.loadings.Slice(0, len(navIdx), 0, k)
	var pc mat.Dense
	pc.Mul(dn, lk)

	scores, err := matrix.NewDense(navN, k)
	if err != nil {
		return nil, err
	}
	for i := 0; i < navN; i++ {
		row := scores.Row(i)
		for j := range row {
			row[j] = math.NaN()
		}
	}
	for r, i := range navIdx {
		row := scores.Row(i)
		for j := 0; j < k; j++ {
			row[j] = lk.At(r, j)
		}
	}

	return &Output{
		Factors:    matrix.FromGonum(&pc),
		Scores:     scores,
		Magnitudes: append([]float64(nil), b.magnitudes[:k]...),
		MLPCA:      b.report,
	}, nil
}

func seqInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
