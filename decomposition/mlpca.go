// SPDX-License-Identifier: MIT

package decomposition

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// mlpcaDecomposer is maximum-likelihood PCA by alternating weighted
// regressions: each column of the data is regressed onto the current
// p-dimensional basis with weights 1/variance, then the roles of rows and
// columns swap and the basis is refreshed from the SVD of the estimate.
type mlpcaDecomposer struct {
	fast bool
}

// validateVariance rejects mis-specified variance options before any work.
func validateVariance(in Input, dr, dc int) error {
	if in.OutputDimension == 0 {
		return mvaerr.ErrOutputDimensionRequired
	}
	v := in.Variance
	set := 0
	if v.Array != nil {
		set++
	}
	if v.Func != nil {
		set++
	}
	if v.Polynomial != nil {
		set++
	}
	if set > 1 {
		return mvaerr.ErrConflictingVariance
	}
	if v.Polynomial != nil {
		if err := validatePolynomial(v.Polynomial); err != nil {
			return err
		}
	}
	if v.Array != nil {
		ar, ac := v.Array.Shape()
		if ar != dr || ac != dc {
			return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "variance array %dx%d, data %dx%d", ar, ac, dr, dc)
		}
	}

	return nil
}

// trainingVariance builds the variance matrix aligned with the training block.
func trainingVariance(block *mat.Dense, in *Input) (*mat.Dense, error) {
	r, c := block.Dims()
	v := in.Variance
	var out *mat.Dense
	switch {
	case v.Array != nil:
		sub, err := v.Array.Induced(in.SigMask.Indices(), in.NavMask.Indices())
		if err != nil {
			return nil, err
		}
		if out, err = matrix.ToGonum(sub); err != nil {
			return nil, err
		}
	case v.Func != nil:
		res, err := v.Func(matrix.FromGonum(block))
		if err != nil {
			return nil, fmt.Errorf("variance function: %w", err)
		}
		if res == nil || res.Rows() != r || res.Cols() != c {
			return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "variance function must return a %dx%d matrix", r, c)
		}
		if out, err = matrix.ToGonum(res); err != nil {
			return nil, err
		}
	case v.Polynomial != nil:
		out = mat.NewDense(r, c, nil)
		var e float64
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				e = Polyval(v.Polynomial, block.At(i, j))
				if math.IsNaN(e) || math.IsInf(e, 0) {
					return nil, mvaerr.Usagef(mvaerr.ErrInvalidPolynomial, "non-finite variance at (%d,%d)", i, j)
				}
				out.Set(i, j, e)
			}
		}
	default:
		in.Logger.Info("no variance provided; assuming Poisson noise (variance = data)")
		out = mat.DenseCopyOf(block)
	}

	// floor non-positive variances at the smallest positive one
	minPos := math.Inf(1)
	var i, j int
	var x float64
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if x = out.At(i, j); x > 0 && x < minPos {
				minPos = x
			}
		}
	}
	if math.IsInf(minPos, 1) {
		return nil, fmt.Errorf("%w: no positive variance in the training block", mvaerr.ErrData)
	}
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if x = out.At(i, j); !(x > 0) {
				out.Set(i, j, minPos)
			}
		}
	}

	return out, nil
}

func (d mlpcaDecomposer) train(block *mat.Dense, in *Input) (*basis, error) {
	varX, err := trainingVariance(block, in)
	if err != nil {
		return nil, err
	}
	p := in.OutputDimension
	rng := rand.New(rand.NewSource(in.Seed))
	svdOf := func(a *mat.Dense) (*mat.Dense, []float64, *mat.Dense, error) {
		if d.fast {
			return randomizedSVD(a, p, rng)
		}
		return thinSVD(a)
	}

	// Stage 1: initial basis from the plain SVD
	x := mat.DenseCopyOf(block)
	u0, _, _, err := svdOf(x)
	if err != nil {
		return nil, err
	}
	u := mat.DenseCopyOf(u0.Slice(0, rowsOf(u0), 0, p))

	var (
		sobj, sold float64
		k          int
		converged  bool
		transposed bool
		mlx        *mat.Dense
	)
	for k = 0; ; k++ {
		// Stage 2: weighted regression of every column onto u
		mlx, sobj, err = regressColumns(x, varX, u)
		if err != nil {
			return nil, err
		}
		if k%2 == 1 {
			if sobj == 0 || math.Abs(sold-sobj)/sobj < in.Tolerance {
				converged = true
				break
			}
			if k > in.MaxIterations {
				break
			}
		} else {
			sold = sobj
		}

		// Stage 3: refresh the basis from the estimate and swap roles
		_, _, v, err := svdOf(mlx)
		if err != nil {
			return nil, err
		}
		u = mat.DenseCopyOf(v.Slice(0, rowsOf(v), 0, p))
		x = mat.DenseCopyOf(x.T())
		varX = mat.DenseCopyOf(varX.T())
		transposed = !transposed
	}
	if !converged {
		in.Logger.Warn("ML-PCA reached the iteration limit", slog.Int("iterations", k), slog.Float64("objective", sobj))
	}
	if transposed {
		mlx = mat.DenseCopyOf(mlx.T())
	}

	// Stage 4: final factorisation of the estimate in training orientation
	_, s, v, err := thinSVD(mlx)
	if err != nil {
		return nil, err
	}

	return &basis{
		loadings:   mat.DenseCopyOf(v.Slice(0, rowsOf(v), 0, p)),
		magnitudes: squares(s[:p]),
		report:     &MLPCAReport{Objective: sobj, Iterations: k, Converged: converged},
	}, nil
}

// regressColumns returns the ML estimate of x in span(u) and the weighted
// objective Σ (x - mlx)ᵀ Q (x - mlx) with Q = diag(1/var).
func regressColumns(x, varX, u *mat.Dense) (*mat.Dense, float64, error) {
	r, c := x.Dims()
	_, p := u.Dims()
	mlx := mat.NewDense(r, c, nil)
	uw := mat.NewDense(r, p, nil)
	var a mat.Dense
	b := mat.NewVecDense(p, nil)
	var coef, est mat.VecDense
	xcol := make([]float64, r)
	var sobj float64

	for j := 0; j < c; j++ {
		mat.Col(xcol, j, x)
		// uw = Q·u
		for i := 0; i < r; i++ {
			w := 1 / varX.At(i, j)
			for l := 0; l < p; l++ {
				uw.Set(i, l, w*u.At(i, l))
			}
		}
		a.Reset()
		a.Mul(u.T(), uw)
		b.MulVec(uw.T(), mat.NewVecDense(r, xcol))
		coef.Reset()
		if err := coef.SolveVec(&a, b); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return nil, 0, fmt.Errorf("weighted regression of column %d: %w", j, err)
			}
		}
		est.Reset()
		est.MulVec(u, &coef)
		for i := 0; i < r; i++ {
			e := est.AtVec(i)
			mlx.Set(i, j, e)
			dx := xcol[i] - e
			sobj += dx * dx / varX.At(i, j)
		}
	}

	return mlx, sobj, nil
}

func rowsOf(m mat.Matrix) int {
	r, _ := m.Dims()
	return r
}
