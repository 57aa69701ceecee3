// SPDX-License-Identifier: MIT

package decomposition

import (
	"errors"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var errSVDFailed = errors.New("SVD factorisation failed")

// svdDecomposer is the exact thin SVD of the training block.
type svdDecomposer struct{}

func (svdDecomposer) train(block *mat.Dense, _ *Input) (*basis, error) {
	_, s, v, err := thinSVD(block)
	if err != nil {
		return nil, err
	}

	return &basis{loadings: v, magnitudes: squares(s)}, nil
}

// fastSVDDecomposer is a randomised truncated SVD honouring the output dimension.
type fastSVDDecomposer struct{}

func (fastSVDDecomposer) train(block *mat.Dense, in *Input) (*basis, error) {
	if in.OutputDimension == 0 {
		in.Logger.Info("fast_svd without an output dimension; computing the full-rank decomposition")
		return svdDecomposer{}.train(block, in)
	}
	rng := rand.New(rand.NewSource(in.Seed))
	_, s, v, err := randomizedSVD(block, in.OutputDimension, rng)
	if err != nil {
		return nil, err
	}
	in.Logger.Debug("randomised SVD done", slog.Int("components", len(s)))

	return &basis{loadings: v, magnitudes: squares(s)}, nil
}

// thinSVD returns U, singular values (descending) and V with a = U·diag(s)·Vᵀ.
func thinSVD(a mat.Matrix) (*mat.Dense, []float64, *mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, nil, nil, errSVDFailed
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	return &u, svd.Values(nil), &v, nil
}

// randomizedSVD approximates the leading k singular triplets of a
// (Gaussian sketch, power iterations with re-orthonormalisation, small SVD).
//
// Complexity:
//   - Time O(m·n·l·(2q+2)) with l = k + oversample, q = powerIterations.
func randomizedSVD(a *mat.Dense, k int, rng *rand.Rand) (*mat.Dense, []float64, *mat.Dense, error) {
	m, n := a.Dims()
	l := minInt(k+oversample, minInt(m, n))
	if k > l {
		k = l
	}

	// Stage 1: sketch Y = A·Ω
	omega := mat.NewDense(n, l, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < l; j++ {
			omega.Set(i, j, rng.NormFloat64())
		}
	}
	var y mat.Dense
	y.Mul(a, omega)
	q := orthonormalize(&y)

	// Stage 2: power iterations
	for it := 0; it < powerIterations; it++ {
		var z mat.Dense
		z.Mul(a.T(), q)
		zq := orthonormalize(&z)
		var yy mat.Dense
		yy.Mul(a, zq)
		q = orthonormalize(&yy)
	}

	// Stage 3: B = Qᵀ·A, exact SVD of the small matrix
	var b mat.Dense
	b.Mul(q.T(), a)
	ub, s, vb, err := thinSVD(&b)
	if err != nil {
		return nil, nil, nil, err
	}
	var u mat.Dense
	u.Mul(q, ub)

	uk := mat.DenseCopyOf(u.Slice(0, m, 0, k))
	vk := mat.DenseCopyOf(vb.Slice(0, n, 0, k))

	return uk, s[:k], vk, nil
}

// orthonormalize returns an orthonormal basis (thin Q) for the columns of y.
// y must have at least as many rows as columns.
func orthonormalize(y *mat.Dense) *mat.Dense {
	r, c := y.Dims()
	var qr mat.QR
	qr.Factorize(y)
	var q mat.Dense
	qr.QTo(&q)

	return mat.DenseCopyOf(q.Slice(0, r, 0, c))
}

func squares(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v * v
	}

	return out
}
