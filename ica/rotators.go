// SPDX-License-Identifier: MIT

package ica

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/lvlath-mva/matrix"
)

func trainJADE(z [][]float64, opts Options) (rotation, error) {
	k := len(z[0])

	return diagonalizerRotation(fourthOrderCumulants(z, k), k, opts), nil
}

func trainCuBICA(z [][]float64, opts Options) (rotation, error) {
	k := len(z[0])
	ms := append(thirdOrderSlices(z, k), fourthOrderCumulants(z, k)...)

	return diagonalizerRotation(ms, k, opts), nil
}

func trainTDSEP(z [][]float64, opts Options) (rotation, error) {
	k := len(z[0])
	lags := opts.Lags
	if lags <= 0 {
		lags = DefaultLags
	}
	ms := laggedCovariances(z, k, lags)
	if len(ms) == 0 {
		return rotation{}, fmt.Errorf("TDSEP: %d observations leave no lagged covariance", len(z))
	}

	return diagonalizerRotation(ms, k, opts), nil
}

// diagonalizerRotation jointly diagonalises ms; the rotation is Vᵀ.
func diagonalizerRotation(ms [][]float64, k int, opts Options) rotation {
	v, sweeps := jointDiagonalize(ms, k, opts.Tolerance, opts.MaxIterations)

	return rotation{R: transposeSquare(v, k), Iterations: sweeps, Converged: sweeps < opts.MaxIterations}
}

// trainFastICA runs the symmetric fixed-point iteration with the log-cosh
// contrast (g = tanh). Rows of W are unmixing directions.
func trainFastICA(z [][]float64, opts Options) (rotation, error) {
	k := len(z[0])
	n := float64(len(z))
	rng := rand.New(rand.NewSource(opts.Seed))

	w := make([]float64, k*k)
	for i := range w {
		w[i] = rng.NormFloat64()
	}
	w, err := symmetricDecorrelation(w, k)
	if err != nil {
		return rotation{}, err
	}

	g := make([]float64, k)
	out := rotation{}
	for it := 0; it < opts.MaxIterations; it++ {
		w1 := make([]float64, k*k)
		dg := make([]float64, k)
		for _, x := range z {
			for i := 0; i < k; i++ {
				var acc float64
				for j := 0; j < k; j++ {
					acc += w[i*k+j] * x[j]
				}
				g[i] = math.Tanh(acc)
				dg[i] += 1 - g[i]*g[i]
			}
			for i := 0; i < k; i++ {
				for j := 0; j < k; j++ {
					w1[i*k+j] += g[i] * x[j]
				}
			}
		}
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				w1[i*k+j] = w1[i*k+j]/n - dg[i]/n*w[i*k+j]
			}
		}
		if w1, err = symmetricDecorrelation(w1, k); err != nil {
			return rotation{}, err
		}

		// converged when every new direction is (anti)parallel to the old one
		var lim float64
		for i := 0; i < k; i++ {
			var dot float64
			for j := 0; j < k; j++ {
				dot += w1[i*k+j] * w[i*k+j]
			}
			lim = math.Max(lim, math.Abs(math.Abs(dot)-1))
		}
		w = w1
		out.Iterations = it + 1
		if lim < opts.Tolerance {
			out.Converged = true
			break
		}
	}
	out.R = w

	return out, nil
}

// symmetricDecorrelation returns (W Wᵀ)^{-1/2} W.
func symmetricDecorrelation(w []float64, k int) ([]float64, error) {
	wd, err := matrix.NewDenseFrom(k, k, w)
	if err != nil {
		return nil, err
	}
	wt, err := matrix.Transpose(wd)
	if err != nil {
		return nil, err
	}
	wwt, err := matrix.Mul(wd, wt)
	if err != nil {
		return nil, err
	}
	isq, err := inverseSqrt(wwt)
	if err != nil {
		return nil, err
	}
	out, err := matrix.Mul(isq, wd)
	if err != nil {
		return nil, err
	}

	return out.Raw(), nil
}
