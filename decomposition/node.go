// SPDX-License-Identifier: MIT

package decomposition

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

var errPCFailed = errors.New("principal components analysis failed")

// mdpDecomposer is a covariance PCA node: training rows are observations,
// columns are centered by their training mean before projection.
type mdpDecomposer struct{}

func (mdpDecomposer) train(block *mat.Dense, in *Input) (*basis, error) {
	r, c := block.Dims()
	if r < 2 {
		return nil, fmt.Errorf("%w: the covariance node needs at least two training rows, got %d", mvaerr.ErrData, r)
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(block, nil); !ok {
		return nil, errPCFailed
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, k := vecs.Dims()
	k = minInt(k, len(vars))
	if in.OutputDimension > 0 && in.OutputDimension < k {
		k = in.OutputDimension
	}

	offset := make([]float64, c)
	for j := 0; j < c; j++ {
		offset[j] = stat.Mean(mat.Col(nil, j, block), nil)
	}

	return &basis{
		loadings:   mat.DenseCopyOf(vecs.Slice(0, c, 0, k)),
		magnitudes: vars[:k],
		offset:     offset,
	}, nil
}

// nipalsDecomposer extracts components one at a time by NIPALS iterations
// on the column-centered training block, deflating after each.
type nipalsDecomposer struct{}

func (nipalsDecomposer) train(block *mat.Dense, in *Input) (*basis, error) {
	r, c := block.Dims()
	if r < 2 {
		return nil, fmt.Errorf("%w: NIPALS needs at least two training rows, got %d", mvaerr.ErrData, r)
	}
	x := mat.DenseCopyOf(block)
	offset := make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		offset[j] = stat.Mean(col, nil)
		for i := range col {
			x.Set(i, j, col[i]-offset[j])
		}
	}

	k := minInt(r, c)
	if in.OutputDimension > 0 {
		k = in.OutputDimension
	}
	loads := make([][]float64, 0, k)
	mags := make([]float64, 0, k)

	t := make([]float64, r)
	tNew := make([]float64, r)
	p := make([]float64, c)
	tv := mat.NewVecDense(r, t)
	tnv := mat.NewVecDense(r, tNew)
	pv := mat.NewVecDense(c, p)

	for comp := 0; comp < k; comp++ {
		// start from the column with the largest sum of squares
		best, bestSS := 0, -1.0
		for j := 0; j < c; j++ {
			col := mat.Col(nil, j, x)
			if ss := floats.Dot(col, col); ss > bestSS {
				best, bestSS = j, ss
			}
		}
		if bestSS <= 0 {
			break
		}
		mat.Col(t, best, x)

		var it int
		for it = 0; it < in.MaxIterations; it++ {
			tt := floats.Dot(t, t)
			pv.MulVec(x.T(), tv)
			floats.Scale(1/tt, p)
			norm := floats.Norm(p, 2)
			if norm == 0 {
				break
			}
			floats.Scale(1/norm, p)
			tnv.MulVec(x, pv)
			diff := floats.Distance(tNew, t, 2)
			copy(t, tNew)
			if diff <= in.Tolerance*math.Max(floats.Norm(tNew, 2), 1) {
				break
			}
		}
		if it == in.MaxIterations {
			in.Logger.Warn("NIPALS component did not converge", slog.Int("component", comp))
		}

		tt := floats.Dot(t, t)
		if tt == 0 {
			break
		}
		loads = append(loads, append([]float64(nil), p...))
		mags = append(mags, tt/float64(r-1))

		// deflate: X -= t·pᵀ
		var tp mat.Dense
		tp.Outer(1, tv, pv)
		x.Sub(x, &tp)
	}
	if len(loads) == 0 {
		return nil, fmt.Errorf("%w: training block has no variance", mvaerr.ErrData)
	}

	l := mat.NewDense(c, len(loads), nil)
	for j, col := range loads {
		l.SetCol(j, col)
	}

	return &basis{loadings: l, magnitudes: mags, offset: offset}, nil
}
