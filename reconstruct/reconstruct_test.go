// SPDX-License-Identifier: MIT

package reconstruct_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/reconstruct"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
	"github.com/stretchr/testify/require"
)

// fixture: factors 3×2 (signal × k), scores 4×2 (nav × k), nav row 2 excluded.
func fixture(t *testing.T) *results.Result {
	t.Helper()
	f, err := matrix.NewDenseFrom(3, 2, []float64{
		1, 0,
		2, 1,
		0, 3,
	})
	require.NoError(t, err)
	s, err := matrix.NewDenseFrom(4, 2, []float64{
		1, 1,
		2, 0,
		math.NaN(), math.NaN(),
		0, -1,
	})
	require.NoError(t, err)

	return &results.Result{Factors: f, Scores: s}
}

func TestBuild_AllComponents(t *testing.T) {
	rec, err := reconstruct.Build(fixture(t), reconstruct.PCA, reconstruct.All(), reconstruct.Layout{})
	require.NoError(t, err)
	require.Equal(t, []int{4, 3}, rec.Shape())
	require.Equal(t, "rebuilt from pca with 2 components", rec.Title())

	d := rec.Data()
	// nav 0: scores (1,1) → (1, 3, 3)
	require.Equal(t, []float64{1, 3, 3}, d[0:3])
	// nav 1: scores (2,0) → (2, 4, 0)
	require.Equal(t, []float64{2, 4, 0}, d[3:6])
	for _, v := range d[6:9] {
		require.True(t, math.IsNaN(v))
	}
	require.Equal(t, []float64{0, -1, -3}, d[9:12])
}

func TestBuild_AddsStoredMean(t *testing.T) {
	res := fixture(t)
	res.Centered = true
	res.Mean = []float64{10, 20, 30}
	rec, err := reconstruct.Build(res, reconstruct.PCA, reconstruct.First(1), reconstruct.Layout{})
	require.NoError(t, err)
	// nav 0: 1·(1, 2, 0) + mean
	require.Equal(t, []float64{11, 22, 30}, rec.Data()[0:3])
	require.True(t, math.IsNaN(rec.Data()[6]), "excluded positions stay NaN")

	res.Mean = []float64{1, 2}
	_, err = reconstruct.Build(res, reconstruct.PCA, reconstruct.All(), reconstruct.Layout{})
	require.ErrorIs(t, err, mvaerr.ErrShapeMismatch)
}

func TestBuild_SelectionsAndNames(t *testing.T) {
	res := fixture(t)
	rec, err := reconstruct.Build(res, reconstruct.PCA, reconstruct.First(1), reconstruct.Layout{})
	require.NoError(t, err)
	require.Equal(t, "rebuilt from pca with 1 components", rec.Title())
	require.Equal(t, []float64{1, 2, 0}, rec.Data()[0:3])

	rec, err = reconstruct.Build(res, reconstruct.PCA, reconstruct.List(1), reconstruct.Layout{})
	require.NoError(t, err)
	require.Equal(t, "rebuilt from pca with components [1]", rec.Title())
	require.Equal(t, []float64{0, 1, 3}, rec.Data()[0:3])

	for _, sel := range []reconstruct.Selection{
		reconstruct.First(3), reconstruct.First(-1), reconstruct.List(), reconstruct.List(2),
	} {
		_, err = reconstruct.Build(res, reconstruct.PCA, sel, reconstruct.Layout{})
		require.ErrorIs(t, err, mvaerr.ErrInvalidSelection)
	}

	_, err = reconstruct.Build(res, reconstruct.ICA, reconstruct.All(), reconstruct.Layout{})
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)
}

func TestBuild_RespectsCroppedScores(t *testing.T) {
	res := fixture(t)
	require.NoError(t, res.CropScores(1))
	rec, err := reconstruct.Build(res, reconstruct.PCA, reconstruct.All(), reconstruct.Layout{})
	require.NoError(t, err)
	require.Equal(t, "rebuilt from pca with 1 components", rec.Title())
}

func TestBuild_FoldsAndResidual(t *testing.T) {
	res := fixture(t)
	layout := reconstruct.Layout{Shape: []int{2, 3, 2}, SignalAxis: 1}
	rec, err := reconstruct.Build(res, reconstruct.PCA, reconstruct.All(), layout)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 2}, rec.Shape())

	// unfolding the rebuilt signal gives back the navigation × signal rows
	cp := rec.Clone()
	require.True(t, cp.Unfold())
	m, err := cp.Matrix()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 3, 3}, m.Row(0))

	orig, err := signal.New([]int{2, 3, 2}, 1, make([]float64, 12))
	require.NoError(t, err)
	for i := range orig.Data() {
		orig.Data()[i] = float64(i)
	}
	resid, err := reconstruct.Residual(orig, rec)
	require.NoError(t, err)
	for i, v := range resid.Data() {
		if math.IsNaN(rec.Data()[i]) {
			require.True(t, math.IsNaN(v))
			continue
		}
		require.Equal(t, orig.Data()[i]-rec.Data()[i], v)
	}

	flat, err := signal.New([]int{12}, 0, make([]float64, 12))
	require.NoError(t, err)
	_, err = reconstruct.Residual(flat, rec)
	require.ErrorIs(t, err, mvaerr.ErrShapeMismatch)

	_, err = reconstruct.Build(res, reconstruct.PCA, reconstruct.All(), reconstruct.Layout{Shape: []int{3, 4}, SignalAxis: 1})
	require.ErrorIs(t, err, mvaerr.ErrShapeMismatch)
}
