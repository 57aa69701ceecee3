// SPDX-License-Identifier: MIT

package mva_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mva"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/reconstruct"
	"github.com/katalvlaran/lvlath-mva/signal"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// rankTwoSignal is a 10 × 5 (navigation × signal) spectrum line of rank two
// plus seeded noise, strictly positive.
func rankTwoSignal(t *testing.T) *signal.Signal {
	t.Helper()
	p := []float64{1, 4, 9, 4, 1}
	q := []float64{5, 3, 1, 3, 5}
	rng := rand.New(rand.NewSource(3))
	data := make([]float64, 0, 50)
	for i := 0; i < 10; i++ {
		u, v := 1+float64(i), 10-float64(i)
		for j := range p {
			data = append(data, u*p[j]+v*q[j]+0.1*rng.NormFloat64())
		}
	}
	s, err := signal.New([]int{10, 5}, 1, data)
	require.NoError(t, err)

	return s
}

func energy(t *testing.T, s *signal.Signal) float64 {
	t.Helper()
	m, err := matrix.Wrap(1, len(s.Data()), s.Data())
	require.NoError(t, err)
	e, err := matrix.FrobeniusSq(m)
	require.NoError(t, err)

	return e
}

func TestEndToEnd_ResidualShrinksWithComponents(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	a := mva.New(rankTwoSignal(t), mva.WithLogger(quietLogger(&logs)))
	res, err := a.Decompose(ctx)
	require.NoError(t, err)
	require.Equal(t, decomposition.SVD, res.PCAAlgorithm)
	require.Nil(t, res.OutputDimension)

	_, r1, err := a.BuildPCA(ctx, signal.TargetSignal, reconstruct.First(1))
	require.NoError(t, err)
	rec2, r2, err := a.BuildPCA(ctx, signal.TargetSignal, reconstruct.First(2))
	require.NoError(t, err)
	require.Less(t, energy(t, r2), energy(t, r1))
	require.Equal(t, "rebuilt from pca with 2 components", rec2.Title())

	// reconstruction + residual is the original
	for i, v := range a.Signal().Data() {
		require.InDelta(t, v, rec2.Data()[i]+r2.Data()[i], 1e-9)
	}

	ev, err := a.ExplainedVariance(ctx, signal.TargetSignal)
	require.NoError(t, err)
	require.InDelta(t, 1, ev.Cumulative[len(ev.Cumulative)-1], 1e-12)
	require.Greater(t, ev.Ratio[0], ev.Ratio[1])
}

func TestBuildPCA_FullRankUndoesPreprocessing(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		opts []mva.Option
		mean bool
	}{
		{"variance2one", []mva.Option{mva.WithVariance2One()}, false},
		{"centering", []mva.Option{mva.WithCentering()}, true},
		{"centering and variance2one", []mva.Option{mva.WithCentering(), mva.WithVariance2One()}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			a := mva.New(rankTwoSignal(t), mva.WithLogger(quietLogger(&logs)))
			res, err := a.Decompose(ctx, tc.opts...)
			require.NoError(t, err)
			require.Equal(t, tc.mean, res.Mean != nil)

			rec, residual, err := a.BuildPCA(ctx, signal.TargetSignal, reconstruct.All())
			require.NoError(t, err)
			for i, v := range residual.Data() {
				require.InDelta(t, 0, v, 1e-8, "residual at %d", i)
			}
			for i, v := range a.Signal().Data() {
				require.InDelta(t, v, rec.Data()[i], 1e-8)
			}
		})
	}
}

func TestDecompose_RestoresDataAndShape(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(9))
	data := make([]float64, 2*5*3)
	for i := range data {
		data[i] = 1 + rng.Float64()
	}
	s, err := signal.New([]int{2, 5, 3}, 1, data)
	require.NoError(t, err)
	before := append([]float64(nil), s.Data()...)

	var logs bytes.Buffer
	a := mva.New(s, mva.WithLogger(quietLogger(&logs)))
	res, err := a.Decompose(ctx, mva.WithCentering(), mva.WithVariance2One(), mva.WithOutputDimension(3))
	require.NoError(t, err)
	require.Equal(t, before, s.Data(), "data restored bit for bit")
	require.Equal(t, []int{2, 5, 3}, s.Shape())
	require.False(t, s.IsUnfolded())
	require.Equal(t, []int{2, 5, 3}, res.UnfoldedShape)
	require.Equal(t, []int{2, 3}, res.NavShape)
	require.Equal(t, 6, res.Scores.Rows())
	require.Equal(t, 5, res.Factors.Rows())
	require.NotNil(t, res.OutputDimension)
	require.Equal(t, 3, *res.OutputDimension)

	rec, _, err := a.BuildPCA(ctx, signal.TargetSignal, reconstruct.All())
	require.NoError(t, err)
	require.Equal(t, []int{2, 5, 3}, rec.Shape())

	maps, err := a.ComponentMaps(ctx, signal.TargetSignal, reconstruct.PCA, []int{0, 2}, false)
	require.NoError(t, err)
	require.Len(t, maps, 2)
	require.Equal(t, []int{2, 3}, maps[1].Shape)
	require.Len(t, maps[1].Values, 6)
}

func TestDecompose_ConflictPolicies(t *testing.T) {
	ctx := context.Background()

	var logs bytes.Buffer
	a := mva.New(rankTwoSignal(t), mva.WithLogger(quietLogger(&logs)))
	res, err := a.Decompose(ctx, mva.WithAlgorithm(decomposition.MDP), mva.WithOutputDimension(2))
	require.NoError(t, err)
	require.True(t, res.Centered, "mdp forces centering")

	res, err = a.Decompose(ctx, mva.WithCentering(), mva.WithVariance2One(), mva.WithPoissonNormalization())
	require.NoError(t, err)
	require.False(t, res.Centered)
	require.False(t, res.Variance2One)
	require.True(t, res.PoissonNormalized)
	require.Contains(t, logs.String(), "centering disabled")
	require.Contains(t, logs.String(), "variance2one disabled")

	logs.Reset()
	res, err = a.Decompose(ctx,
		mva.WithAlgorithm(decomposition.MLPCA), mva.WithOutputDimension(2), mva.WithPoissonNormalization(),
		mva.WithTolerance(1e-8), mva.WithMaxIterations(500))
	require.NoError(t, err)
	require.False(t, res.PoissonNormalized)
	require.NotNil(t, res.MLPCA)
	require.Contains(t, logs.String(), "level=WARN")
}

func TestDecompose_UsageErrorLeavesDataUntouched(t *testing.T) {
	ctx := context.Background()
	s := rankTwoSignal(t)
	before := append([]float64(nil), s.Data()...)
	var logs bytes.Buffer
	a := mva.New(s, mva.WithLogger(quietLogger(&logs)))

	_, err := a.Decompose(ctx, mva.WithAlgorithm(decomposition.MLPCA))
	require.ErrorIs(t, err, mvaerr.ErrOutputDimensionRequired)
	require.True(t, mvaerr.IsUsage(err))
	require.Equal(t, before, s.Data())
	require.Contains(t, logs.String(), "decomposition failed")

	_, err = a.Result(signal.TargetSignal)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)
}

func TestDecompose_PoissonMasks(t *testing.T) {
	ctx := context.Background()
	s := rankTwoSignal(t)
	// navigation position 4 is all zeros
	for j := 0; j < 5; j++ {
		s.Data()[4*5+j] = 0
	}
	var logs bytes.Buffer
	a := mva.New(s, mva.WithLogger(quietLogger(&logs)))
	res, err := a.Decompose(ctx, mva.WithPoissonNormalization(), mva.WithOutputDimension(2))
	require.NoError(t, err)
	require.False(t, res.NavMask.IsUnset())
	for i, b := range res.NavMask.Bits() {
		require.Equal(t, i != 4, b, "position %d", i)
	}
	require.True(t, res.SigMask.IsUnset())
	for _, v := range res.Scores.Row(4) {
		require.True(t, math.IsNaN(v))
	}

	s.Data()[7] = -1e6
	before := append([]float64(nil), s.Data()...)
	_, err = a.Decompose(ctx, mva.WithPoissonNormalization())
	require.ErrorIs(t, err, mvaerr.ErrNegativeCounts)
	require.True(t, mvaerr.IsData(err))
	require.Equal(t, before, s.Data())
}

func TestDecompose_TreatmentInProgress(t *testing.T) {
	s := rankTwoSignal(t)
	tr, err := s.BeginTreatment(signal.TargetSignal)
	require.NoError(t, err)
	defer tr.Restore()

	var logs bytes.Buffer
	a := mva.New(s, mva.WithLogger(quietLogger(&logs)))
	_, err = a.Decompose(context.Background())
	require.ErrorIs(t, err, mvaerr.ErrTreatmentInProgress)
}

func TestPeakCharacteristicsSlot(t *testing.T) {
	ctx := context.Background()
	s := rankTwoSignal(t)
	peaks, err := matrix.NewDenseFrom(10, 3, func() []float64 {
		out := make([]float64, 30)
		for i := range out {
			out[i] = float64(i%7) + float64(i/3)
		}
		return out
	}())
	require.NoError(t, err)
	require.NoError(t, s.SetPeakCharacteristics(peaks))

	var logs bytes.Buffer
	a := mva.New(s, mva.WithLogger(quietLogger(&logs)))
	res, err := a.Decompose(ctx, mva.OnTarget(signal.TargetPeakCharacteristics))
	require.NoError(t, err)
	require.Equal(t, 3, res.Factors.Rows())

	_, err = a.Result(signal.TargetSignal)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)

	rec, resid, err := a.BuildPCA(ctx, signal.TargetPeakCharacteristics, reconstruct.All())
	require.NoError(t, err)
	require.Equal(t, []int{10, 3}, rec.Shape())
	require.Less(t, energy(t, resid), 1e-18*energy(t, rec)+1e-12)

	a.Discard(signal.TargetPeakCharacteristics)
	_, err = a.Result(signal.TargetPeakCharacteristics)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)
}

// twoSourceSignal mixes a sine and a sawtooth spectrum over 30 positions.
func twoSourceSignal(t *testing.T) *signal.Signal {
	t.Helper()
	const channels = 400
	rng := rand.New(rand.NewSource(5))
	data := make([]float64, 0, 30*channels)
	for i := 0; i < 30; i++ {
		a, b := 0.5+rng.Float64(), 0.5+rng.Float64()
		for j := 0; j < channels; j++ {
			s1 := math.Sin(0.05 * float64(j))
			s2 := math.Mod(0.07*float64(j), 1) - 0.5
			data = append(data, a*s1+b*s2)
		}
	}
	s, err := signal.New([]int{5, 6, channels}, 2, data)
	require.NoError(t, err)

	return s
}

func TestICA_RebuildMatchesPCAAndReverse(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	a := mva.New(twoSourceSignal(t), mva.WithLogger(quietLogger(&logs)))

	_, err := a.ICA(ctx)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)

	_, err = a.Decompose(ctx, mva.WithOutputDimension(2))
	require.NoError(t, err)
	res, err := a.ICA(ctx, mva.WithICAAlgorithm(ica.JADE))
	require.NoError(t, err)
	require.True(t, res.HasICA())
	require.Equal(t, []int{0, 1}, res.ICAComponents)
	require.Equal(t, ica.JADE, res.ICAAlgorithm)

	pca, _, err := a.BuildPCA(ctx, signal.TargetSignal, reconstruct.All())
	require.NoError(t, err)
	icaRec, err := a.BuildICA(ctx, signal.TargetSignal, reconstruct.All())
	require.NoError(t, err)
	require.Equal(t, []int{5, 6, 400}, icaRec.Shape())
	require.Equal(t, "rebuilt from ica with 2 components", icaRec.Title())
	for i, v := range pca.Data() {
		require.InDelta(t, v, icaRec.Data()[i], 1e-8)
	}

	require.NoError(t, a.ReverseIC(ctx, signal.TargetSignal, 0))
	flipped, err := a.BuildICA(ctx, signal.TargetSignal, reconstruct.All())
	require.NoError(t, err)
	for i, v := range icaRec.Data() {
		require.InDelta(t, v, flipped.Data()[i], 1e-8)
	}
	require.ErrorIs(t, a.ReverseIC(ctx, signal.TargetSignal, 5), mvaerr.ErrInvalidSelection)

	summary := res.Summary()
	require.Contains(t, summary, "JADE")
	require.Contains(t, summary, "svd")
}
