// SPDX-License-Identifier: MIT

package preprocess_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/preprocess"
	"github.com/katalvlaran/lvlath-mva/signal"
	"github.com/stretchr/testify/require"
)

func block(t *testing.T) (*matrix.Dense, []float64) {
	t.Helper()
	data := []float64{
		1, 4, 2,
		3, 8, 2,
		5, 6, 2,
		7, 2, 2,
	}
	orig := append([]float64(nil), data...)
	X, err := matrix.Wrap(4, 3, data)
	require.NoError(t, err)

	return X, orig
}

func requireSliceClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.InDeltaf(t, want[i], got[i], tol, "index %d", i)
	}
}

func TestCenter_RoundTrip(t *testing.T) {
	X, orig := block(t)
	c, err := preprocess.Center(X)
	require.NoError(t, err)
	require.Equal(t, []float64{4, 5, 2}, c.Mean)

	means, err := matrix.ColumnMeans(X)
	require.NoError(t, err)
	requireSliceClose(t, []float64{0, 0, 0}, means, 1e-12)

	require.NoError(t, c.Undo(X))
	requireSliceClose(t, orig, X.Raw(), 1e-12)
}

func TestVariance2One_RoundTripAndZeroStd(t *testing.T) {
	X, orig := block(t)
	v, err := preprocess.Variance2One(X)
	require.NoError(t, err)
	// column 0: population std of 1,3,5,7 = sqrt(5)
	require.InDelta(t, math.Sqrt(5), v.Std[0], 1e-12)
	require.Equal(t, 1.0, v.Std[2], "constant column is left unscaled")
	requireSliceClose(t, []float64{2, 2, 2, 2}, []float64{X.Row(0)[2], X.Row(1)[2], X.Row(2)[2], X.Row(3)[2]}, 0)

	require.NoError(t, v.Undo(X))
	requireSliceClose(t, orig, X.Raw(), 1e-12)

	// factors are signal × k: row j carries channel j
	F, err := matrix.NewDenseFrom(3, 2, []float64{1, 2, 1, 1, 5, 5})
	require.NoError(t, err)
	require.NoError(t, v.RescaleFactors(F))
	requireSliceClose(t, []float64{math.Sqrt(5), 2 * math.Sqrt(5), v.Std[1], v.Std[1], 5, 5}, F.Raw(), 1e-12)

	short, err := matrix.NewDenseFrom(2, 1, []float64{1, 1})
	require.NoError(t, err)
	require.ErrorIs(t, v.RescaleFactors(short), mvaerr.ErrShapeMismatch)
}

func TestNormalizePoissonian_RoundTrip(t *testing.T) {
	X, orig := block(t)
	p, err := preprocess.NormalizePoissonian(X, signal.Mask{}, signal.Mask{})
	require.NoError(t, err)
	require.True(t, p.NavMask.IsUnset())
	require.True(t, p.SigMask.IsUnset())
	require.InDelta(t, math.Sqrt(7), p.RootAG[0], 1e-12)
	require.InDelta(t, math.Sqrt(16), p.RootBH[0], 1e-12)

	// X[0,0] = 1 / (sqrt(7)*4)
	require.InDelta(t, 1/(math.Sqrt(7)*4), X.Row(0)[0], 1e-12)

	p.Undo(X)
	requireSliceClose(t, orig, X.Raw(), 1e-12)
}

func TestNormalizePoissonian_NegativeLeavesDataUntouched(t *testing.T) {
	data := []float64{1, 2, -10, 1}
	orig := append([]float64(nil), data...)
	X, err := matrix.Wrap(2, 2, data)
	require.NoError(t, err)

	_, err = preprocess.NormalizePoissonian(X, signal.Mask{}, signal.Mask{})
	require.ErrorIs(t, err, mvaerr.ErrNegativeCounts)
	require.ErrorIs(t, err, mvaerr.ErrData)
	require.Equal(t, orig, data)
}

func TestNormalizePoissonian_ZeroColumnMasked(t *testing.T) {
	// navigation position 1 is all zero
	data := []float64{
		1, 2,
		0, 0,
		3, 4,
	}
	X, err := matrix.Wrap(3, 2, data)
	require.NoError(t, err)

	p, err := preprocess.NormalizePoissonian(X, signal.Mask{}, signal.Mask{})
	require.NoError(t, err)
	require.Equal(t, []int{1}, p.ZeroNav)
	require.Empty(t, p.ZeroSig)
	require.False(t, p.NavMask.IsUnset())
	require.Equal(t, []bool{true, false, true}, p.NavMask.Bits())
	require.True(t, p.SigMask.IsUnset())
	require.Equal(t, []float64{0, 0}, X.Row(1))
}

func TestNormalizePoissonian_RespectsMasks(t *testing.T) {
	data := []float64{
		1, 100,
		3, 100,
	}
	X, err := matrix.Wrap(2, 2, data)
	require.NoError(t, err)

	p, err := preprocess.NormalizePoissonian(X, signal.Mask{}, signal.NewMask([]bool{true, false}))
	require.NoError(t, err)
	require.Equal(t, 100.0, X.Row(0)[1], "unselected channel untouched")
	require.InDelta(t, 1.0, p.RootAG[0], 1e-12)
	require.InDelta(t, 2.0, p.RootBH[0], 1e-12)

	F, err := matrix.NewDenseFrom(2, 1, []float64{1, 1})
	require.NoError(t, err)
	require.NoError(t, p.RescaleFactors(F))
	require.Equal(t, []float64{2, 1}, F.Raw())

	S, err := matrix.NewDenseFrom(2, 1, []float64{1, 1})
	require.NoError(t, err)
	require.NoError(t, p.RescaleScores(S))
	requireSliceClose(t, []float64{1, math.Sqrt(3)}, S.Raw(), 1e-12)

	_, err = preprocess.NormalizePoissonian(X, signal.NewMask([]bool{true}), signal.Mask{})
	require.ErrorIs(t, err, mvaerr.ErrShapeMismatch)
}
