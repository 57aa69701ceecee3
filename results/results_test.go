// SPDX-License-Identifier: MIT

package results_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
)

func sample(t *testing.T) *results.Result {
	t.Helper()
	f, err := matrix.NewDenseFrom(3, 2, []float64{1, 0, 0, 1, 1, 1})
	require.NoError(t, err)
	s, err := matrix.NewDenseFrom(4, 2, []float64{1, 2, math.NaN(), math.NaN(), 3, 4, 5, 6})
	require.NoError(t, err)
	k := 2

	return &results.Result{
		Factors:         f,
		Scores:          s,
		Magnitudes:      []float64{9, 1},
		PCAAlgorithm:    decomposition.NIPALS,
		Centered:        true,
		OutputDimension: &k,
	}
}

func TestStore_Slots(t *testing.T) {
	var st results.Store
	_, err := st.Get(signal.TargetSignal)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)

	r := sample(t)
	require.NoError(t, st.Set(signal.TargetSignal, r))
	got, err := st.Get(signal.TargetSignal)
	require.NoError(t, err)
	require.Same(t, r, got)

	_, err = st.Get(signal.TargetPeakCharacteristics)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition, "slots are independent")

	st.Discard(signal.TargetSignal)
	_, err = st.Get(signal.TargetSignal)
	require.ErrorIs(t, err, mvaerr.ErrNoDecomposition)

	require.ErrorIs(t, st.Set(signal.AnalysisTarget(7), r), mvaerr.ErrUsage)
}

func TestArchive_RoundTrip(t *testing.T) {
	r := sample(t)
	w, err := matrix.NewDenseFrom(2, 2, []float64{2, 1, 0, 1})
	require.NoError(t, err)
	r.Unmixing = w
	r.ICAAlgorithm = ica.JADE

	var buf bytes.Buffer
	require.NoError(t, r.Save(&buf))
	got, err := results.Load(&buf)
	require.NoError(t, err)

	require.Equal(t, decomposition.NIPALS, got.PCAAlgorithm)
	require.True(t, got.Centered)
	require.False(t, got.Variance2One)
	require.NotNil(t, got.OutputDimension)
	require.Equal(t, 2, *got.OutputDimension)
	require.Equal(t, []float64{9, 1}, got.Magnitudes)
	require.Equal(t, r.Factors.Raw(), got.Factors.Raw())
	require.True(t, math.IsNaN(got.Scores.Raw()[2]))
	require.Equal(t, ica.JADE, got.ICAAlgorithm)
	require.Equal(t, []int{0, 1}, got.ICAComponents)

	// ic = pc·wᵀ, first factor row (1, 0) → (2, 0)
	require.Equal(t, []float64{2, 0}, got.ICAFactors.Row(0))
	require.True(t, math.IsNaN(got.ICAScores.Row(1)[0]))
}

func TestArchive_KeepsComponentListAndMean(t *testing.T) {
	f, err := matrix.NewDenseFrom(3, 4, []float64{
		1, 2, 3, 4,
		0, 1, 0, 2,
		5, 0, 1, 1,
	})
	require.NoError(t, err)
	s, err := matrix.NewDenseFrom(2, 4, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	w, err := matrix.NewDenseFrom(2, 2, []float64{2, 1, 0, 1})
	require.NoError(t, err)
	r := &results.Result{
		Factors:       f,
		Scores:        s,
		PCAAlgorithm:  decomposition.SVD,
		Centered:      true,
		Mean:          []float64{0.5, 1, 1.5},
		Unmixing:      w,
		ICAAlgorithm:  ica.TDSEP,
		ICAComponents: []int{1, 3},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Save(&buf))
	got, err := results.Load(&buf)
	require.NoError(t, err)

	require.Equal(t, []int{1, 3}, got.ICAComponents)
	require.Equal(t, []float64{0.5, 1, 1.5}, got.Mean)
	// ic = pc[:, {1,3}]·wᵀ
	require.Equal(t, []float64{8, 4}, got.ICAFactors.Row(0))
	require.Equal(t, []float64{4, 2}, got.ICAFactors.Row(1))
	require.Equal(t, []float64{1, 1}, got.ICAFactors.Row(2))
	// scores = v[:, {1,3}]·w⁻¹
	want := [][]float64{{1, 3}, {3, 5}}
	for i := range want {
		for j := range want[i] {
			require.InDelta(t, want[i][j], got.ICAScores.Row(i)[j], 1e-12)
		}
	}

	doc, err := bson.Marshal(bson.M{
		"pc":             bson.M{"rows": 3, "cols": 4, "data": f.Raw()},
		"w":              bson.M{"rows": 2, "cols": 2, "data": w.Raw()},
		"ica_components": []int{1},
	})
	require.NoError(t, err)
	_, err = results.Load(bytes.NewReader(doc))
	require.ErrorIs(t, err, mvaerr.ErrShapeMismatch)
}

func TestArchive_LegacyDefaults(t *testing.T) {
	doc, err := bson.Marshal(bson.M{
		"pc":        bson.M{"rows": 2, "cols": 1, "data": []float64{1, 2}},
		"v":         bson.M{"rows": 1, "cols": 1, "data": []float64{3}},
		"V":         []float64{5},
		"algorithm": "svd",
	})
	require.NoError(t, err)
	got, err := results.Load(bytes.NewReader(doc))
	require.NoError(t, err)

	require.Equal(t, decomposition.SVD, got.PCAAlgorithm)
	require.Nil(t, got.OutputDimension, "missing output_dimension is unset")
	require.False(t, got.Centered)
	require.False(t, got.Variance2One)
	require.False(t, got.PoissonNormalized)
	require.False(t, got.HasICA())

	doc, err = bson.Marshal(bson.M{"pc": bson.M{"rows": 2, "cols": 2, "data": []float64{1}}})
	require.NoError(t, err)
	_, err = results.Load(bytes.NewReader(doc))
	require.ErrorIs(t, err, mvaerr.ErrShapeMismatch)

	doc, err = bson.Marshal(bson.M{"pca_algorithm": "kmeans"})
	require.NoError(t, err)
	_, err = results.Load(bytes.NewReader(doc))
	require.ErrorIs(t, err, mvaerr.ErrUnknownAlgorithm)
}

func TestCropScores(t *testing.T) {
	r := sample(t)
	require.NoError(t, r.CropScores(1))
	require.Equal(t, 1, r.Scores.Cols())
	require.Equal(t, 2, r.Factors.Cols())
	require.Equal(t, 1, r.Components())

	require.ErrorIs(t, r.CropScores(2), mvaerr.ErrInvalidSelection)
	require.ErrorIs(t, r.CropScores(0), mvaerr.ErrInvalidSelection)

	var empty *results.Result
	require.ErrorIs(t, empty.CropScores(1), mvaerr.ErrNoDecomposition)
}

func TestSummary(t *testing.T) {
	r := sample(t)
	s := r.Summary()
	require.Contains(t, s, "nipals")
	require.Contains(t, s, "Centered:")
	require.Contains(t, s, "Output dimension:")
	require.NotContains(t, s, "Demixing")

	r.OutputDimension = nil
	r.Unmixing, _ = matrix.NewDenseFrom(1, 1, []float64{1})
	r.ICAAlgorithm = ica.TDSEP
	r.ICAComponents = []int{0}
	s = r.Summary()
	require.Contains(t, s, "unset")
	require.Contains(t, s, "TDSEP")
	require.Contains(t, s, "Demixing")
}
