// SPDX-License-Identifier: MIT

package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlath-mva/catalog"
	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/results"
)

func result(t *testing.T, algo decomposition.Algorithm) *results.Result {
	t.Helper()
	f, err := matrix.NewDenseFrom(3, 2, []float64{1, 0, 0, 1, 2, 2})
	require.NoError(t, err)
	s, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	return &results.Result{Factors: f, Scores: s, Magnitudes: []float64{4, 1}, PCAAlgorithm: algo}
}

func TestCatalog_PutGetListDelete(t *testing.T) {
	ctx := context.Background()
	c, err := catalog.Open(":memory:")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(ctx, "map-a", result(t, decomposition.SVD)))

	withICA := result(t, decomposition.NIPALS)
	withICA.Unmixing, err = matrix.NewDenseFrom(2, 2, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	withICA.ICAAlgorithm = ica.FastICA
	require.NoError(t, c.Put(ctx, "map-b", withICA))

	got, err := c.Get(ctx, "map-b")
	require.NoError(t, err)
	require.Equal(t, decomposition.NIPALS, got.PCAAlgorithm)
	require.Equal(t, ica.FastICA, got.ICAAlgorithm)
	require.Equal(t, withICA.Factors.Raw(), got.Factors.Raw())

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	byName := map[string]catalog.Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Equal(t, "svd", byName["map-a"].PCAAlgorithm)
	require.Empty(t, byName["map-a"].ICAAlgorithm)
	require.Equal(t, "FastICA", byName["map-b"].ICAAlgorithm)
	require.Equal(t, 2, byName["map-b"].Components)

	// replace
	require.NoError(t, c.Put(ctx, "map-a", result(t, decomposition.MDP)))
	got, err = c.Get(ctx, "map-a")
	require.NoError(t, err)
	require.Equal(t, decomposition.MDP, got.PCAAlgorithm)

	require.NoError(t, c.Delete(ctx, "map-a"))
	_, err = c.Get(ctx, "map-a")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.ErrorIs(t, c.Delete(ctx, "map-a"), catalog.ErrNotFound)

	require.ErrorIs(t, c.Put(ctx, "empty", nil), mvaerr.ErrNoDecomposition)
}

func TestCatalog_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mva.db")

	c, err := catalog.Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "kept", result(t, decomposition.FastSVD)))
	require.NoError(t, c.Close())

	c, err = catalog.Open(path)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Get(ctx, "kept")
	require.NoError(t, err)
	require.Equal(t, decomposition.FastSVD, got.PCAAlgorithm)
}
