// SPDX-License-Identifier: MIT

package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/lvlath-mva/config"
	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	require.Equal(t, decomposition.SVD, c.PCAAlgorithm)
	require.Equal(t, ica.CuBICA, c.ICAAlgorithm)
	require.Equal(t, 1, c.ICADiffOrder)
	require.Equal(t, slog.LevelInfo, c.LogLevel)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mva.env")
	env := "MVA_PCA_ALGORITHM=nipals\nMVA_ICA_ALGORITHM=jade\nMVA_TOLERANCE=1e-6\nMVA_SEED=42\nMVA_LOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(path, []byte(env), 0o600))
	t.Setenv(config.KeySeed, "7")
	t.Setenv(config.KeyMaxIterations, "300")

	c, err := config.Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, decomposition.NIPALS, c.PCAAlgorithm)
	require.Equal(t, ica.JADE, c.ICAAlgorithm)
	require.Equal(t, 1e-6, c.Tolerance)
	require.Equal(t, int64(7), c.Seed, "environment wins over files")
	require.Equal(t, 300, c.MaxIterations)
	require.Equal(t, slog.LevelDebug, c.LogLevel)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{config.KeyPCAAlgorithm, "lda"},
		{config.KeyICAAlgorithm, "infomax"},
		{config.KeyICADiffOrder, "-1"},
		{config.KeyTolerance, "NaN"},
		{config.KeyMaxIterations, "many"},
		{config.KeySeed, "1.5"},
		{config.KeyLogLevel, "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := config.Parse(map[string]string{tt.key: tt.value})
			require.ErrorIs(t, err, mvaerr.ErrUsage)
		})
	}
}

func TestLogger_HonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	c := config.Default()
	c.LogLevel = slog.LevelWarn
	log := c.Logger(&buf)
	log.Info("quiet")
	log.Warn("loud")
	require.NotContains(t, buf.String(), "quiet")
	require.Contains(t, buf.String(), "loud")
}
