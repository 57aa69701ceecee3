// SPDX-License-Identifier: MIT

// Package config loads process-level analysis defaults from .env files and
// the environment.
//
// Recognised keys:
//   - MVA_PCA_ALGORITHM   decomposition algorithm name (svd, fast_svd, mdp, ...)
//   - MVA_ICA_ALGORITHM   ICA rotation name (CuBICA, FastICA, JADE, TDSEP)
//   - MVA_ICA_DIFF_ORDER  differentiation order used before ICA training
//   - MVA_TOLERANCE       convergence tolerance of iterative algorithms
//   - MVA_MAX_ITERATIONS  iteration cap of iterative algorithms
//   - MVA_SEED            seed of randomised algorithms
//   - MVA_LOG_LEVEL       debug, info, warn or error
//
// The process environment overrides values read from files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

const (
	KeyPCAAlgorithm  = "MVA_PCA_ALGORITHM"
	KeyICAAlgorithm  = "MVA_ICA_ALGORITHM"
	KeyICADiffOrder  = "MVA_ICA_DIFF_ORDER"
	KeyTolerance     = "MVA_TOLERANCE"
	KeyMaxIterations = "MVA_MAX_ITERATIONS"
	KeySeed          = "MVA_SEED"
	KeyLogLevel      = "MVA_LOG_LEVEL"
)

var keys = []string{
	KeyPCAAlgorithm, KeyICAAlgorithm, KeyICADiffOrder,
	KeyTolerance, KeyMaxIterations, KeySeed, KeyLogLevel,
}

// Config carries analysis defaults. Zero Tolerance and MaxIterations mean
// "use the algorithm's own default".
type Config struct {
	PCAAlgorithm  decomposition.Algorithm
	ICAAlgorithm  ica.Algorithm
	ICADiffOrder  int
	Tolerance     float64
	MaxIterations int
	Seed          int64
	LogLevel      slog.Level
}

// Default returns svd PCA, CuBICA, first-order differences and info logging.
func Default() Config {
	return Config{
		PCAAlgorithm: decomposition.SVD,
		ICAAlgorithm: ica.CuBICA,
		ICADiffOrder: 1,
		LogLevel:     slog.LevelInfo,
	}
}

// Load reads the given .env files (".env" when none are named; missing files
// are skipped), overlays the process environment and parses the result.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	values := make(map[string]string)
	for _, f := range files {
		m, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: read %s: %w", f, err)
		}
		for k, v := range m {
			values[k] = v
		}
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			values[k] = v
		}
	}

	return Parse(values)
}

// Parse builds a Config from key/value pairs over Default. Unknown keys are
// ignored; empty values keep the default.
func Parse(values map[string]string) (Config, error) {
	c := Default()
	var err error
	get := func(k string) (string, bool) {
		v := strings.TrimSpace(values[k])
		return v, v != ""
	}

	if v, ok := get(KeyPCAAlgorithm); ok {
		if c.PCAAlgorithm, err = decomposition.ParseAlgorithm(v); err != nil {
			return Config{}, err
		}
	}
	if v, ok := get(KeyICAAlgorithm); ok {
		if c.ICAAlgorithm, err = ica.ParseAlgorithm(v); err != nil {
			return Config{}, err
		}
	}
	if v, ok := get(KeyICADiffOrder); ok {
		if c.ICADiffOrder, err = strconv.Atoi(v); err != nil || c.ICADiffOrder < 0 {
			return Config{}, invalid(KeyICADiffOrder, v)
		}
	}
	if v, ok := get(KeyTolerance); ok {
		if c.Tolerance, err = strconv.ParseFloat(v, 64); err != nil || !(c.Tolerance >= 0) {
			return Config{}, invalid(KeyTolerance, v)
		}
	}
	if v, ok := get(KeyMaxIterations); ok {
		if c.MaxIterations, err = strconv.Atoi(v); err != nil || c.MaxIterations < 0 {
			return Config{}, invalid(KeyMaxIterations, v)
		}
	}
	if v, ok := get(KeySeed); ok {
		if c.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, invalid(KeySeed, v)
		}
	}
	if v, ok := get(KeyLogLevel); ok {
		if err = c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, invalid(KeyLogLevel, v)
		}
	}

	return c, nil
}

func invalid(key, value string) error {
	return mvaerr.Usagef(mvaerr.ErrUsage, "config: %s=%q", key, value)
}

// Logger returns a text slog.Logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
