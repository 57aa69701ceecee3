// SPDX-License-Identifier: MIT

package mva

import (
	"log/slog"

	"github.com/katalvlaran/lvlath-mva/config"
	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// AnalyzerOption configures an Analyzer at construction.
type AnalyzerOption func(*Analyzer)

// WithLogger routes notices and warnings to l.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithConfig replaces the process defaults (see config.Load).
func WithConfig(c config.Config) AnalyzerOption {
	return func(a *Analyzer) { a.cfg = c }
}

// settings collects the per-call options of every operation; each operation
// reads only the fields it understands.
type settings struct {
	target signal.AnalysisTarget

	// decomposition
	pcaAlgorithm    decomposition.Algorithm
	outputDimension int
	centre          bool
	variance2one    bool
	poisson         bool
	navMask         signal.Mask
	sigMask         signal.Mask
	variance        decomposition.Variance

	// iterative back-ends
	seed          int64
	tolerance     float64
	maxIterations int

	// ICA
	icaAlgorithm  ica.Algorithm
	numComponents int
	components    []int
	diffOrder     int
	icaMask       signal.Mask
	factors       *matrix.Dense
	lags          int
}

// Option tunes one Analyzer call.
type Option func(*settings)

// OnTarget selects the analysis slot (default signal.TargetSignal).
func OnTarget(t signal.AnalysisTarget) Option {
	return func(s *settings) { s.target = t }
}

// WithAlgorithm selects the PCA back-end.
func WithAlgorithm(a decomposition.Algorithm) Option {
	return func(s *settings) { s.pcaAlgorithm = a }
}

// WithOutputDimension keeps the first n components (n > 0).
func WithOutputDimension(n int) Option {
	return func(s *settings) { s.outputDimension = n }
}

// WithCentering subtracts the per-signal-index mean before decomposition.
func WithCentering() Option {
	return func(s *settings) { s.centre = true }
}

// WithVariance2One scales every signal index to unit variance.
func WithVariance2One() Option {
	return func(s *settings) { s.variance2one = true }
}

// WithPoissonNormalization weights the data for Poisson noise.
func WithPoissonNormalization() Option {
	return func(s *settings) { s.poisson = true }
}

// WithNavigationMask restricts training to the selected navigation positions.
// The mask may be flat or shaped like the navigation axes.
func WithNavigationMask(m signal.Mask) Option {
	return func(s *settings) { s.navMask = m }
}

// WithSignalMask restricts training to the selected signal indices.
func WithSignalMask(m signal.Mask) Option {
	return func(s *settings) { s.sigMask = m }
}

// WithNoiseVariance sets the ML-PCA variance model.
func WithNoiseVariance(v decomposition.Variance) Option {
	return func(s *settings) { s.variance = v }
}

// WithSeed seeds randomised back-ends.
func WithSeed(seed int64) Option {
	return func(s *settings) { s.seed = seed }
}

// WithTolerance sets the convergence tolerance of iterative back-ends.
func WithTolerance(tol float64) Option {
	return func(s *settings) { s.tolerance = tol }
}

// WithMaxIterations caps iterative back-ends.
func WithMaxIterations(n int) Option {
	return func(s *settings) { s.maxIterations = n }
}

// WithICAAlgorithm selects the ICA rotation.
func WithICAAlgorithm(a ica.Algorithm) Option {
	return func(s *settings) { s.icaAlgorithm = a }
}

// WithComponents unmixes the first n stored components.
func WithComponents(n int) Option {
	return func(s *settings) { s.numComponents = n }
}

// WithComponentList unmixes an explicit, possibly non-contiguous, list.
func WithComponentList(idx ...int) Option {
	return func(s *settings) { s.components = append([]int{}, idx...) }
}

// WithDiffOrder differentiates factors before ICA training.
func WithDiffOrder(n int) Option {
	return func(s *settings) { s.diffOrder = n }
}

// WithICAMask restricts ICA training to the selected signal channels.
func WithICAMask(m signal.Mask) Option {
	return func(s *settings) { s.icaMask = m }
}

// WithFactors runs ICA on externally supplied factors (signal × k) instead of
// the stored ones. Column i pairs with stored score column i.
func WithFactors(f *matrix.Dense) Option {
	return func(s *settings) { s.factors = f }
}

// WithLags sets the number of time lags TDSEP diagonalises.
func WithLags(n int) Option {
	return func(s *settings) { s.lags = n }
}
