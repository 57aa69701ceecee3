// SPDX-License-Identifier: MIT

// Package mva ties signal reshaping, preprocessing, decomposition, ICA,
// result storage and reconstruction together around one Signal.
//
// Typical use:
//
//	a := mva.New(sig, mva.WithLogger(logger))
//	if _, err := a.Decompose(ctx, mva.WithOutputDimension(4), mva.WithPoissonNormalization()); err != nil { ... }
//	if _, err := a.ICA(ctx, mva.WithComponents(3)); err != nil { ... }
//	rec, residual, err := a.BuildPCA(ctx, signal.TargetSignal, reconstruct.First(3))
//
// Every call is synchronous. The Signal is mutated only inside a scoped
// treatment and always restored before a call returns.
package mva

import (
	"context"
	"log/slog"

	"github.com/katalvlaran/lvlath-mva/config"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// Analyzer runs multivariate analyses on one Signal and keeps one result per
// analysis target.
type Analyzer struct {
	sig    *signal.Signal
	store  results.Store
	cfg    config.Config
	logger *slog.Logger
}

// New returns an Analyzer over s with config.Default and slog.Default.
func New(s *signal.Signal, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{sig: s, cfg: config.Default(), logger: slog.Default()}
	for _, o := range opts {
		o(a)
	}

	return a
}

// Signal returns the analysed signal.
func (a *Analyzer) Signal() *signal.Signal { return a.sig }

// Result returns the stored result for target.
func (a *Analyzer) Result(target signal.AnalysisTarget) (*results.Result, error) {
	return a.store.Get(target)
}

// Discard drops the stored result for target.
func (a *Analyzer) Discard(target signal.AnalysisTarget) {
	a.store.Discard(target)
	a.logger.Debug("decomposition discarded", slog.String("target", target.String()))
}

// CropScores keeps only the first n stored score columns of target.
func (a *Analyzer) CropScores(ctx context.Context, target signal.AnalysisTarget, n int) error {
	res, err := a.store.Get(target)
	if err != nil {
		return a.fail(ctx, "crop scores", err)
	}
	if err = res.CropScores(n); err != nil {
		return a.fail(ctx, "crop scores", err)
	}

	return nil
}

func (a *Analyzer) collect(opts []Option) settings {
	s := settings{
		target:        signal.TargetSignal,
		pcaAlgorithm:  a.cfg.PCAAlgorithm,
		seed:          a.cfg.Seed,
		tolerance:     a.cfg.Tolerance,
		maxIterations: a.cfg.MaxIterations,
		icaAlgorithm:  a.cfg.ICAAlgorithm,
		diffOrder:     a.cfg.ICADiffOrder,
	}
	for _, o := range opts {
		o(&s)
	}

	return s
}

// fail attaches a stack trace and logs err once at the package boundary.
func (a *Analyzer) fail(ctx context.Context, op string, err error) error {
	err = mvaerr.Trace(err)
	a.logger.ErrorContext(ctx, op+" failed", slog.Any("error", err))

	return err
}
