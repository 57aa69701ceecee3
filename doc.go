// SPDX-License-Identifier: MIT

// Package lvlathmva is a multivariate-analysis toolkit for spectrum images:
// principal and independent component analysis of large N-D spectral
// datasets, with noise-aware preprocessing and reconstruction from a chosen
// component subset.
//
// Pipeline:
//
//	signal        → unfold the N-D data to navigation × signal, masks
//	preprocess    → centering, unit variance, Poissonian normalisation (all undoable)
//	decomposition → svd, fast_svd, mdp, nipals, mlpca, fast_mlpca
//	ica           → CuBICA, FastICA, JADE, TDSEP on selected components
//	results       → factors, scores, unmixing matrix; BSON archive; summary
//	reconstruct   → rebuild from a component selection, PCA residual
//	mva           → Analyzer: the pipeline above bound to one Signal
//	catalog       → named archives in SQLite
//	config        → process defaults from .env files and MVA_* variables
//
// The numeric layer lives in matrix/: a row-major Dense with error-returning
// accessors, statistics and a gonum bridge.
//
// Quick start:
//
//	s, _ := signal.New([]int{64, 64, 1024}, 2, counts)
//	a := mva.New(s)
//	res, _ := a.Decompose(ctx, mva.WithPoissonNormalization())
//	_, _ = a.ICA(ctx, mva.WithComponents(3))
//	rec, _ := a.BuildICA(ctx, signal.TargetSignal, reconstruct.All())
//
// See examples/spectrum_unmixing for a complete run.
package lvlathmva
