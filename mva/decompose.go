// SPDX-License-Identifier: MIT

package mva

import (
	"context"
	"log/slog"

	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/preprocess"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// Decompose runs a principal component decomposition and stores the result
// in the target's slot, replacing any previous one.
//
// Conflicting options are resolved, never rejected:
//   - mdp and nipals force centering on (Info).
//   - ML-PCA turns Poisson normalisation off (Warn).
//   - Poisson normalisation turns centering and variance normalisation off (Warn).
//
// Implementation:
//   - Stage 1: resolve conflicts and validate the request; nothing is touched yet.
//   - Stage 2: begin a treatment; unfold; centre, scale, Poisson-normalise.
//   - Stage 3: decompose the signal × navigation transpose.
//   - Stage 4: undo the variance and Poisson weights on factors and scores;
//     keep the removed mean for reconstruction; store.
//
// The treatment restores data and fold state on every return path.
func (a *Analyzer) Decompose(ctx context.Context, opts ...Option) (*results.Result, error) {
	st := a.collect(opts)
	res, err := a.decompose(ctx, &st)
	if err != nil {
		return nil, a.fail(ctx, "decomposition", err)
	}

	return res, nil
}

func (a *Analyzer) decompose(ctx context.Context, st *settings) (*results.Result, error) {
	algo := st.pcaAlgorithm
	a.resolveConflicts(ctx, st)

	sigN, navN, err := a.targetDims(st.target)
	if err != nil {
		return nil, err
	}
	req := decomposition.Input{
		OutputDimension: st.outputDimension,
		Variance:        st.variance,
		Seed:            st.seed,
		Tolerance:       st.tolerance,
		MaxIterations:   st.maxIterations,
		Logger:          a.logger,
	}
	if err = decomposition.ValidateShape(algo, req, sigN, navN); err != nil {
		return nil, err
	}
	navShape := a.sig.NavShape()
	navMask, err := st.navMask.Flatten(navShape)
	if err != nil {
		return nil, err
	}
	if navMask, err = navMask.Resolve(navN); err != nil {
		return nil, err
	}
	sigMask, err := st.sigMask.Resolve(sigN)
	if err != nil {
		return nil, err
	}

	// Stage 2
	tr, err := a.sig.BeginTreatment(st.target)
	if err != nil {
		return nil, err
	}
	defer tr.Restore()

	shapeBefore := a.sig.Shape()
	unfolded := false
	if st.target == signal.TargetSignal {
		unfolded = a.sig.Unfold()
	}
	X, err := a.sig.TargetMatrix(st.target)
	if err != nil {
		return nil, err
	}
	var centering *preprocess.Centering
	if st.centre {
		if centering, err = preprocess.Center(X); err != nil {
			return nil, err
		}
	}
	var scaling *preprocess.VarianceScaling
	if st.variance2one {
		if scaling, err = preprocess.Variance2One(X); err != nil {
			return nil, err
		}
	}
	var poisson *preprocess.Poisson
	if st.poisson {
		if poisson, err = preprocess.NormalizePoissonian(X, navMask, sigMask); err != nil {
			return nil, err
		}
		if len(poisson.ZeroNav) > 0 || len(poisson.ZeroSig) > 0 {
			a.logger.InfoContext(ctx, "zero-sum positions excluded from the masks",
				slog.Any("navigation", poisson.ZeroNav),
				slog.Any("signal", poisson.ZeroSig))
		}
		navMask, sigMask = poisson.NavMask, poisson.SigMask
	}

	// Stage 3
	dc, err := matrix.Transpose(X)
	if err != nil {
		return nil, err
	}
	req.Data, req.NavMask, req.SigMask = dc, navMask, sigMask
	a.logger.InfoContext(ctx, "performing principal component analysis",
		slog.String("algorithm", algo.String()),
		slog.String("target", st.target.String()),
		slog.Int("signal", sigN),
		slog.Int("navigation", navN))
	out, err := decomposition.Decompose(algo, req)
	if err != nil {
		return nil, err
	}

	// Stage 4
	if scaling != nil {
		if err = scaling.RescaleFactors(out.Factors); err != nil {
			return nil, err
		}
	}
	if poisson != nil {
		if err = poisson.RescaleFactors(out.Factors); err != nil {
			return nil, err
		}
		if err = poisson.RescaleScores(out.Scores); err != nil {
			return nil, err
		}
	}

	res := &results.Result{
		Factors:           out.Factors,
		Scores:            out.Scores,
		Magnitudes:        out.Magnitudes,
		PCAAlgorithm:      algo,
		Centered:          st.centre,
		Variance2One:      st.variance2one,
		PoissonNormalized: st.poisson,
		NavShape:          navShape,
		NavMask:           maskForCaller(st.navMask, navMask),
		SigMask:           maskForCaller(st.sigMask, sigMask),
		MLPCA:             out.MLPCA,
	}
	if centering != nil {
		res.Mean = centering.Mean
	}
	if st.outputDimension > 0 {
		od := out.Factors.Cols()
		res.OutputDimension = &od
	}
	if unfolded {
		res.UnfoldedShape = shapeBefore
	}
	if err = a.store.Set(st.target, res); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "decomposition stored",
		slog.String("target", st.target.String()),
		slog.Int("components", out.Factors.Cols()))

	return res, nil
}

// resolveConflicts applies the option policies in a fixed order.
func (a *Analyzer) resolveConflicts(ctx context.Context, st *settings) {
	algo := st.pcaAlgorithm
	if algo.RequiresCentering() && !st.centre {
		a.logger.InfoContext(ctx, "algorithm always centres the data; centering enabled",
			slog.String("algorithm", algo.String()))
		st.centre = true
	}
	if algo.IsMaximumLikelihood() && st.poisson {
		a.logger.WarnContext(ctx, "Poisson normalisation makes no sense with ML-PCA; disabled",
			slog.String("algorithm", algo.String()))
		st.poisson = false
	}
	if st.centre && st.poisson {
		a.logger.WarnContext(ctx, "centering is not compatible with Poisson normalisation; centering disabled")
		st.centre = false
	}
	if st.variance2one && st.poisson {
		a.logger.WarnContext(ctx, "variance normalisation is not compatible with Poisson normalisation; variance2one disabled")
		st.variance2one = false
	}
}

// targetDims returns the signal and navigation extents of target.
func (a *Analyzer) targetDims(t signal.AnalysisTarget) (sigN, navN int, err error) {
	switch t {
	case signal.TargetSignal:
		return a.sig.SignalSize(), a.sig.NavSize(), nil
	case signal.TargetPeakCharacteristics:
		p := a.sig.PeakCharacteristics()
		if p == nil {
			return 0, 0, mvaerr.Usagef(mvaerr.ErrUsage, "no peak characteristics attached")
		}

		return p.Cols(), p.Rows(), nil
	default:
		return 0, 0, mvaerr.Usagef(mvaerr.ErrUsage, "unknown analysis target %s", t)
	}
}

// maskForCaller keeps an unset mask unset unless a step made it concrete.
func maskForCaller(given, used signal.Mask) signal.Mask {
	if given.IsUnset() && used.IsUnset() {
		return given
	}

	return used
}
