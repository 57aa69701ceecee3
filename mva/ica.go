// SPDX-License-Identifier: MIT

package mva

import (
	"context"
	"log/slog"

	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// ICA unmixes stored principal components (or factors given WithFactors)
// and records the unmixing on the target's result.
//
// Component selection, in order of precedence: WithComponentList,
// WithComponents, the stored output dimension, all components.
func (a *Analyzer) ICA(ctx context.Context, opts ...Option) (*results.Result, error) {
	st := a.collect(opts)
	res, err := a.store.Get(st.target)
	if err != nil {
		return nil, a.fail(ctx, "ICA", err)
	}

	factors := res.Factors
	if st.factors != nil {
		if st.factors.Rows() != res.Factors.Rows() {
			return nil, a.fail(ctx, "ICA", mvaerr.Usagef(mvaerr.ErrShapeMismatch,
				"supplied factors have %d rows, signal size is %d", st.factors.Rows(), res.Factors.Rows()))
		}
		factors = st.factors
	}
	n := st.numComponents
	if n == 0 && st.components == nil && res.OutputDimension != nil {
		n = *res.OutputDimension
	}

	out, err := ica.Analyze(ica.Input{
		Factors:       factors,
		Scores:        res.Scores,
		Components:    st.components,
		NumComponents: n,
		DiffOrder:     st.diffOrder,
		Mask:          st.icaMask,
		Algorithm:     st.icaAlgorithm,
		Options: ica.Options{
			Seed:          st.seed,
			Tolerance:     st.tolerance,
			MaxIterations: st.maxIterations,
			Lags:          st.lags,
		},
		Logger: a.logger,
	})
	if err != nil {
		return nil, a.fail(ctx, "ICA", err)
	}

	res.Unmixing = out.W
	res.ICAFactors = out.IC
	res.ICAScores = out.Scores
	res.ICAAlgorithm = st.icaAlgorithm
	res.ICAComponents = out.Components
	a.logger.InfoContext(ctx, "independent components stored",
		slog.String("target", st.target.String()),
		slog.String("algorithm", st.icaAlgorithm.String()),
		slog.Any("components", out.Components))

	return res, nil
}

// ReverseIC flips the sign of the given independent components of target,
// together with their unmixing rows and scores.
func (a *Analyzer) ReverseIC(ctx context.Context, target signal.AnalysisTarget, components ...int) error {
	res, err := a.store.Get(target)
	if err != nil {
		return a.fail(ctx, "reverse IC", err)
	}
	if !res.HasICA() {
		return a.fail(ctx, "reverse IC", mvaerr.Usagef(mvaerr.ErrNoDecomposition, "no ICA on %s", target))
	}
	if err = ica.Reverse(res.ICAFactors, res.Unmixing, res.ICAScores, components...); err != nil {
		return a.fail(ctx, "reverse IC", err)
	}

	return nil
}
