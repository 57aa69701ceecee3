// SPDX-License-Identifier: MIT

package mva

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/reconstruct"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// BuildPCA rebuilds target from the selected principal components and
// returns the approximation together with original - approximation.
func (a *Analyzer) BuildPCA(ctx context.Context, target signal.AnalysisTarget, sel reconstruct.Selection) (rec, residual *signal.Signal, err error) {
	res, err := a.store.Get(target)
	if err != nil {
		return nil, nil, a.fail(ctx, "PCA rebuild", err)
	}
	original, layout, err := a.original(target)
	if err != nil {
		return nil, nil, a.fail(ctx, "PCA rebuild", err)
	}
	if rec, err = reconstruct.Build(res, reconstruct.PCA, sel, layout); err != nil {
		return nil, nil, a.fail(ctx, "PCA rebuild", err)
	}
	if residual, err = reconstruct.Residual(original, rec); err != nil {
		return nil, nil, a.fail(ctx, "PCA rebuild", err)
	}

	return rec, residual, nil
}

// BuildICA rebuilds target from the selected independent components.
func (a *Analyzer) BuildICA(ctx context.Context, target signal.AnalysisTarget, sel reconstruct.Selection) (*signal.Signal, error) {
	res, err := a.store.Get(target)
	if err != nil {
		return nil, a.fail(ctx, "ICA rebuild", err)
	}
	_, layout, err := a.original(target)
	if err != nil {
		return nil, a.fail(ctx, "ICA rebuild", err)
	}
	rec, err := reconstruct.Build(res, reconstruct.ICA, sel, layout)
	if err != nil {
		return nil, a.fail(ctx, "ICA rebuild", err)
	}

	return rec, nil
}

// original returns the analysed data of target as a Signal and the layout a
// reconstruction must take to be comparable with it.
func (a *Analyzer) original(target signal.AnalysisTarget) (*signal.Signal, reconstruct.Layout, error) {
	switch target {
	case signal.TargetSignal:
		return a.sig, reconstruct.Layout{Shape: a.sig.Shape(), SignalAxis: a.sig.SignalAxis()}, nil
	case signal.TargetPeakCharacteristics:
		p := a.sig.PeakCharacteristics()
		if p == nil {
			return nil, reconstruct.Layout{}, mvaerr.Usagef(mvaerr.ErrUsage, "no peak characteristics attached")
		}
		shape := []int{p.Rows(), p.Cols()}
		s, err := signal.New(shape, 1, append([]float64(nil), p.Raw()...))
		if err != nil {
			return nil, reconstruct.Layout{}, err
		}

		return s, reconstruct.Layout{Shape: shape, SignalAxis: 1}, nil
	default:
		return nil, reconstruct.Layout{}, mvaerr.Usagef(mvaerr.ErrUsage, "unknown analysis target %s", target)
	}
}

// ExplainedVariance is the data behind scree and log-eigenvalue plots.
type ExplainedVariance struct {
	// Ratio[i] is magnitude i over the sum of all stored magnitudes.
	Ratio []float64
	// Cumulative[i] is Σ Ratio[0..i].
	Cumulative []float64
	// LogMagnitudes is the natural log of every magnitude.
	LogMagnitudes []float64
}

// ExplainedVariance summarises the stored magnitudes of target.
func (a *Analyzer) ExplainedVariance(ctx context.Context, target signal.AnalysisTarget) (*ExplainedVariance, error) {
	res, err := a.store.Get(target)
	if err != nil {
		return nil, a.fail(ctx, "explained variance", err)
	}
	m := res.Magnitudes
	if len(m) == 0 {
		return nil, a.fail(ctx, "explained variance", mvaerr.Usagef(mvaerr.ErrNoDecomposition, "no magnitudes stored"))
	}
	ev := &ExplainedVariance{
		Ratio:         append([]float64(nil), m...),
		Cumulative:    make([]float64, len(m)),
		LogMagnitudes: make([]float64, len(m)),
	}
	if total := floats.Sum(m); total != 0 {
		floats.Scale(1/total, ev.Ratio)
	}
	floats.CumSum(ev.Cumulative, ev.Ratio)
	for i, v := range m {
		ev.LogMagnitudes[i] = math.Log(v)
	}

	return ev, nil
}

// ComponentMap is one score column laid out on the navigation axes.
type ComponentMap struct {
	Component int
	// Shape is the navigation shape; Values are row-major in it.
	Shape  []int
	Values []float64
}

// ComponentMaps returns the score maps of the selected components of target.
// With zeroNaN, positions excluded from the decomposition read 0 instead of NaN.
func (a *Analyzer) ComponentMaps(ctx context.Context, target signal.AnalysisTarget, mode reconstruct.Mode, components []int, zeroNaN bool) ([]ComponentMap, error) {
	res, err := a.store.Get(target)
	if err != nil {
		return nil, a.fail(ctx, "component maps", err)
	}
	maps, err := componentMaps(res, mode, components, zeroNaN)
	if err != nil {
		return nil, a.fail(ctx, "component maps", err)
	}

	return maps, nil
}

func componentMaps(res *results.Result, mode reconstruct.Mode, components []int, zeroNaN bool) ([]ComponentMap, error) {
	scores := res.Scores
	if mode == reconstruct.ICA {
		scores = res.ICAScores
	}
	if scores == nil {
		return nil, mvaerr.Usagef(mvaerr.ErrNoDecomposition, "no %s scores", mode)
	}
	if components == nil {
		components = make([]int, scores.Cols())
		for i := range components {
			components[i] = i
		}
	}
	shape := res.NavShape
	if shape == nil {
		shape = []int{scores.Rows()}
	}
	out := make([]ComponentMap, 0, len(components))
	for _, c := range components {
		if c < 0 || c >= scores.Cols() {
			return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "component %d of %d", c, scores.Cols())
		}
		col, err := scores.Col(c)
		if err != nil {
			return nil, err
		}
		if zeroNaN {
			var d *matrix.Dense
			if d, err = matrix.Wrap(1, len(col), col); err != nil {
				return nil, err
			}
			if d, err = matrix.ReplaceNaN(d, 0); err != nil {
				return nil, err
			}
			col = d.Raw()
		}
		out = append(out, ComponentMap{Component: c, Shape: append([]int(nil), shape...), Values: col})
	}

	return out, nil
}
