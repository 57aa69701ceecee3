// SPDX-License-Identifier: MIT

// Package reconstruct rebuilds an approximation of the analysed data from a
// subset of stored components, folded back to the source shape.
package reconstruct

import (
	"fmt"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/results"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// Mode picks which factor/score pair rebuilds the data.
type Mode int

const (
	// PCA uses Factors and Scores.
	PCA Mode = iota
	// ICA uses ICAFactors and ICAScores.
	ICA
)

func (m Mode) String() string {
	switch m {
	case PCA:
		return "pca"
	case ICA:
		return "ica"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Selection chooses components. The zero Selection means all of them.
type Selection struct {
	first int
	list  []int
}

// All selects every available component.
func All() Selection { return Selection{} }

// First selects components 0..n-1. First(0) is All.
func First(n int) Selection { return Selection{first: n} }

// List selects the given component indices, in order.
func List(idx ...int) Selection {
	return Selection{list: append([]int{}, idx...)}
}

func (s Selection) resolve(total int) ([]int, error) {
	if s.list != nil {
		if len(s.list) == 0 {
			return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "empty component list")
		}
		for _, c := range s.list {
			if c < 0 || c >= total {
				return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "component %d of %d", c, total)
			}
		}

		return append([]int(nil), s.list...), nil
	}
	n := s.first
	if n == 0 {
		n = total
	}
	if n < 0 || n > total {
		return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "%d components of %d", n, total)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out, nil
}

func (s Selection) name(mode Mode, comps []int) string {
	if s.list != nil {
		return fmt.Sprintf("rebuilt from %s with components %v", mode, comps)
	}

	return fmt.Sprintf("rebuilt from %s with %d components", mode, len(comps))
}

// Layout is the shape the approximation is folded into. A zero Layout gives
// a plain navigation × signal signal.
type Layout struct {
	Shape      []int
	SignalAxis int
}

// Build returns Factors_sel · Scores_selᵀ, transposed to navigation × signal,
// plus the stored mean of a centred decomposition, and folded into layout.
// Navigation positions with NaN scores rebuild as NaN.
//
// Errors:
//   - ErrNoDecomposition when the result lacks the pair for mode.
//   - ErrInvalidSelection for out-of-range or empty selections.
//   - ErrShapeMismatch when layout does not fit the rebuilt matrix.
func Build(res *results.Result, mode Mode, sel Selection, layout Layout) (*signal.Signal, error) {
	factors, scores, err := pair(res, mode)
	if err != nil {
		return nil, err
	}
	total := factors.Cols()
	if scores.Cols() < total {
		total = scores.Cols()
	}
	comps, err := sel.resolve(total)
	if err != nil {
		return nil, err
	}

	fSel, err := factors.Induced(seq(factors.Rows()), comps)
	if err != nil {
		return nil, err
	}
	sSel, err := scores.Induced(seq(scores.Rows()), comps)
	if err != nil {
		return nil, err
	}
	ft, err := matrix.Transpose(fSel)
	if err != nil {
		return nil, err
	}
	// (F·Sᵀ)ᵀ = S·Fᵀ
	rec, err := matrix.Mul(sSel, ft)
	if err != nil {
		return nil, err
	}
	if res.Mean != nil {
		if len(res.Mean) != rec.Cols() {
			return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch,
				"stored mean has %d values, signal size is %d", len(res.Mean), rec.Cols())
		}
		if err = matrix.AddRowVectorInPlace(rec, res.Mean); err != nil {
			return nil, err
		}
	}

	shape, axis := layout.Shape, layout.SignalAxis
	if shape == nil {
		shape, axis = []int{rec.Rows(), rec.Cols()}, 1
	}
	out, err := signal.FromMatrix(rec, shape, axis)
	if err != nil {
		return nil, err
	}
	out.SetTitle(sel.name(mode, comps))

	return out, nil
}

// Residual returns original - rec, elementwise, in the original's layout.
func Residual(original, rec *signal.Signal) (*signal.Signal, error) {
	if !sameShape(original, rec) {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch,
			"residual of %v against %v", original.Shape(), rec.Shape())
	}
	n := len(original.Data())
	a, err := matrix.Wrap(1, n, original.Data())
	if err != nil {
		return nil, err
	}
	b, err := matrix.Wrap(1, n, rec.Data())
	if err != nil {
		return nil, err
	}
	diff, err := matrix.Sub(a, b)
	if err != nil {
		return nil, err
	}
	out, err := signal.New(original.Shape(), original.SignalAxis(), diff.Raw())
	if err != nil {
		return nil, err
	}
	out.SetTitle("residual of " + rec.Title())

	return out, nil
}

func pair(res *results.Result, mode Mode) (factors, scores *matrix.Dense, err error) {
	if res == nil {
		return nil, nil, mvaerr.ErrNoDecomposition
	}
	switch mode {
	case PCA:
		factors, scores = res.Factors, res.Scores
	case ICA:
		factors, scores = res.ICAFactors, res.ICAScores
	default:
		return nil, nil, mvaerr.Usagef(mvaerr.ErrUsage, "unknown reconstruction mode %d", int(mode))
	}
	if factors == nil || scores == nil {
		return nil, nil, fmt.Errorf("%s: %w", mode, mvaerr.ErrNoDecomposition)
	}

	return factors, scores, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

func sameShape(a, b *signal.Signal) bool {
	as, bs := a.Shape(), b.Shape()
	if len(as) != len(bs) || a.SignalAxis() != b.SignalAxis() {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}

	return true
}
