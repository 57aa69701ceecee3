// SPDX-License-Identifier: MIT

package ica

import (
	"log/slog"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/signal"
)

const (
	// DefaultTolerance is the rotation threshold of the joint diagonaliser and
	// the fixed-point convergence bound of FastICA.
	DefaultTolerance = 1e-8
	// DefaultMaxIterations caps Jacobi sweeps and FastICA iterations.
	DefaultMaxIterations = 1000
	// DefaultLags is the number of time lags TDSEP diagonalises.
	DefaultLags = 1
)

// Options tune the rotation learners. Zero fields take the defaults.
type Options struct {
	Seed          int64
	Tolerance     float64
	MaxIterations int
	Lags          int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Lags <= 0 {
		o.Lags = DefaultLags
	}

	return o
}

// Input is a finished principal component decomposition plus the ICA settings.
type Input struct {
	// Factors is signal × K, Scores is navigation × K'. Only the first
	// min(K, K') components are selectable.
	Factors *matrix.Dense
	Scores  *matrix.Dense
	// Components lists the factor columns to unmix. When nil, the first
	// NumComponents columns are used (all of them when NumComponents is 0).
	Components    []int
	NumComponents int
	// DiffOrder differentiates the factors along the signal axis before
	// training. Useful for spectra sitting on a common background.
	DiffOrder int
	// Mask selects signal channels used for training. A differentiated row is
	// kept only when every channel it spans is selected.
	Mask      signal.Mask
	Algorithm Algorithm
	Options   Options
	Logger    *slog.Logger
}

// Output holds the unmixing result for the selected components.
type Output struct {
	// W is the k×k unmixing matrix.
	W *matrix.Dense
	// IC is signal × k: Factors[:, Components]·Wᵀ.
	IC *matrix.Dense
	// Scores is navigation × k: Scores[:, Components]·W⁻¹. Rows of excluded
	// navigation positions stay NaN.
	Scores *matrix.Dense
	// Components are the factor columns that were unmixed.
	Components []int
}

// Analyze trains the chosen rotation on whitened (optionally differentiated
// and masked) factors and demixes both factors and scores.
//
// Implementation:
//   - Stage 1: select components and validate the selection.
//   - Stage 2: Diff along the signal axis, drop masked rows, whiten.
//   - Stage 3: learn R; W = R·InvSqrtCov.
//   - Stage 4: IC = F_sel·Wᵀ; negate every IC (and its W row) that has no
//     positive entry and at least one negative one.
//   - Stage 5: ICA scores = S_sel·W⁻¹, so IC·scoresᵀ rebuilds F_sel·S_selᵀ.
func Analyze(in Input) (*Output, error) {
	if in.Factors == nil || in.Scores == nil {
		return nil, mvaerr.ErrNoDecomposition
	}
	train, ok := rotators[in.Algorithm]
	if !ok {
		return nil, mvaerr.Usagef(mvaerr.ErrUnknownAlgorithm, "ICA algorithm %d", int(in.Algorithm))
	}
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := in.Options.withDefaults()

	total := in.Factors.Cols()
	if in.Scores.Cols() < total {
		total = in.Scores.Cols()
	}
	comps, err := selectComponents(in.Components, in.NumComponents, total)
	if err != nil {
		return nil, err
	}
	k := len(comps)
	sig := in.Factors.Rows()
	nav := in.Scores.Rows()
	allRows := seq(sig)
	allNav := seq(nav)
	fSel, err := in.Factors.Induced(allRows, comps)
	if err != nil {
		return nil, err
	}
	sSel, err := in.Scores.Induced(allNav, comps)
	if err != nil {
		return nil, err
	}

	diffed, err := matrix.Diff(fSel, in.DiffOrder)
	if err != nil {
		return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "diff order %d: %v", in.DiffOrder, err)
	}
	mask, err := in.Mask.Resolve(sig)
	if err != nil {
		return nil, err
	}
	keep := trainingRows(mask, diffed.Rows(), in.DiffOrder)
	if len(keep) < 2 {
		return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "mask leaves %d training rows", len(keep))
	}
	training, err := diffed.Induced(keep, seq(k))
	if err != nil {
		return nil, err
	}
	wh, err := Whiten(training)
	if err != nil {
		return nil, err
	}
	logger.Debug("ica: whitened factors",
		slog.Int("components", k),
		slog.Int("rows", len(keep)),
		slog.Int("diff_order", in.DiffOrder))

	z := make([][]float64, wh.Data.Rows())
	for i := range z {
		z[i] = wh.Data.Row(i)
	}
	rot, err := train(z, opts)
	if err != nil {
		return nil, err
	}
	if !rot.Converged {
		logger.Warn("ica: rotation reached the iteration limit",
			slog.String("algorithm", in.Algorithm.String()),
			slog.Int("iterations", rot.Iterations))
	}
	r, err := matrix.NewDenseFrom(k, k, rot.R)
	if err != nil {
		return nil, err
	}
	w, err := matrix.Mul(r, wh.InvSqrtCov)
	if err != nil {
		return nil, err
	}

	wt, err := matrix.Transpose(w)
	if err != nil {
		return nil, err
	}
	ic, err := matrix.Mul(fSel, wt)
	if err != nil {
		return nil, err
	}
	flipped := flipNegative(ic, w)
	if len(flipped) > 0 {
		logger.Debug("ica: flipped negative components", slog.Any("components", flipped))
	}

	winv, err := matrix.Inverse(w)
	if err != nil {
		return nil, mvaerr.Usagef(mvaerr.ErrDegenerateComponents, "unmixing matrix: %v", err)
	}
	scores, err := matrix.Mul(sSel, winv)
	if err != nil {
		return nil, err
	}
	logger.Info("ica: unmixed",
		slog.String("algorithm", in.Algorithm.String()),
		slog.Int("components", k))

	return &Output{W: w, IC: ic, Scores: scores, Components: comps}, nil
}

// Reverse negates the given independent components: IC column i, W row i and,
// when scores is non-nil, scores column i.
func Reverse(ic, w, scores *matrix.Dense, components ...int) error {
	if ic == nil || w == nil {
		return mvaerr.ErrNoDecomposition
	}
	for _, c := range components {
		if c < 0 || c >= ic.Cols() {
			return mvaerr.Usagef(mvaerr.ErrInvalidSelection, "component %d of %d", c, ic.Cols())
		}
	}
	for _, c := range components {
		negateCol(ic, c)
		negateRow(w, c)
		if scores != nil {
			negateCol(scores, c)
		}
	}

	return nil
}

// flipNegative applies the sign convention and returns the flipped columns.
// An all-zero column is left alone.
func flipNegative(ic, w *matrix.Dense) []int {
	var flipped []int
	for j := 0; j < ic.Cols(); j++ {
		neg := false
		pos := false
		for i := 0; i < ic.Rows(); i++ {
			v := ic.Row(i)[j]
			if v < 0 {
				neg = true
			} else if v > 0 {
				pos = true
				break
			}
		}
		if neg && !pos {
			negateCol(ic, j)
			negateRow(w, j)
			flipped = append(flipped, j)
		}
	}

	return flipped
}

func negateCol(m *matrix.Dense, j int) {
	for i := 0; i < m.Rows(); i++ {
		row := m.Row(i)
		row[j] = -row[j]
	}
}

func negateRow(m *matrix.Dense, i int) {
	row := m.Row(i)
	for j := range row {
		row[j] = -row[j]
	}
}

func selectComponents(list []int, n, total int) ([]int, error) {
	if list != nil {
		if len(list) == 0 {
			return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "empty component list")
		}
		seen := make(map[int]bool, len(list))
		for _, c := range list {
			if c < 0 || c >= total {
				return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "component %d of %d", c, total)
			}
			if seen[c] {
				return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "component %d listed twice", c)
			}
			seen[c] = true
		}

		return append([]int(nil), list...), nil
	}
	if n < 0 || n > total {
		return nil, mvaerr.Usagef(mvaerr.ErrInvalidSelection, "%d components of %d", n, total)
	}
	if n == 0 {
		n = total
	}

	return seq(n), nil
}

// trainingRows keeps differentiated row i when channels i..i+order are all selected.
func trainingRows(mask signal.Mask, rows, order int) []int {
	keep := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		ok := true
		for c := i; c <= i+order; c++ {
			if !mask.At(c) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	return keep
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}
