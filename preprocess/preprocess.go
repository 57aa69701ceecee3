// SPDX-License-Identifier: MIT

// Package preprocess implements the reversible transforms applied to a
// navigation × signal block before decomposition.
//
// Every transform mutates X in place and returns a state value whose Undo
// method applies the exact inverse. States are plain values: the caller keeps
// them for as long as the treatment lasts and drops them afterwards.
package preprocess

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// Centering holds the per-signal-index means removed by Center.
type Centering struct {
	Mean []float64
}

// Center subtracts from every column (signal index) its mean across
// navigation positions.
func Center(X *matrix.Dense) (*Centering, error) {
	means, err := matrix.ColumnMeans(X)
	if err != nil {
		return nil, fmt.Errorf("Center: %w", err)
	}
	if err = matrix.SubRowVectorInPlace(X, means); err != nil {
		return nil, fmt.Errorf("Center: %w", err)
	}

	return &Centering{Mean: means}, nil
}

// Undo adds the stored means back.
func (c *Centering) Undo(X *matrix.Dense) error {
	return matrix.AddRowVectorInPlace(X, c.Mean)
}

// VarianceScaling holds the per-signal-index population std used by Variance2One.
// Zero-std columns store 1 and are left unscaled.
type VarianceScaling struct {
	Std []float64
}

// Variance2One divides every column by its population standard deviation.
func Variance2One(X *matrix.Dense) (*VarianceScaling, error) {
	r, c := X.Shape()
	if r == 0 {
		return nil, fmt.Errorf("Variance2One: %w", matrix.ErrInvalidDimensions)
	}
	std := make([]float64, c)
	inv := make([]float64, c)
	col := make([]float64, r)
	var i, j int
	for j = 0; j < c; j++ {
		for i = 0; i < r; i++ {
			col[i] = X.Row(i)[j]
		}
		_, s := stat.PopMeanStdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		std[j], inv[j] = s, 1/s
	}
	if err := matrix.ScaleColsInPlace(X, inv); err != nil {
		return nil, fmt.Errorf("Variance2One: %w", err)
	}

	return &VarianceScaling{Std: std}, nil
}

// Undo multiplies every column by its stored std.
func (v *VarianceScaling) Undo(X *matrix.Dense) error {
	return matrix.ScaleColsInPlace(X, v.Std)
}

// RescaleFactors multiplies row j of a signal × k factor matrix by Std[j],
// returning the factors to the scale of the unnormalised data.
func (v *VarianceScaling) RescaleFactors(F *matrix.Dense) error {
	if F.Rows() != len(v.Std) {
		return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "factors have %d rows, want %d", F.Rows(), len(v.Std))
	}

	return matrix.ScaleRowsInPlace(F, v.Std)
}

// Poisson holds the state of a Poissonian noise normalisation.
//
//   - RootAG[i] = sqrt(Σ_j X[i,j]) over selected signal indices j, per navigation position i.
//   - RootBH[j] = sqrt(Σ_i X[i,j]) over selected navigation positions i, per signal index j.
//   - NavMask/SigMask are the masks after zero-sum positions were excluded.
//   - ZeroNav/ZeroSig list the positions excluded here.
type Poisson struct {
	RootAG  []float64
	RootBH  []float64
	NavMask signal.Mask
	SigMask signal.Mask
	ZeroNav []int
	ZeroSig []int
}

// NormalizePoissonian scales the masked region of X by 1/(sqrt(aG) ⊗ sqrt(bH)).
//
// Implementation:
//   - Stage 1: resolve masks; sum the masked region per row (aG) and per column (bH).
//   - Stage 2: reject any negative sum with ErrNegativeCounts, X untouched.
//   - Stage 3: exclude zero-sum rows/columns from the masks (concrete from then on).
//   - Stage 4: divide X[i,j] for selected i, j by sqrt(aG[i])*sqrt(bH[j]).
//
// Errors:
//   - ErrShapeMismatch for masks of the wrong length.
//   - ErrNegativeCounts (a data error) for negative sums.
func NormalizePoissonian(X *matrix.Dense, navMask, sigMask signal.Mask) (*Poisson, error) {
	r, c := X.Shape()
	nm, err := navMask.Resolve(r)
	if err != nil {
		return nil, err
	}
	sm, err := sigMask.Resolve(c)
	if err != nil {
		return nil, err
	}
	navIdx, sigIdx := nm.Indices(), sm.Indices()

	// Stage 1
	aG := make([]float64, r)
	bH := make([]float64, c)
	var row []float64
	for _, i := range navIdx {
		row = X.Row(i)
		for _, j := range sigIdx {
			aG[i] += row[j]
			bH[j] += row[j]
		}
	}

	// Stage 2
	for _, i := range navIdx {
		if aG[i] < 0 {
			return nil, fmt.Errorf("%w: navigation position %d sums to %g", mvaerr.ErrNegativeCounts, i, aG[i])
		}
	}
	for _, j := range sigIdx {
		if bH[j] < 0 {
			return nil, fmt.Errorf("%w: signal index %d sums to %g", mvaerr.ErrNegativeCounts, j, bH[j])
		}
	}

	// Stage 3
	p := &Poisson{RootAG: make([]float64, r), RootBH: make([]float64, c)}
	for _, i := range navIdx {
		if aG[i] == 0 {
			nm.Exclude(i)
			p.ZeroNav = append(p.ZeroNav, i)
		}
	}
	for _, j := range sigIdx {
		if bH[j] == 0 {
			sm.Exclude(j)
			p.ZeroSig = append(p.ZeroSig, j)
		}
	}
	for i := range aG {
		p.RootAG[i] = math.Sqrt(aG[i])
	}
	for j := range bH {
		p.RootBH[j] = math.Sqrt(bH[j])
	}
	p.NavMask, p.SigMask = nm, sm

	// Stage 4
	p.apply(X, true)

	return p, nil
}

func (p *Poisson) apply(X *matrix.Dense, divide bool) {
	sigIdx := p.SigMask.Indices()
	var row []float64
	var d float64
	for _, i := range p.NavMask.Indices() {
		row = X.Row(i)
		for _, j := range sigIdx {
			d = p.RootAG[i] * p.RootBH[j]
			if divide {
				row[j] /= d
			} else {
				row[j] *= d
			}
		}
	}
}

// Undo multiplies the masked region back.
func (p *Poisson) Undo(X *matrix.Dense) {
	p.apply(X, false)
}

// RescaleFactors multiplies signal-masked rows of a signal × k factor matrix by RootBH.
func (p *Poisson) RescaleFactors(F *matrix.Dense) error {
	if F.Rows() != len(p.RootBH) {
		return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "factors have %d rows, want %d", F.Rows(), len(p.RootBH))
	}
	scaleSelectedRows(F, p.SigMask.Indices(), p.RootBH)

	return nil
}

// RescaleScores multiplies navigation-masked rows of a navigation × k score matrix by RootAG.
func (p *Poisson) RescaleScores(S *matrix.Dense) error {
	if S.Rows() != len(p.RootAG) {
		return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "scores have %d rows, want %d", S.Rows(), len(p.RootAG))
	}
	scaleSelectedRows(S, p.NavMask.Indices(), p.RootAG)

	return nil
}

func scaleSelectedRows(M *matrix.Dense, rows []int, s []float64) {
	var row []float64
	for _, i := range rows {
		row = M.Row(i)
		for j := range row {
			row[j] *= s[i]
		}
	}
}
