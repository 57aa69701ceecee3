// SPDX-License-Identifier: MIT

package decomposition

import (
	"math"

	"github.com/openacid/slimarray/polyfit"

	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// Polyval evaluates coefficients (highest power first) at x by Horner's rule.
func Polyval(coeffs []float64, x float64) float64 {
	var acc float64
	for _, c := range coeffs {
		acc = acc*x + c
	}

	return acc
}

func validatePolynomial(coeffs []float64) error {
	if len(coeffs) == 0 {
		return mvaerr.Usagef(mvaerr.ErrInvalidPolynomial, "no coefficients")
	}
	for i, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return mvaerr.Usagef(mvaerr.ErrInvalidPolynomial, "coefficient %d is %g", i, c)
		}
	}

	return nil
}

// FitVariancePolynomial least-squares fits a degree-deg noise model
// variance = f(mean) from calibration pairs. The result is highest power
// first, ready for Variance.Polynomial.
//
// Errors:
//   - ErrInvalidPolynomial for mismatched inputs, too few points, a negative
//     degree, or a non-finite fit.
func FitVariancePolynomial(means, variances []float64, deg int) ([]float64, error) {
	if deg < 0 || len(means) != len(variances) || len(means) <= deg {
		return nil, mvaerr.Usagef(mvaerr.ErrInvalidPolynomial,
			"degree %d with %d means and %d variances", deg, len(means), len(variances))
	}
	asc := polyfit.NewFit(means, variances, deg).Solve()
	out := make([]float64, len(asc))
	for i, c := range asc {
		out[len(asc)-1-i] = c
	}
	if err := validatePolynomial(out); err != nil {
		return nil, err
	}

	return out, nil
}
