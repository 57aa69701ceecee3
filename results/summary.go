// SPDX-License-Identifier: MIT

package results

import (
	"fmt"
	"strings"
)

// Summary renders the algorithms and flags of r as aligned text.
func (r *Result) Summary() string {
	if r == nil {
		return "No decomposition.\n"
	}
	var b strings.Builder
	b.WriteString("Decomposition parameters\n")
	b.WriteString("------------------------\n")
	fmt.Fprintf(&b, "%-32s %s\n", "PCA algorithm:", r.PCAAlgorithm)
	fmt.Fprintf(&b, "%-32s %t\n", "Poissonian noise normalized:", r.PoissonNormalized)
	fmt.Fprintf(&b, "%-32s %t\n", "Centered:", r.Centered)
	fmt.Fprintf(&b, "%-32s %t\n", "Variance normalized:", r.Variance2One)
	od := "unset"
	if r.OutputDimension != nil {
		od = fmt.Sprint(*r.OutputDimension)
	}
	fmt.Fprintf(&b, "%-32s %s\n", "Output dimension:", od)
	if r.MLPCA != nil {
		fmt.Fprintf(&b, "%-32s %d iterations, objective %.6g, converged %t\n",
			"ML-PCA:", r.MLPCA.Iterations, r.MLPCA.Objective, r.MLPCA.Converged)
	}
	if r.HasICA() {
		b.WriteString("\nDemixing parameters\n")
		b.WriteString("-------------------\n")
		fmt.Fprintf(&b, "%-32s %s\n", "ICA algorithm:", r.ICAAlgorithm)
		fmt.Fprintf(&b, "%-32s %v\n", "Components:", r.ICAComponents)
	}

	return b.String()
}
