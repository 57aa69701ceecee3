// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToGonum copies m into a gonum *mat.Dense.
// Returns ErrInvalidDimensions for zero-area input (gonum rejects empty matrices).
func ToGonum(m Matrix) (*mat.Dense, error) {
	md, err := AsDense(m)
	if err != nil {
		return nil, err
	}
	if md.r == 0 || md.c == 0 {
		return nil, fmt.Errorf("ToGonum(%d,%d): %w", md.r, md.c, ErrInvalidDimensions)
	}
	buf := make([]float64, len(md.data))
	copy(buf, md.data)

	return mat.NewDense(md.r, md.c, buf), nil
}

// FromGonum copies any gonum matrix into a Dense.
func FromGonum(g mat.Matrix) *Dense {
	r, c := g.Dims()
	out, _ := newDenseZeroOK(r, c)
	var i, j int
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			out.data[i*c+j] = g.At(i, j)
		}
	}

	return out
}
