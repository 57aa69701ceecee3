// SPDX-License-Identifier: MIT

// Package matrix - core linear algebra kernels.
//
// Purpose:
//   - Deterministic Add/Sub/Mul/Transpose/Scale/Hadamard/MatVec over Matrix inputs.
//   - Symmetric eigen decomposition by cyclic Jacobi rotations (used for whitening).
//   - Gauss-Jordan inversion with partial pivoting (used for demixing reversal).
//
// All kernels accept the Matrix interface and return a freshly allocated *Dense.
// Non-Dense inputs are materialized once through At, so the hot loops always run
// over flat row-major slices.

package matrix

import (
	"fmt"
	"math"
	"sort"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// ---------- operation tags ----------

const (
	opAdd       = "Add"
	opSub       = "Sub"
	opMul       = "Mul"
	opTranspose = "Transpose"
	opScale     = "Scale"
	opHadamard  = "Hadamard"
	opMatVec    = "MatVec"
	opEigen     = "Eigen"
	opInverse   = "Inverse"
	opAsDense   = "AsDense"
)

// matrixErrorf wraps err with an operation tag: "<tag>: <underlying>".
// Assumes err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// AsDense returns m itself when it is a *Dense, otherwise a Dense copy read via At.
func AsDense(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opAsDense, err)
	}
	if d, ok := m.(*Dense); ok {
		return d, nil
	}
	r, c := m.Rows(), m.Cols()
	out, err := newDenseZeroOK(r, c)
	if err != nil {
		return nil, matrixErrorf(opAsDense, err)
	}
	var i, j int
	var v float64
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opAsDense, err)
			}
			out.data[i*c+j] = v
		}
	}

	return out, nil
}

// addSub computes out = a + sign*b. Operands are not mutated.
func addSub(a, b Matrix, sign float64, opTag string) (*Dense, error) {
	if err := ValidateBinarySameShape(a, b); err != nil {
		return nil, matrixErrorf(opTag, err)
	}
	ad, err := AsDense(a)
	if err != nil {
		return nil, matrixErrorf(opTag, err)
	}
	bd, err := AsDense(b)
	if err != nil {
		return nil, matrixErrorf(opTag, err)
	}
	out := ad.Copy()
	tmp := make([]float64, len(bd.data))
	vecmath.ScaleBlock(tmp, bd.data, sign)
	vecmath.AddBlockInPlace(out.data, tmp)

	return out, nil
}

// Add returns a + b.
func Add(a, b Matrix) (*Dense, error) { return addSub(a, b, +1, opAdd) }

// Sub returns a - b. Used to form reconstruction residuals.
func Sub(a, b Matrix) (*Dense, error) { return addSub(a, b, -1, opSub) }

// Mul computes the matrix product a×b.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b) and materialize Dense views.
//   - Stage 2: i→k→j loop; each row of the result accumulates a scaled row of b
//     (axpy form), which keeps the inner loop contiguous.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch.
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
func Mul(a, b Matrix) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	ad, err := AsDense(a)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	bd, err := AsDense(b)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	r, n, c := ad.r, ad.c, bd.c
	out, err := newDenseZeroOK(r, c)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	var i, k int
	var aik float64
	var orow, brow []float64
	for i = 0; i < r; i++ {
		orow = out.data[i*c : (i+1)*c]
		for k = 0; k < n; k++ {
			aik = ad.data[i*n+k]
			if aik == 0 {
				continue
			}
			brow = bd.data[k*c : (k+1)*c]
			for j := range orow {
				orow[j] += aik * brow[j]
			}
		}
	}

	return out, nil
}

// Transpose returns mᵀ.
func Transpose(m Matrix) (*Dense, error) {
	md, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	out, err := newDenseZeroOK(md.c, md.r)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	out.validateNaNInf = md.validateNaNInf
	var i, j int
	for i = 0; i < md.r; i++ {
		for j = 0; j < md.c; j++ {
			out.data[j*md.r+i] = md.data[i*md.c+j]
		}
	}

	return out, nil
}

// Scale returns alpha*m.
func Scale(m Matrix, alpha float64) (*Dense, error) {
	md, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	out, err := newDenseZeroOK(md.r, md.c)
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	vecmath.ScaleBlock(out.data, md.data, alpha)

	return out, nil
}

// Hadamard returns the elementwise product a∘b.
func Hadamard(a, b Matrix) (*Dense, error) {
	if err := ValidateBinarySameShape(a, b); err != nil {
		return nil, matrixErrorf(opHadamard, err)
	}
	ad, err := AsDense(a)
	if err != nil {
		return nil, matrixErrorf(opHadamard, err)
	}
	bd, err := AsDense(b)
	if err != nil {
		return nil, matrixErrorf(opHadamard, err)
	}
	out, err := newDenseZeroOK(ad.r, ad.c)
	if err != nil {
		return nil, matrixErrorf(opHadamard, err)
	}
	vecmath.MulBlock(out.data, ad.data, bd.data)

	return out, nil
}

// MatVec returns y = m·x.
func MatVec(m Matrix, x []float64) ([]float64, error) {
	md, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err = ValidateVecLen(x, md.c); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	y := make([]float64, md.r)
	var i, j int
	var acc float64
	for i = 0; i < md.r; i++ {
		acc = 0
		for j = 0; j < md.c; j++ {
			acc += md.data[i*md.c+j] * x[j]
		}
		y[i] = acc
	}

	return y, nil
}

// Eigen computes eigenpairs of a symmetric matrix with cyclic Jacobi sweeps.
//
// Implementation:
//   - Stage 1: ValidateSymmetric(m, eps·scale) on a working copy.
//   - Stage 2: sweep all (p,q), p<q in fixed order and annihilate A[p,q] with a
//     rotation; accumulate rotations into Q. Stop when the off-diagonal
//     Frobenius norm falls under eps·‖A‖ or after maxSweeps.
//   - Stage 3: sort eigenpairs by descending eigenvalue.
//
// Returns:
//   - []float64: eigenvalues, descending.
//   - *Dense: Q whose column k is the eigenvector of eigenvalue k.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrAsymmetry, ErrEigenFailed.
//
// Determinism:
//   - Fixed sweep order and stable sort; identical inputs give identical outputs.
//
// Complexity:
//   - Time O(sweeps·n³), Space O(n²).
func Eigen(m Matrix, opts ...Option) ([]float64, *Dense, error) {
	o := gatherOptions(opts...)
	md, err := AsDense(m)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	if err = ValidateSquare(md); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := md.r
	a := md.Copy()

	var frob float64
	for _, v := range a.data {
		frob += v * v
	}
	frob = math.Sqrt(frob)
	tol := o.eps * math.Max(frob, 1)
	if err = ValidateSymmetric(a, math.Max(tol, 1e-9*math.Max(frob, 1))); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}

	q, err := newDenseZeroOK(n, n)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	var i, p, r int
	for i = 0; i < n; i++ {
		q.data[i*n+i] = 1
	}

	var (
		sweep              int
		off                float64
		app, aqq, apq      float64
		theta, t, c, s     float64
		aip, aiq, qip, qiq float64
		converged          bool
	)
	for sweep = 0; sweep < o.maxSweeps; sweep++ {
		// S.1: off-diagonal norm
		off = 0
		for p = 0; p < n; p++ {
			for r = p + 1; r < n; r++ {
				off += a.data[p*n+r] * a.data[p*n+r]
			}
		}
		if math.Sqrt(2*off) <= tol {
			converged = true
			break
		}

		// S.2: one cyclic sweep
		for p = 0; p < n-1; p++ {
			for r = p + 1; r < n; r++ {
				apq = a.data[p*n+r]
				if apq == 0 {
					continue
				}
				app = a.data[p*n+p]
				aqq = a.data[r*n+r]
				theta = (aqq - app) / (2 * apq)
				t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
				c = 1.0 / math.Sqrt(t*t+1)
				s = t * c

				for i = 0; i < n; i++ {
					if i == p || i == r {
						continue
					}
					aip = a.data[i*n+p]
					aiq = a.data[i*n+r]
					a.data[i*n+p] = c*aip - s*aiq
					a.data[p*n+i] = a.data[i*n+p]
					a.data[i*n+r] = s*aip + c*aiq
					a.data[r*n+i] = a.data[i*n+r]
				}
				a.data[p*n+p] = app - t*apq
				a.data[r*n+r] = aqq + t*apq
				a.data[p*n+r], a.data[r*n+p] = 0, 0

				for i = 0; i < n; i++ {
					qip = q.data[i*n+p]
					qiq = q.data[i*n+r]
					q.data[i*n+p] = c*qip - s*qiq
					q.data[i*n+r] = s*qip + c*qiq
				}
			}
		}
	}
	if !converged {
		off = 0
		for p = 0; p < n; p++ {
			for r = p + 1; r < n; r++ {
				off += a.data[p*n+r] * a.data[p*n+r]
			}
		}
		if math.Sqrt(2*off) > tol {
			return nil, nil, matrixErrorf(opEigen, ErrEigenFailed)
		}
	}

	// Stage 3: sort descending
	order := make([]int, n)
	for i = range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return a.data[order[x]*n+order[x]] > a.data[order[y]*n+order[y]]
	})
	vals := make([]float64, n)
	vecs, _ := newDenseZeroOK(n, n)
	for k, src := range order {
		vals[k] = a.data[src*n+src]
		for i = 0; i < n; i++ {
			vecs.data[i*n+k] = q.data[i*n+src]
		}
	}

	return vals, vecs, nil
}

// Inverse computes m⁻¹ by Gauss-Jordan elimination with partial pivoting.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare.
//   - ErrSingular when a pivot magnitude falls under eps·max|m|.
//
// Complexity:
//   - Time O(n³), Space O(n²).
func Inverse(m Matrix, opts ...Option) (*Dense, error) {
	o := gatherOptions(opts...)
	md, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	if err = ValidateSquare(md); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	n := md.r
	a := md.Copy()
	inv, err := newDenseZeroOK(n, n)
	if err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	var i, j, k, piv int
	var scale, f float64
	for i = 0; i < n; i++ {
		inv.data[i*n+i] = 1
	}
	for _, v := range a.data {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		return nil, matrixErrorf(opInverse, ErrSingular)
	}

	for k = 0; k < n; k++ {
		// pivot search
		piv = k
		for i = k + 1; i < n; i++ {
			if math.Abs(a.data[i*n+k]) > math.Abs(a.data[piv*n+k]) {
				piv = i
			}
		}
		if math.Abs(a.data[piv*n+k]) <= o.eps*scale {
			return nil, matrixErrorf(opInverse, ErrSingular)
		}
		if piv != k {
			swapRows(a, piv, k)
			swapRows(inv, piv, k)
		}

		f = 1 / a.data[k*n+k]
		vecmath.ScaleBlock(a.Row(k), a.Row(k), f)
		vecmath.ScaleBlock(inv.Row(k), inv.Row(k), f)

		for i = 0; i < n; i++ {
			if i == k {
				continue
			}
			f = a.data[i*n+k]
			if f == 0 {
				continue
			}
			for j = 0; j < n; j++ {
				a.data[i*n+j] -= f * a.data[k*n+j]
				inv.data[i*n+j] -= f * inv.data[k*n+j]
			}
		}
	}

	return inv, nil
}

func swapRows(m *Dense, x, y int) {
	rx, ry := m.Row(x), m.Row(y)
	for j := range rx {
		rx[j], ry[j] = ry[j], rx[j]
	}
}
