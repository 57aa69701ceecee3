// SPDX-License-Identifier: MIT

// Package matrix provides the dense row-major matrix used throughout the
// multivariate-analysis pipeline.
//
// The matrix package provides:
//
//   - Dense, a flat row-major buffer that can own its data (NewDense,
//     NewDenseFrom) or share a caller's buffer (Wrap) so preprocessing
//     mutates a spectrum image in place.
//   - Kernels (Add, Sub, Mul, Transpose, Scale, Hadamard, MatVec) returning
//     fresh *Dense values, backed by algo-vecmath block routines.
//   - In-place broadcast kernels (SubRowVectorInPlace, ScaleColsInPlace, ...)
//     used by reversible centering and noise normalisation.
//   - Symmetric Eigen (cyclic Jacobi) and Inverse (Gauss-Jordan) for whitening
//     and demixing, plus ToGonum/FromGonum for the SVD-based back-ends.
//
// Errors are package sentinels wrapped with an operation tag and matched with
// errors.Is. NaN is a legal value by default: scores of excluded navigation
// positions are NaN. Strict finite checks are opt-in via WithValidateNaNInf.
package matrix
