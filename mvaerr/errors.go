// SPDX-License-Identifier: MIT

// Package mvaerr defines the error taxonomy shared by every analysis package.
//
// Two roots classify every failure:
//   - ErrUsage: the caller can fix it by changing arguments or call order.
//   - ErrData: the input data itself is unusable (e.g. negative counts).
//
// Concrete sentinels wrap one root, so callers may match either the concrete
// condition or the whole class with errors.Is.
package mvaerr

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

var (
	// ErrUsage is the root of all caller-fixable errors.
	ErrUsage = errors.New("mva: usage error")

	// ErrData is the root of all errors caused by the input data.
	ErrData = errors.New("mva: data error")
)

var (
	ErrOutputDimensionRequired = fmt.Errorf("%w: output dimension is required by this algorithm", ErrUsage)
	ErrConflictingVariance     = fmt.Errorf("%w: variance array and variance function are mutually exclusive", ErrUsage)
	ErrUnknownAlgorithm        = fmt.Errorf("%w: unknown algorithm", ErrUsage)
	ErrNoDecomposition         = fmt.Errorf("%w: no decomposition available; run one first", ErrUsage)
	ErrInvalidPolynomial       = fmt.Errorf("%w: invalid variance polynomial", ErrUsage)
	ErrInvalidSelection        = fmt.Errorf("%w: invalid component selection", ErrUsage)
	ErrTreatmentInProgress     = fmt.Errorf("%w: a preprocessing treatment is already active on this signal", ErrUsage)
	ErrShapeMismatch           = fmt.Errorf("%w: shape mismatch", ErrUsage)

	// ErrNegativeCounts reports a negative row or column sum during Poisson normalisation.
	ErrNegativeCounts = fmt.Errorf("%w: negative values in Poisson-normalised region", ErrData)

	// ErrDegenerateComponents reports components whose covariance cannot be whitened.
	ErrDegenerateComponents = fmt.Errorf("%w: selected components are linearly dependent", ErrData)
)

// Usagef wraps ErrUsage (or a concrete usage sentinel passed as base) with a message.
func Usagef(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

// Trace attaches a stack trace to err. A nil err stays nil.
func Trace(err error) error {
	if err == nil {
		return nil
	}

	return xerrors.New(err)
}

// IsUsage reports whether err is a caller-fixable error.
func IsUsage(err error) bool { return errors.Is(err, ErrUsage) }

// IsData reports whether err is caused by unusable input data.
func IsData(err error) bool { return errors.Is(err, ErrData) }
