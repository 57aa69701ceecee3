// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for numeric kernels.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal) that applies setters over the defaults.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each flag impacts behavior and is covered by tests.
//   - Safe by construction: panic only on invalid parameters (programmer error).
//
// Notes:
//   - Spectral pipelines legitimately carry NaN: scores of navigation positions
//     excluded by a mask are NaN ("not processed"). The default numeric policy is
//     therefore permissive; strict finite-value checks are opt-in.
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultEpsilon is the tolerance used by symmetry checks and as the
	// off-diagonal convergence threshold of the Jacobi eigen solver.
	DefaultEpsilon = 1e-12

	// DefaultMaxSweeps caps the number of cyclic Jacobi sweeps.
	DefaultMaxSweeps = 100

	// DefaultValidateNaNInf toggles strict finite-value validation in Set/Apply.
	DefaultValidateNaNInf = false
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicEpsilonInvalid   = "matrix: WithEpsilon: eps must be finite, non-negative"
	panicMaxSweepsInvalid = "matrix: WithMaxSweeps: sweeps must be > 0"
)

// ---------- Public option type (functional) ----------

// Option mutates internal options. Safe to apply repeatedly (idempotent).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Fields are unexported; public entry points accept `...Option`.
type Options struct {
	eps            float64 // >= 0; DefaultEpsilon
	maxSweeps      int     // > 0; DefaultMaxSweeps
	validateNaNInf bool    // DefaultValidateNaNInf
}

// WithEpsilon sets the numeric tolerance eps.
// Panics with a stable message when eps is negative or non-finite.
func WithEpsilon(eps float64) Option {
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps < 0 {
		panic(panicEpsilonInvalid)
	}

	return func(o *Options) { o.eps = eps }
}

// WithMaxSweeps caps the number of Jacobi sweeps.
// Panics when sweeps <= 0.
func WithMaxSweeps(sweeps int) Option {
	if sweeps <= 0 {
		panic(panicMaxSweepsInvalid)
	}

	return func(o *Options) { o.maxSweeps = sweeps }
}

// WithValidateNaNInf enables strict finite-value validation for matrices
// created through NewDenseWithOptions.
func WithValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = true }
}

// defaultOptions returns the zero-configuration policy.
func defaultOptions() Options {
	return Options{
		eps:            DefaultEpsilon,
		maxSweeps:      DefaultMaxSweeps,
		validateNaNInf: DefaultValidateNaNInf,
	}
}

// gatherOptions applies setters in order over the defaults (last write wins).
func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
