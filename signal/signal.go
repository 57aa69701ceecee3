// SPDX-License-Identifier: MIT

// Package signal holds an N-D spectrum image and reshapes it for analysis.
//
// A Signal has exactly one signal axis; every other axis is a navigation axis.
// Unfold moves the signal axis last and flattens the navigation axes row-major,
// giving a navigation × signal matrix that shares the Signal's buffer. Fold
// restores the recorded shape. Fold(Unfold(x)) reproduces x bit-for-bit.
package signal

import (
	"fmt"

	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// AnalysisTarget selects the data an analysis runs on.
type AnalysisTarget int

const (
	// TargetSignal analyses the spectrum image itself.
	TargetSignal AnalysisTarget = iota
	// TargetPeakCharacteristics analyses the navigation × feature peak table.
	TargetPeakCharacteristics
)

func (t AnalysisTarget) String() string {
	switch t {
	case TargetSignal:
		return "signal"
	case TargetPeakCharacteristics:
		return "peak_characteristics"
	default:
		return fmt.Sprintf("AnalysisTarget(%d)", int(t))
	}
}

// unfoldRecord is what Fold needs to undo an Unfold.
type unfoldRecord struct {
	shape []int
	axis  int
}

// Signal is a mutable N-D buffer (row-major) with one signal axis.
type Signal struct {
	title     string
	shape     []int
	axis      int
	data      []float64
	unfolded  *unfoldRecord
	treatment *Treatment
	peaks     *matrix.Dense
}

// New builds a Signal over data (row-major in shape). The Signal takes
// ownership of data; callers keeping a reference see in-place preprocessing.
//
// Errors:
//   - ErrShapeMismatch when shape is empty, has a non-positive extent,
//     len(data) != prod(shape), or signalAxis is out of range.
func New(shape []int, signalAxis int, data []float64) (*Signal, error) {
	if len(shape) == 0 {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "empty shape")
	}
	for _, d := range shape {
		if d <= 0 {
			return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "shape %v has a non-positive extent", shape)
		}
	}
	if signalAxis < 0 || signalAxis >= len(shape) {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "signal axis %d outside %d dimensions", signalAxis, len(shape))
	}
	if prod(shape) != len(data) {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "shape %v needs %d values, got %d", shape, prod(shape), len(data))
	}

	return &Signal{
		shape: append([]int(nil), shape...),
		axis:  signalAxis,
		data:  data,
	}, nil
}

// Title returns the signal's display name.
func (s *Signal) Title() string { return s.title }

// SetTitle sets the signal's display name.
func (s *Signal) SetTitle(t string) { s.title = t }

// Shape returns a copy of the current shape.
func (s *Signal) Shape() []int { return append([]int(nil), s.shape...) }

// SignalAxis returns the index of the signal axis in the current shape.
func (s *Signal) SignalAxis() int { return s.axis }

// Data exposes the buffer (no copy).
func (s *Signal) Data() []float64 { return s.data }

// SignalSize is the extent of the signal axis.
func (s *Signal) SignalSize() int { return s.shape[s.axis] }

// NavSize is the number of navigation positions (1 for a single spectrum).
func (s *Signal) NavSize() int { return len(s.data) / s.SignalSize() }

// NavShape returns the navigation shape in row-major unfold order, as it was
// before any Unfold. A single spectrum has navigation shape [1].
func (s *Signal) NavShape() []int {
	shape, axis := s.shape, s.axis
	if s.unfolded != nil {
		shape, axis = s.unfolded.shape, s.unfolded.axis
	}
	out := make([]int, 0, len(shape))
	for i, d := range shape {
		if i != axis {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = append(out, 1)
	}

	return out
}

// IsUnfolded reports whether an Unfold is outstanding.
func (s *Signal) IsUnfolded() bool { return s.unfolded != nil }

// canonical reports whether the buffer is already navigation × signal.
func (s *Signal) canonical() bool {
	return len(s.shape) == 1 || (len(s.shape) == 2 && s.axis == 1)
}

// Unfold reshapes the signal to navigation × signal, permuting the buffer in
// place. It returns false when nothing changed (1-D, canonical 2-D, or
// already unfolded).
func (s *Signal) Unfold() bool {
	if s.unfolded != nil || s.canonical() {
		return false
	}
	outer, mid, inner := s.split()
	permute(s.data, outer, mid, inner, true)

	s.unfolded = &unfoldRecord{shape: s.shape, axis: s.axis}
	s.shape = []int{outer * inner, mid}
	s.axis = 1

	return true
}

// Fold restores the shape recorded by Unfold. No-op when nothing was unfolded.
func (s *Signal) Fold() {
	if s.unfolded == nil {
		return
	}
	rec := s.unfolded
	s.shape, s.axis, s.unfolded = rec.shape, rec.axis, nil
	outer, mid, inner := s.split()
	permute(s.data, outer, mid, inner, false)
}

// split views the current shape as [outer, signal, inner].
func (s *Signal) split() (outer, mid, inner int) {
	outer, inner = 1, 1
	for i, d := range s.shape {
		switch {
		case i < s.axis:
			outer *= d
		case i > s.axis:
			inner *= d
		}
	}

	return outer, s.shape[s.axis], inner
}

// permute converts [outer, mid, inner] to [outer, inner, mid] (forward) or back,
// writing into the same slice.
func permute(data []float64, outer, mid, inner int, forward bool) {
	if inner == 1 {
		return
	}
	src := append([]float64(nil), data...)
	var o, m, i, oldIdx, newIdx int
	for o = 0; o < outer; o++ {
		for m = 0; m < mid; m++ {
			for i = 0; i < inner; i++ {
				oldIdx = (o*mid+m)*inner + i
				newIdx = (o*inner+i)*mid + m
				if forward {
					data[newIdx] = src[oldIdx]
				} else {
					data[oldIdx] = src[newIdx]
				}
			}
		}
	}
}

// Matrix returns the navigation × signal view sharing the buffer.
//
// Errors:
//   - ErrShapeMismatch when the signal is not in navigation × signal form
//     (call Unfold first).
func (s *Signal) Matrix() (*matrix.Dense, error) {
	if !s.canonical() {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "shape %v (signal axis %d) is not navigation × signal; unfold first", s.shape, s.axis)
	}

	return matrix.Wrap(s.NavSize(), s.SignalSize(), s.data)
}

// TargetMatrix returns the navigation × feature matrix for target.
func (s *Signal) TargetMatrix(target AnalysisTarget) (*matrix.Dense, error) {
	switch target {
	case TargetSignal:
		return s.Matrix()
	case TargetPeakCharacteristics:
		if s.peaks == nil {
			return nil, mvaerr.Usagef(mvaerr.ErrUsage, "no peak characteristics attached")
		}

		return s.peaks, nil
	default:
		return nil, mvaerr.Usagef(mvaerr.ErrUsage, "unknown analysis target %v", target)
	}
}

// SetPeakCharacteristics attaches a navigation × feature table (one row per
// navigation position).
func (s *Signal) SetPeakCharacteristics(m *matrix.Dense) error {
	if m == nil {
		s.peaks = nil
		return nil
	}
	if m.Rows() != s.NavSize() {
		return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "peak table has %d rows, navigation size is %d", m.Rows(), s.NavSize())
	}
	s.peaks = m

	return nil
}

// PeakCharacteristics returns the attached peak table, or nil.
func (s *Signal) PeakCharacteristics() *matrix.Dense { return s.peaks }

// Clone returns a deep copy (without any outstanding treatment).
func (s *Signal) Clone() *Signal {
	c := &Signal{
		title: s.title,
		shape: append([]int(nil), s.shape...),
		axis:  s.axis,
		data:  append([]float64(nil), s.data...),
	}
	if s.unfolded != nil {
		c.unfolded = &unfoldRecord{shape: append([]int(nil), s.unfolded.shape...), axis: s.unfolded.axis}
	}
	if s.peaks != nil {
		c.peaks = s.peaks.Copy()
	}

	return c
}

// FromMatrix builds a Signal of the given shape from a navigation × signal
// matrix laid out in unfold order, folding it back. The matrix is copied.
//
// Errors:
//   - ErrShapeMismatch when m does not hold prod(shape) values or its column
//     count differs from the signal axis extent.
func FromMatrix(m *matrix.Dense, shape []int, signalAxis int) (*Signal, error) {
	if m == nil {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "nil matrix")
	}
	s, err := New(shape, signalAxis, append([]float64(nil), m.Raw()...))
	if err != nil {
		return nil, err
	}
	if m.Cols() != s.SignalSize() {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch,
			"matrix has %d columns, signal axis of %v has %d", m.Cols(), shape, s.SignalSize())
	}
	if !s.canonical() {
		outer, mid, inner := s.split()
		permute(s.data, outer, mid, inner, false)
	}

	return s, nil
}
