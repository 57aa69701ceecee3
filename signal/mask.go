// SPDX-License-Identifier: MIT

package signal

import (
	"fmt"

	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// Mask selects navigation positions or signal samples (true = use).
//
// The zero Mask is "unset": it selects everything and reports IsUnset() == true.
// An unset mask stays unset when handed back to callers unless a step
// explicitly excludes a position (Exclude), which makes it concrete.
// A mask may carry the navigation shape it was built for; Flatten checks that
// shape against the signal and drops it.
type Mask struct {
	bits  []bool
	shape []int
	set   bool
}

// NewMask returns a concrete mask holding a copy of bits.
func NewMask(bits []bool) Mask {
	cp := make([]bool, len(bits))
	copy(cp, bits)

	return Mask{bits: cp, set: true}
}

// NewShapedMask returns a concrete navigation mask given in navigation shape,
// bits listed row-major.
func NewShapedMask(shape []int, bits []bool) (Mask, error) {
	if prod(shape) != len(bits) {
		return Mask{}, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "mask shape %v does not hold %d values", shape, len(bits))
	}
	m := NewMask(bits)
	m.shape = append([]int(nil), shape...)

	return m, nil
}

// AllOf returns an unset mask resolved to length n (every position selected).
func AllOf(n int) Mask {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = true
	}

	return Mask{bits: bits}
}

// IsUnset reports whether the mask was never made concrete.
func (m Mask) IsUnset() bool { return !m.set }

// Len is the number of positions the mask covers (0 for an unresolved unset mask).
func (m Mask) Len() int { return len(m.bits) }

// At reports whether position i is selected. An unresolved unset mask selects everything.
func (m Mask) At(i int) bool {
	if m.bits == nil {
		return true
	}

	return m.bits[i]
}

// Bits returns a copy of the boolean array.
func (m Mask) Bits() []bool {
	return append([]bool(nil), m.bits...)
}

// Resolve returns a mask of exactly n positions. An unresolved unset mask
// becomes AllOf(n); a concrete mask must already hold n positions.
func (m Mask) Resolve(n int) (Mask, error) {
	if m.bits == nil {
		return AllOf(n), nil
	}
	if len(m.bits) != n {
		return Mask{}, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "mask has %d positions, want %d", len(m.bits), n)
	}
	out := Mask{bits: append([]bool(nil), m.bits...), set: m.set}
	out.shape = append([]int(nil), m.shape...)

	return out, nil
}

// Flatten checks a shaped navigation mask against navShape and returns the
// flat mask in unfold order. Unshaped masks are returned as is.
func (m Mask) Flatten(navShape []int) (Mask, error) {
	if m.shape == nil {
		return m, nil
	}
	if !equalInts(m.shape, navShape) {
		return Mask{}, mvaerr.Usagef(mvaerr.ErrShapeMismatch, "mask shape %v, navigation shape %v", m.shape, navShape)
	}

	return Mask{bits: append([]bool(nil), m.bits...), set: m.set}, nil
}

// Exclude deselects position i and makes the mask concrete.
func (m *Mask) Exclude(i int) {
	m.bits[i] = false
	m.set = true
}

// Indices lists the selected positions in ascending order.
func (m Mask) Indices() []int {
	out := make([]int, 0, len(m.bits))
	for i, b := range m.bits {
		if b {
			out = append(out, i)
		}
	}

	return out
}

// Count is the number of selected positions.
func (m Mask) Count() int {
	var n int
	for _, b := range m.bits {
		if b {
			n++
		}
	}

	return n
}

// String renders the mask for diagnostics.
func (m Mask) String() string {
	if m.IsUnset() {
		return fmt.Sprintf("Mask(unset, %d)", len(m.bits))
	}

	return fmt.Sprintf("Mask(%d/%d)", m.Count(), len(m.bits))
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func prod(shape []int) int {
	p := 1
	for _, d := range shape {
		p *= d
	}

	return p
}
