// SPDX-License-Identifier: MIT

package signal

import "github.com/katalvlaran/lvlath-mva/mvaerr"

// Treatment is a scoped backup of one analysis target. While it is
// outstanding the target buffer may be mutated freely; Restore puts back the
// data and the fold state captured at Begin. Only one Treatment per Signal may
// be outstanding.
//
// Typical use:
//
//	tr, err := s.BeginTreatment(signal.TargetSignal)
//	if err != nil { return err }
//	defer tr.Restore()
type Treatment struct {
	s        *Signal
	target   AnalysisTarget
	backup   []float64
	shape    []int
	axis     int
	unfolded *unfoldRecord
	done     bool
}

// BeginTreatment snapshots the target buffer.
//
// Errors:
//   - ErrTreatmentInProgress when another Treatment is outstanding.
//   - ErrUsage when the target has no data.
func (s *Signal) BeginTreatment(target AnalysisTarget) (*Treatment, error) {
	if s.treatment != nil {
		return nil, mvaerr.ErrTreatmentInProgress
	}
	t := &Treatment{s: s, target: target}
	switch target {
	case TargetSignal:
		t.backup = append([]float64(nil), s.data...)
		t.shape = append([]int(nil), s.shape...)
		t.axis = s.axis
		t.unfolded = s.unfolded
	case TargetPeakCharacteristics:
		if s.peaks == nil {
			return nil, mvaerr.Usagef(mvaerr.ErrUsage, "no peak characteristics attached")
		}
		t.backup = append([]float64(nil), s.peaks.Raw()...)
	default:
		return nil, mvaerr.Usagef(mvaerr.ErrUsage, "unknown analysis target %v", target)
	}
	s.treatment = t

	return t, nil
}

// Restore copies the backup into the target and releases the guard.
// Calling it more than once is a no-op.
func (t *Treatment) Restore() {
	if t.done {
		return
	}
	t.done = true
	s := t.s
	switch t.target {
	case TargetSignal:
		copy(s.data, t.backup)
		s.shape, s.axis, s.unfolded = t.shape, t.axis, t.unfolded
	case TargetPeakCharacteristics:
		copy(s.peaks.Raw(), t.backup)
	}
	s.treatment = nil
}
