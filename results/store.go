// SPDX-License-Identifier: MIT

package results

import (
	"fmt"

	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/signal"
)

// Store keeps one Result per analysis target. The zero Store is empty and
// ready to use.
type Store struct {
	slots [2]*Result
}

func slot(t signal.AnalysisTarget) (int, error) {
	switch t {
	case signal.TargetSignal, signal.TargetPeakCharacteristics:
		return int(t), nil
	default:
		return 0, mvaerr.Usagef(mvaerr.ErrUsage, "unknown analysis target %s", t)
	}
}

// Get returns the stored result for t.
// Errors: ErrNoDecomposition when the slot is empty.
func (s *Store) Get(t signal.AnalysisTarget) (*Result, error) {
	i, err := slot(t)
	if err != nil {
		return nil, err
	}
	if s.slots[i] == nil {
		return nil, fmt.Errorf("%s: %w", t, mvaerr.ErrNoDecomposition)
	}

	return s.slots[i], nil
}

// Set replaces the result for t.
func (s *Store) Set(t signal.AnalysisTarget, r *Result) error {
	i, err := slot(t)
	if err != nil {
		return err
	}
	s.slots[i] = r

	return nil
}

// Discard empties the slot for t. Discarding an empty slot is a no-op.
func (s *Store) Discard(t signal.AnalysisTarget) {
	if i, err := slot(t); err == nil {
		s.slots[i] = nil
	}
}
