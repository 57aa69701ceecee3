// SPDX-License-Identifier: MIT

package decomposition

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// Algorithm enumerates the PCA back-ends.
type Algorithm int

const (
	SVD Algorithm = iota
	FastSVD
	MDP
	NIPALS
	MLPCA
	FastMLPCA
)

var algorithmNames = [...]string{
	SVD:       "svd",
	FastSVD:   "fast_svd",
	MDP:       "mdp",
	NIPALS:    "nipals",
	MLPCA:     "mlpca",
	FastMLPCA: "fast_mlpca",
}

func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(algorithmNames) {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}

	return algorithmNames[a]
}

// ParseAlgorithm maps a tag (case-insensitive) to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	l := strings.ToLower(strings.TrimSpace(s))
	for i, name := range algorithmNames {
		if name == l {
			return Algorithm(i), nil
		}
	}

	return 0, mvaerr.Usagef(mvaerr.ErrUnknownAlgorithm, "PCA algorithm %q", s)
}

// RequiresCentering reports whether the back-end always centers its input.
func (a Algorithm) RequiresCentering() bool { return a == MDP || a == NIPALS }

// IsMaximumLikelihood reports whether a is one of the ML-PCA variants.
func (a Algorithm) IsMaximumLikelihood() bool { return a == MLPCA || a == FastMLPCA }

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v

	return nil
}

// decomposers is the fixed dispatch table.
var decomposers = map[Algorithm]Decomposer{
	SVD:       svdDecomposer{},
	FastSVD:   fastSVDDecomposer{},
	MDP:       mdpDecomposer{},
	NIPALS:    nipalsDecomposer{},
	MLPCA:     mlpcaDecomposer{fast: false},
	FastMLPCA: mlpcaDecomposer{fast: true},
}
