// SPDX-License-Identifier: MIT

package results

import (
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/katalvlaran/lvlath-mva/decomposition"
	"github.com/katalvlaran/lvlath-mva/ica"
	"github.com/katalvlaran/lvlath-mva/matrix"
	"github.com/katalvlaran/lvlath-mva/mvaerr"
)

// archive is the on-disk document. Keys are stable across versions; older
// documents may lack the flags and output_dimension, or carry the
// pre-rename key "algorithm".
type archive struct {
	PC                *denseDoc `bson:"pc,omitempty"`
	V                 *denseDoc `bson:"v,omitempty"`
	Magnitudes        []float64 `bson:"V,omitempty"`
	PCAAlgorithm      string    `bson:"pca_algorithm,omitempty"`
	LegacyAlgorithm   string    `bson:"algorithm,omitempty"`
	Centered          bool      `bson:"centered"`
	OutputDimension   *int      `bson:"output_dimension,omitempty"`
	Variance2One      bool      `bson:"variance2one"`
	PoissonNormalized bool      `bson:"poissonian_noise_normalized"`
	W                 *denseDoc `bson:"w,omitempty"`
	ICAAlgorithm      string    `bson:"ica_algorithm,omitempty"`
	ICAComponents     []int     `bson:"ica_components,omitempty"`
	Mean              []float64 `bson:"mean,omitempty"`
}

type denseDoc struct {
	Rows int       `bson:"rows"`
	Cols int       `bson:"cols"`
	Data []float64 `bson:"data"`
}

func toDoc(m *matrix.Dense) *denseDoc {
	if m == nil {
		return nil
	}

	return &denseDoc{Rows: m.Rows(), Cols: m.Cols(), Data: append([]float64(nil), m.Raw()...)}
}

func (d *denseDoc) dense(key string) (*matrix.Dense, error) {
	if d == nil {
		return nil, nil
	}
	if d.Rows < 0 || d.Cols < 0 || d.Rows*d.Cols != len(d.Data) {
		return nil, mvaerr.Usagef(mvaerr.ErrShapeMismatch,
			"archive key %q: %d×%d with %d values", key, d.Rows, d.Cols, len(d.Data))
	}

	return matrix.Wrap(d.Rows, d.Cols, d.Data)
}

// MarshalBSON encodes the persisted subset of r.
func (r *Result) MarshalBSON() ([]byte, error) {
	a := archive{
		PC:                toDoc(r.Factors),
		V:                 toDoc(r.Scores),
		Magnitudes:        r.Magnitudes,
		PCAAlgorithm:      r.PCAAlgorithm.String(),
		Centered:          r.Centered,
		OutputDimension:   r.OutputDimension,
		Variance2One:      r.Variance2One,
		PoissonNormalized: r.PoissonNormalized,
		Mean:              r.Mean,
	}
	if r.HasICA() {
		a.W = toDoc(r.Unmixing)
		a.ICAAlgorithm = r.ICAAlgorithm.String()
		a.ICAComponents = r.ICAComponents
	}

	return bson.Marshal(a)
}

// UnmarshalBSON decodes an archive into r, back-filling defaults for keys
// older archives lack. When an unmixing matrix is present, the independent
// components and their scores are recomputed from the leading factors.
func (r *Result) UnmarshalBSON(data []byte) error {
	var a archive
	if err := bson.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("results: decode archive: %w", err)
	}
	name := a.PCAAlgorithm
	if name == "" {
		name = a.LegacyAlgorithm
	}
	out := Result{
		Magnitudes:        a.Magnitudes,
		Centered:          a.Centered,
		OutputDimension:   a.OutputDimension,
		Variance2One:      a.Variance2One,
		PoissonNormalized: a.PoissonNormalized,
		Mean:              a.Mean,
	}
	if name != "" {
		algo, err := decomposition.ParseAlgorithm(name)
		if err != nil {
			return err
		}
		out.PCAAlgorithm = algo
	}

	var err error
	if out.Factors, err = a.PC.dense("pc"); err != nil {
		return err
	}
	if out.Scores, err = a.V.dense("v"); err != nil {
		return err
	}
	if out.Unmixing, err = a.W.dense("w"); err != nil {
		return err
	}
	if out.Unmixing != nil {
		if a.ICAAlgorithm != "" {
			if out.ICAAlgorithm, err = ica.ParseAlgorithm(a.ICAAlgorithm); err != nil {
				return err
			}
		}
		if err = out.rederiveICA(a.ICAComponents); err != nil {
			return err
		}
	}
	*r = out

	return nil
}

// rederiveICA rebuilds ICAFactors and ICAScores for the unmixed components.
// Archives without a component list unmixed the first k, k being the size of
// the unmixing matrix.
func (r *Result) rederiveICA(components []int) error {
	k := r.Unmixing.Rows()
	if r.Unmixing.Cols() != k {
		return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "unmixing matrix is %d×%d", k, r.Unmixing.Cols())
	}
	if components == nil {
		components = seq(k)
	}
	if len(components) != k {
		return mvaerr.Usagef(mvaerr.ErrShapeMismatch, "%d ICA components for a %d×%d unmixing matrix", len(components), k, k)
	}
	r.ICAComponents = append([]int(nil), components...)
	hi := -1
	for _, c := range r.ICAComponents {
		if c < 0 {
			return mvaerr.Usagef(mvaerr.ErrInvalidSelection, "ICA component %d", c)
		}
		hi = max(hi, c)
	}
	if r.Factors == nil || hi >= r.Factors.Cols() {
		return nil
	}
	fSel, err := r.Factors.Induced(seq(r.Factors.Rows()), r.ICAComponents)
	if err != nil {
		return err
	}
	wt, err := matrix.Transpose(r.Unmixing)
	if err != nil {
		return err
	}
	if r.ICAFactors, err = matrix.Mul(fSel, wt); err != nil {
		return err
	}
	if r.Scores == nil || hi >= r.Scores.Cols() {
		return nil
	}
	sSel, err := r.Scores.Induced(seq(r.Scores.Rows()), r.ICAComponents)
	if err != nil {
		return err
	}
	winv, err := matrix.Inverse(r.Unmixing)
	if err != nil {
		return mvaerr.Usagef(mvaerr.ErrDegenerateComponents, "unmixing matrix: %v", err)
	}
	r.ICAScores, err = matrix.Mul(sSel, winv)

	return err
}

// Save writes r as a BSON archive.
func (r *Result) Save(w io.Writer) error {
	data, err := r.MarshalBSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)

	return err
}

// Load reads one BSON archive.
func Load(rd io.Reader) (*Result, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	r := new(Result)
	if err = r.UnmarshalBSON(data); err != nil {
		return nil, err
	}

	return r, nil
}
