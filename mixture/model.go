package mixture

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/scribblekit/mixcut/pkg/errors"
)

// Model is the immutable result of a fit: per-class, per-component means,
// covariances and unnormalized mixing weights. The mixing weight of a
// component is the total responsibility mass assigned to it during fitting,
// a count-like quantity, not a probability.
//
// A Model is created once by Fitter, consumed read-only by Scorer, and may
// be handed back to a Fitter as a warm start. Accessors return copies.
type Model struct {
	nClasses    int
	nComponents int
	nDim        int

	means      [][]*mat.VecDense // [class][component]
	covs       [][]*mat.SymDense // [class][component]
	mixWeights [][]float64       // [class][component]
}

// NewModel assembles a Model from per-class parameters, validating the
// shape invariants: equal component counts across means, covariances and
// mixing weights, one dimensionality everywhere, nonnegative weights.
// All inputs are deep-copied.
func NewModel(means [][]*mat.VecDense, covs [][]*mat.SymDense, mixWeights [][]float64) (*Model, error) {
	nClasses := len(means)
	if nClasses == 0 {
		return nil, errors.NewValidationError("means", "at least one class is required", nClasses)
	}
	if len(covs) != nClasses || len(mixWeights) != nClasses {
		return nil, errors.NewDimensionError("NewModel", nClasses, len(covs), 0)
	}

	nComponents := len(means[0])
	if nComponents == 0 {
		return nil, errors.NewValidationError("means", "at least one component is required", nComponents)
	}
	nDim := means[0][0].Len()

	m := &Model{
		nClasses:    nClasses,
		nComponents: nComponents,
		nDim:        nDim,
		means:       make([][]*mat.VecDense, nClasses),
		covs:        make([][]*mat.SymDense, nClasses),
		mixWeights:  make([][]float64, nClasses),
	}

	for c := 0; c < nClasses; c++ {
		if len(means[c]) != nComponents || len(covs[c]) != nComponents || len(mixWeights[c]) != nComponents {
			return nil, errors.NewDimensionError("NewModel", nComponents, len(means[c]), 1)
		}
		m.means[c] = make([]*mat.VecDense, nComponents)
		m.covs[c] = make([]*mat.SymDense, nComponents)
		m.mixWeights[c] = make([]float64, nComponents)
		for k := 0; k < nComponents; k++ {
			if means[c][k].Len() != nDim {
				return nil, errors.NewDimensionError("NewModel", nDim, means[c][k].Len(), 1)
			}
			if covs[c][k].SymmetricDim() != nDim {
				return nil, errors.NewDimensionError("NewModel", nDim, covs[c][k].SymmetricDim(), 1)
			}
			if mixWeights[c][k] < 0 {
				return nil, errors.NewValidationError("mixWeights", "mixing weights must be nonnegative", mixWeights[c][k])
			}
			m.means[c][k] = mat.VecDenseCopyOf(means[c][k])
			m.covs[c][k] = mat.NewSymDense(nDim, nil)
			m.covs[c][k].CopySym(covs[c][k])
			m.mixWeights[c][k] = mixWeights[c][k]
		}
	}
	return m, nil
}

// NumClasses returns the number of classes the model was fitted for.
func (m *Model) NumClasses() int { return m.nClasses }

// NumComponents returns the mixture component count per class.
func (m *Model) NumComponents() int { return m.nComponents }

// Dims returns the feature dimensionality.
func (m *Model) Dims() int { return m.nDim }

// Mean returns a copy of the mean vector of one component.
func (m *Model) Mean(class, component int) *mat.VecDense {
	return mat.VecDenseCopyOf(m.means[class][component])
}

// Covariance returns a copy of the covariance matrix of one component.
func (m *Model) Covariance(class, component int) *mat.SymDense {
	cov := mat.NewSymDense(m.nDim, nil)
	cov.CopySym(m.covs[class][component])
	return cov
}

// MixWeight returns the unnormalized mixing weight of one component.
func (m *Model) MixWeight(class, component int) float64 {
	return m.mixWeights[class][component]
}

// MixWeights returns a copy of one class's mixing weights.
func (m *Model) MixWeights(class int) []float64 {
	out := make([]float64, m.nComponents)
	copy(out, m.mixWeights[class])
	return out
}

// modelJSON is the self-describing on-disk form: the three parameter
// arrays with explicit shape metadata. Covariances are stored row-major.
type modelJSON struct {
	Classes     int           `json:"classes"`
	Components  int           `json:"components"`
	Dims        int           `json:"dims"`
	Means       [][][]float64 `json:"means"`
	Covariances [][][]float64 `json:"covariances"`
	MixWeights  [][]float64   `json:"mix_weights"`
}

// EncodeJSON writes the model to w as JSON with shape metadata.
func (m *Model) EncodeJSON(w io.Writer) error {
	out := modelJSON{
		Classes:     m.nClasses,
		Components:  m.nComponents,
		Dims:        m.nDim,
		Means:       make([][][]float64, m.nClasses),
		Covariances: make([][][]float64, m.nClasses),
		MixWeights:  make([][]float64, m.nClasses),
	}
	for c := 0; c < m.nClasses; c++ {
		out.Means[c] = make([][]float64, m.nComponents)
		out.Covariances[c] = make([][]float64, m.nComponents)
		out.MixWeights[c] = m.MixWeights(c)
		for k := 0; k < m.nComponents; k++ {
			mean := make([]float64, m.nDim)
			copy(mean, m.means[c][k].RawVector().Data)
			out.Means[c][k] = mean

			cov := make([]float64, m.nDim*m.nDim)
			for i := 0; i < m.nDim; i++ {
				for j := 0; j < m.nDim; j++ {
					cov[i*m.nDim+j] = m.covs[c][k].At(i, j)
				}
			}
			out.Covariances[c][k] = cov
		}
	}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// DecodeJSON reads a model previously written by EncodeJSON, validating
// the declared shapes against the array contents.
func DecodeJSON(r io.Reader) (*Model, error) {
	var in modelJSON
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(err, "failed to decode model")
	}
	if in.Classes <= 0 || in.Components <= 0 || in.Dims <= 0 {
		return nil, errors.NewValidationError("model", "non-positive shape metadata", in)
	}
	if len(in.Means) != in.Classes || len(in.Covariances) != in.Classes || len(in.MixWeights) != in.Classes {
		return nil, errors.NewDimensionError("DecodeJSON", in.Classes, len(in.Means), 0)
	}

	means := make([][]*mat.VecDense, in.Classes)
	covs := make([][]*mat.SymDense, in.Classes)
	for c := 0; c < in.Classes; c++ {
		if len(in.Means[c]) != in.Components || len(in.Covariances[c]) != in.Components {
			return nil, errors.NewDimensionError("DecodeJSON", in.Components, len(in.Means[c]), 1)
		}
		means[c] = make([]*mat.VecDense, in.Components)
		covs[c] = make([]*mat.SymDense, in.Components)
		for k := 0; k < in.Components; k++ {
			if len(in.Means[c][k]) != in.Dims {
				return nil, errors.NewDimensionError("DecodeJSON", in.Dims, len(in.Means[c][k]), 1)
			}
			if len(in.Covariances[c][k]) != in.Dims*in.Dims {
				return nil, errors.NewDimensionError("DecodeJSON", in.Dims*in.Dims, len(in.Covariances[c][k]), 1)
			}
			means[c][k] = mat.NewVecDense(in.Dims, in.Means[c][k])
			sym := mat.NewSymDense(in.Dims, nil)
			for i := 0; i < in.Dims; i++ {
				for j := i; j < in.Dims; j++ {
					sym.SetSym(i, j, in.Covariances[c][k][i*in.Dims+j])
				}
			}
			covs[c][k] = sym
		}
	}
	return NewModel(means, covs, in.MixWeights)
}

// SaveJSON writes the model to a file.
func (m *Model) SaveJSON(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()
	return m.EncodeJSON(file)
}

// LoadJSON reads a model from a file written by SaveJSON.
func LoadJSON(filename string) (*Model, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return DecodeJSON(file)
}
