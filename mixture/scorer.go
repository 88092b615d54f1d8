package mixture

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/scribblekit/mixcut/core/parallel"
	"github.com/scribblekit/mixcut/pkg/errors"
)

// Sample counts below this are scored sequentially.
const scoreParallelThreshold = 256

// Scorer computes per-sample, per-class energies from a fitted Model for
// use as graph-cut unary costs. The energy deliberately omits the Gaussian
// normalizing constant, so values are meaningful only relative to each
// other, never as true log likelihoods.
//
// Covariance factorizations are cached at construction, so one Scorer can
// score any number of batches against the same model.
type Scorer struct {
	model  *Model
	chols  [][]*mat.Cholesky // [class][component]
	logMix [][]float64       // [class][component]
}

// NewScorer precomputes the per-component Cholesky factorizations of the
// model's covariances. A covariance that is singular or otherwise not
// positive definite fails here with a NumericalError instead of letting
// non-finite values propagate into the energies.
func NewScorer(m *Model) (*Scorer, error) {
	sc := &Scorer{
		model:  m,
		chols:  make([][]*mat.Cholesky, m.NumClasses()),
		logMix: make([][]float64, m.NumClasses()),
	}
	for c := 0; c < m.NumClasses(); c++ {
		sc.chols[c] = make([]*mat.Cholesky, m.NumComponents())
		sc.logMix[c] = make([]float64, m.NumComponents())
		for k := 0; k < m.NumComponents(); k++ {
			chol := &mat.Cholesky{}
			if !chol.Factorize(m.covs[c][k]) {
				return nil, errors.NewNumericalError("scorer", c, k, "covariance is singular or not positive definite")
			}
			sc.chols[c][k] = chol
			// log(0) = -Inf drops the component out of the log-sum-exp,
			// matching a zero linear weight.
			sc.logMix[c][k] = math.Log(m.mixWeights[c][k])
		}
	}
	return sc, nil
}

// Energies scores samples X (n_samples x n_dim) against every class.
//
// weights gives the number of original observations each sample aggregates
// (e.g. superpixel area) and scales that sample's energy linearly; nil
// means one observation per sample. The result is an n_samples x n_classes
// matrix where lower means a better fit; no cross-class normalization is
// applied.
func (sc *Scorer) Energies(X mat.Matrix, weights []float64) (*mat.Dense, error) {
	nSamples, nDim := X.Dims()
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Scorer.Energies")
	}
	if nDim != sc.model.Dims() {
		return nil, errors.NewDimensionError("Scorer.Energies", sc.model.Dims(), nDim, 1)
	}
	if weights != nil && len(weights) != nSamples {
		return nil, errors.NewDimensionError("Scorer.Energies", nSamples, len(weights), 0)
	}

	nClasses := sc.model.NumClasses()
	nComp := sc.model.NumComponents()
	energies := mat.NewDense(nSamples, nClasses, nil)

	parallel.ParallelizeWithThreshold(nSamples, scoreParallelThreshold, func(start, end int) {
		row := make([]float64, nDim)
		terms := make([]float64, nComp)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			x := mat.NewVecDense(nDim, row)
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			for c := 0; c < nClasses; c++ {
				for k := 0; k < nComp; k++ {
					d := stat.Mahalanobis(x, sc.model.means[c][k], sc.chols[c][k])
					terms[k] = sc.logMix[c][k] - 0.5*w*d*d
				}
				energies.Set(i, c, -floats.LogSumExp(terms))
			}
		}
	})
	return energies, nil
}
