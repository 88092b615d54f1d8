package mixture

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/scribblekit/mixcut/pkg/errors"
)

// Default fitting parameters. The damping factor keeps 80% of the previous
// parameter value on each M-step, slowing convergence to avoid the
// instability of full EM replacement on small scribble sets.
const (
	DefaultDamping          = 0.8
	DefaultOverfitThreshold = 1e-7
)

// Phase tags a solver snapshot as the result of an E-step or an M-step.
type Phase int

const (
	// PhaseEStep is a snapshot carrying negative log densities and
	// responsibilities.
	PhaseEStep Phase = iota
	// PhaseMStep is a snapshot carrying damped-updated means and
	// covariances.
	PhaseMStep
)

// Snapshot is the phase-tagged result of one solver step. E-step snapshots
// populate NLL and Resp; M-step snapshots populate Means and Covs. All
// payloads are copies detached from solver state.
type Snapshot struct {
	Phase Phase
	Cycle int

	NLL  *mat.Dense // components x samples, E-step only
	Resp *mat.Dense // components x samples, E-step only

	Means []*mat.VecDense // M-step only
	Covs  []*mat.SymDense // M-step only
}

// Solver fits an n-component Gaussian mixture to one class's samples with
// damped EM. It is an explicit step machine: each call to Step runs the
// next phase and returns its snapshot, alternating E-step and M-step
// without ever terminating on its own. The caller decides how many cycles
// to draw.
type Solver struct {
	samples   *mat.Dense
	nSamples  int
	nDim      int
	nComp     int
	damping   float64
	threshold float64

	means []*mat.VecDense
	covs  []*mat.SymDense

	// Per-run buffers, reused across steps.
	nll  *mat.Dense // components x samples
	resp *mat.Dense // components x samples

	next  Phase
	cycle int
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithDamping sets the fraction of the previous parameter value retained
// on each M-step update. Must be in [0, 1).
func WithDamping(damping float64) SolverOption {
	return func(s *Solver) {
		s.damping = damping
	}
}

// WithOverfitThreshold sets the responsibility mass below which a
// component is considered collapsed.
func WithOverfitThreshold(threshold float64) SolverOption {
	return func(s *Solver) {
		s.threshold = threshold
	}
}

// NewSolver creates a damped-EM solver over samples (n_samples x n_dim)
// with the given initial per-component means and covariances. The
// component count is taken from the initial parameters; all shapes must
// agree.
func NewSolver(samples mat.Matrix, means []*mat.VecDense, covs []*mat.SymDense, opts ...SolverOption) (*Solver, error) {
	nSamples, nDim := samples.Dims()
	if nSamples == 0 || nDim == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NewSolver")
	}

	nComp := len(means)
	if nComp == 0 {
		return nil, errors.NewValidationError("means", "at least one component is required", nComp)
	}
	if len(covs) != nComp {
		return nil, errors.NewValidationError("covs", "component count disagrees with means", len(covs))
	}
	for k := 0; k < nComp; k++ {
		if means[k].Len() != nDim {
			return nil, errors.NewDimensionError("NewSolver", nDim, means[k].Len(), 1)
		}
		if covs[k].SymmetricDim() != nDim {
			return nil, errors.NewDimensionError("NewSolver", nDim, covs[k].SymmetricDim(), 1)
		}
	}

	s := &Solver{
		samples:   mat.DenseCopyOf(samples),
		nSamples:  nSamples,
		nDim:      nDim,
		nComp:     nComp,
		damping:   DefaultDamping,
		threshold: DefaultOverfitThreshold,
		means:     make([]*mat.VecDense, nComp),
		covs:      make([]*mat.SymDense, nComp),
		nll:       mat.NewDense(nComp, nSamples, nil),
		resp:      mat.NewDense(nComp, nSamples, nil),
		next:      PhaseEStep,
	}
	for k := 0; k < nComp; k++ {
		s.means[k] = mat.VecDenseCopyOf(means[k])
		s.covs[k] = mat.NewSymDense(nDim, nil)
		s.covs[k].CopySym(covs[k])
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.damping < 0 || s.damping >= 1 {
		return nil, errors.NewValidationError("damping", "must be in [0, 1)", s.damping)
	}
	if s.threshold <= 0 {
		return nil, errors.NewValidationError("overfitThreshold", "must be positive", s.threshold)
	}
	return s, nil
}

// Step runs the next phase and returns its snapshot. The sequence is
// unbounded; the caller stops drawing when it has enough cycles.
func (s *Solver) Step() (Snapshot, error) {
	if s.next == PhaseEStep {
		return s.eStep()
	}
	return s.mStep()
}

// NumComponents returns the mixture component count.
func (s *Solver) NumComponents() int { return s.nComp }

// Means returns copies of the current component means.
func (s *Solver) Means() []*mat.VecDense {
	out := make([]*mat.VecDense, s.nComp)
	for k := range s.means {
		out[k] = mat.VecDenseCopyOf(s.means[k])
	}
	return out
}

// Covariances returns copies of the current component covariances.
func (s *Solver) Covariances() []*mat.SymDense {
	out := make([]*mat.SymDense, s.nComp)
	for k := range s.covs {
		out[k] = mat.NewSymDense(s.nDim, nil)
		out[k].CopySym(s.covs[k])
	}
	return out
}

// eStep computes, per component, the negative log density of every sample
// under the component's current Gaussian, then converts the densities into
// column-normalized responsibilities. Densities come from gonum's
// Cholesky-backed log pdf, so the accumulation stays in the log domain.
func (s *Solver) eStep() (Snapshot, error) {
	row := make([]float64, s.nDim)
	for k := 0; k < s.nComp; k++ {
		normal, ok := distmv.NewNormal(s.means[k].RawVector().Data, s.covs[k], nil)
		if !ok {
			return Snapshot{}, errors.NewNumericalError("e-step", -1, k, "covariance is not positive definite")
		}
		for i := 0; i < s.nSamples; i++ {
			mat.Row(row, i, s.samples)
			s.nll.Set(k, i, -normal.LogProb(row))
		}
	}

	// Normalize exp(-nll) per sample. Shifting by the per-sample minimum
	// nll leaves the normalized responsibilities unchanged but keeps the
	// exponentials from underflowing on distant samples.
	for i := 0; i < s.nSamples; i++ {
		minNLL := math.Inf(1)
		for k := 0; k < s.nComp; k++ {
			if v := s.nll.At(k, i); v < minNLL {
				minNLL = v
			}
		}
		var sum float64
		for k := 0; k < s.nComp; k++ {
			z := math.Exp(minNLL - s.nll.At(k, i))
			s.resp.Set(k, i, z)
			sum += z
		}
		for k := 0; k < s.nComp; k++ {
			s.resp.Set(k, i, s.resp.At(k, i)/sum)
		}
	}

	s.next = PhaseMStep
	return Snapshot{
		Phase: PhaseEStep,
		Cycle: s.cycle,
		NLL:   mat.DenseCopyOf(s.nll),
		Resp:  mat.DenseCopyOf(s.resp),
	}, nil
}

// mStep recomputes each component's responsibility-weighted mean and
// population covariance, then blends them into the previous parameters:
// new = damping*old + (1-damping)*computed. A component whose
// responsibility mass collapsed is a fatal overfit; a covariance that lost
// positive-definiteness after the update is a fatal numerical failure.
// Every component is validated, not only the last updated one.
func (s *Solver) mStep() (Snapshot, error) {
	for k := 0; k < s.nComp; k++ {
		var mass float64
		for i := 0; i < s.nSamples; i++ {
			mass += s.resp.At(k, i)
		}
		if mass < s.threshold {
			return Snapshot{}, errors.NewOverfitError(k, mass, s.threshold)
		}

		mean := make([]float64, s.nDim)
		for i := 0; i < s.nSamples; i++ {
			z := s.resp.At(k, i)
			for j := 0; j < s.nDim; j++ {
				mean[j] += z * s.samples.At(i, j)
			}
		}
		for j := 0; j < s.nDim; j++ {
			mean[j] /= mass
		}

		cov := mat.NewSymDense(s.nDim, nil)
		dev := make([]float64, s.nDim)
		for i := 0; i < s.nSamples; i++ {
			z := s.resp.At(k, i)
			for j := 0; j < s.nDim; j++ {
				dev[j] = s.samples.At(i, j) - mean[j]
			}
			for p := 0; p < s.nDim; p++ {
				for q := p; q < s.nDim; q++ {
					cov.SetSym(p, q, cov.At(p, q)+z*dev[p]*dev[q])
				}
			}
		}
		for p := 0; p < s.nDim; p++ {
			for q := p; q < s.nDim; q++ {
				cov.SetSym(p, q, cov.At(p, q)/mass)
			}
		}

		for j := 0; j < s.nDim; j++ {
			s.means[k].SetVec(j, s.damping*s.means[k].AtVec(j)+(1-s.damping)*mean[j])
		}
		for p := 0; p < s.nDim; p++ {
			for q := p; q < s.nDim; q++ {
				s.covs[k].SetSym(p, q, s.damping*s.covs[k].At(p, q)+(1-s.damping)*cov.At(p, q))
			}
		}
	}

	var chol mat.Cholesky
	for k := 0; k < s.nComp; k++ {
		if !chol.Factorize(s.covs[k]) {
			return Snapshot{}, errors.NewNumericalError("m-step", -1, k, "covariance lost positive definiteness")
		}
	}

	s.next = PhaseEStep
	s.cycle++
	return Snapshot{
		Phase: PhaseMStep,
		Cycle: s.cycle - 1,
		Means: s.Means(),
		Covs:  s.Covariances(),
	}, nil
}
