package mixture

import (
	"context"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/scribblekit/mixcut/core/model"
	"github.com/scribblekit/mixcut/core/parallel"
	"github.com/scribblekit/mixcut/pkg/errors"
	mixlog "github.com/scribblekit/mixcut/pkg/log"
)

const (
	// DefaultComponents is the mixture component count used when no warm
	// start supplies one.
	DefaultComponents = 4

	// DefaultCycles is the number of full E/M cycles drawn per class.
	DefaultCycles = 10

	// MinSamplesPerClass is the smallest scribble count a class can be
	// fitted from.
	MinSamplesPerClass = 3
)

// Fitter fits one Gaussian mixture per class from labeled samples and
// assembles them into a Model. Classes are fitted concurrently; within a
// class the EM cycles are strictly sequential.
type Fitter struct {
	model.BaseEstimator

	nClasses    int
	nComponents int
	cycles      int
	damping     float64
	threshold   float64
	warmStart   *Model
	init        Initializer
	logger      *slog.Logger

	model_ *Model
}

// FitterOption configures a Fitter.
type FitterOption func(*Fitter)

// WithComponents sets the mixture component count. Ignored when a warm
// start supplies the component count instead.
func WithComponents(n int) FitterOption {
	return func(f *Fitter) {
		f.nComponents = n
	}
}

// WithCycles sets the number of E/M cycles per class.
func WithCycles(n int) FitterOption {
	return func(f *Fitter) {
		f.cycles = n
	}
}

// WithFitterDamping sets the solver damping factor.
func WithFitterDamping(damping float64) FitterOption {
	return func(f *Fitter) {
		f.damping = damping
	}
}

// WithFitterOverfitThreshold sets the solver's collapsed-component
// threshold.
func WithFitterOverfitThreshold(threshold float64) FitterOption {
	return func(f *Fitter) {
		f.threshold = threshold
	}
}

// WithWarmStart seeds the fit from a previously fitted model's means and
// covariances. The component count is inferred from the model and the
// initializer is bypassed.
func WithWarmStart(m *Model) FitterOption {
	return func(f *Fitter) {
		f.warmStart = m
	}
}

// WithInitializer replaces the default palette initializer.
func WithInitializer(init Initializer) FitterOption {
	return func(f *Fitter) {
		f.init = init
	}
}

// WithLogger sets the structured logger used for fit progress.
func WithLogger(logger *slog.Logger) FitterOption {
	return func(f *Fitter) {
		f.logger = logger
	}
}

// NewFitter creates a Fitter for nClasses classes.
func NewFitter(nClasses int, opts ...FitterOption) *Fitter {
	f := &Fitter{
		nClasses:    nClasses,
		nComponents: DefaultComponents,
		cycles:      DefaultCycles,
		damping:     DefaultDamping,
		threshold:   DefaultOverfitThreshold,
		init:        NewPaletteInitializer(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit fits one mixture per class from samples X (n_samples x n_dim) and
// integer labels in [0, nClasses-1], returning the assembled Model.
//
// A class with fewer than MinSamplesPerClass samples aborts the whole fit
// with an InsufficientDataError; no partial model is ever returned. Solver
// failures (OverfitError, NumericalError) propagate unchanged.
func (f *Fitter) Fit(X mat.Matrix, labels []int) (*Model, error) {
	return f.FitContext(context.Background(), X, labels)
}

// FitContext is Fit with cooperative cancellation: the per-class cycle
// loops check ctx between cycles, so a slow fit on a large scribble set
// can be abandoned between iterations.
func (f *Fitter) FitContext(ctx context.Context, X mat.Matrix, labels []int) (*Model, error) {
	start := time.Now()

	nSamples, nDim := X.Dims()
	if nSamples == 0 || nDim == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Fitter.Fit")
	}
	if len(labels) != nSamples {
		return nil, errors.NewDimensionError("Fitter.Fit", nSamples, len(labels), 0)
	}
	if f.nClasses < 1 {
		return nil, errors.NewValidationError("nClasses", "must be at least 1", f.nClasses)
	}
	for i, l := range labels {
		if l < 0 || l >= f.nClasses {
			return nil, errors.NewValidationError("labels", "label out of class range", map[string]int{"index": i, "label": l})
		}
	}

	nComp := f.nComponents
	if f.warmStart != nil {
		if f.warmStart.NumClasses() != f.nClasses {
			return nil, errors.NewValidationError("warmStart", "class count disagrees with fitter", f.warmStart.NumClasses())
		}
		if f.warmStart.Dims() != nDim {
			return nil, errors.NewDimensionError("Fitter.Fit", f.warmStart.Dims(), nDim, 1)
		}
		nComp = f.warmStart.NumComponents()
	}
	if nComp < 1 {
		return nil, errors.NewValidationError("components", "must be at least 1", nComp)
	}
	if f.cycles < 1 {
		return nil, errors.NewValidationError("cycles", "must be at least 1", f.cycles)
	}

	f.logger.Info("fitting appearance model",
		mixlog.OperationKey, "fit",
		mixlog.ClassesKey, f.nClasses,
		mixlog.ComponentsKey, nComp,
		mixlog.SamplesKey, nSamples,
		mixlog.FeaturesKey, nDim,
	)

	byClass := make([][]int, f.nClasses)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}

	means := make([][]*mat.VecDense, f.nClasses)
	covs := make([][]*mat.SymDense, f.nClasses)
	mixWeights := make([][]float64, f.nClasses)
	errs := make([]error, f.nClasses)

	parallel.ForEachIndex(f.nClasses, func(c int) {
		means[c], covs[c], mixWeights[c], errs[c] = f.fitClass(ctx, X, byClass[c], c, nComp, nDim)
	})

	for c := 0; c < f.nClasses; c++ {
		if errs[c] != nil {
			return nil, errs[c]
		}
	}

	fitted, err := NewModel(means, covs, mixWeights)
	if err != nil {
		return nil, err
	}
	f.model_ = fitted
	f.SetFitted()

	f.logger.Info("appearance model fitted",
		mixlog.OperationKey, "fit",
		mixlog.ClassesKey, f.nClasses,
		mixlog.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return fitted, nil
}

// Model returns the result of the last successful fit, or nil.
func (f *Fitter) Model() *Model {
	return f.model_
}

// fitClass runs the solver for one class: initial parameters, the fixed
// cycle count, then one extra E-step whose responsibility row sums become
// the mixing weights.
func (f *Fitter) fitClass(ctx context.Context, X mat.Matrix, indices []int, class, nComp, nDim int) ([]*mat.VecDense, []*mat.SymDense, []float64, error) {
	classSamples := mat.NewDense(max(len(indices), 1), nDim, nil)
	for r, i := range indices {
		for j := 0; j < nDim; j++ {
			classSamples.Set(r, j, X.At(i, j))
		}
	}

	var (
		initMeans []*mat.VecDense
		initCovs  []*mat.SymDense
		err       error
	)
	if f.warmStart != nil {
		initMeans = make([]*mat.VecDense, nComp)
		initCovs = make([]*mat.SymDense, nComp)
		for k := 0; k < nComp; k++ {
			initMeans[k] = f.warmStart.Mean(class, k)
			initCovs[k] = f.warmStart.Covariance(class, k)
		}
	} else {
		initMeans, initCovs, err = f.init.Init(classSamples, nComp)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if len(indices) < MinSamplesPerClass {
		return nil, nil, nil, errors.NewInsufficientDataError(class, len(indices), MinSamplesPerClass)
	}

	solver, err := NewSolver(classSamples, initMeans, initCovs,
		WithDamping(f.damping), WithOverfitThreshold(f.threshold))
	if err != nil {
		return nil, nil, nil, err
	}

	var last Snapshot
	for cycle := 0; cycle < f.cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, errors.Wrapf(err, "fit canceled at class %d cycle %d", class, cycle)
		}
		if _, err := solver.Step(); err != nil {
			return nil, nil, nil, err
		}
		last, err = solver.Step()
		if err != nil {
			return nil, nil, nil, err
		}
	}

	// One extra E-step so the mixing weights reflect the final parameters.
	final, err := solver.Step()
	if err != nil {
		return nil, nil, nil, err
	}
	mix := make([]float64, nComp)
	for k := 0; k < nComp; k++ {
		for i := 0; i < len(indices); i++ {
			mix[k] += final.Resp.At(k, i)
		}
	}

	f.logger.Debug("class fitted",
		mixlog.OperationKey, "fit",
		mixlog.ClassKey, class,
		mixlog.SamplesKey, len(indices),
		mixlog.CycleKey, f.cycles,
	)
	return last.Means, last.Covs, mix, nil
}
