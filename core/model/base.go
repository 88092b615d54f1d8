// Package model holds the shared estimator machinery used by the mixture
// fitter.
package model

// EstimatorState represents the fitted state of an estimator.
type EstimatorState int

const (
	// NotFitted means the estimator has not produced a model yet.
	NotFitted EstimatorState = iota
	// Fitted means the estimator holds the result of a successful fit.
	Fitted
)

// BaseEstimator is embedded by estimators to track fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether a successful fit has completed.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
