// Package mixture fits and scores per-class Gaussian mixture appearance
// models for graph-cut segmentation.
//
// Fitter drives a damped-EM Solver once per class over scribble-labeled
// samples and assembles the immutable Model; Scorer turns a Model plus
// fresh samples into the per-sample, per-class energy matrix consumed by
// an external graph-cut optimizer. Fitting classes is fanned out across
// workers; everything else is synchronous and free of shared state.
package mixture
