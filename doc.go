// Package mixcut provides per-class Gaussian mixture appearance models for
// interactive multi-label image segmentation built on graph cuts.
//
// Given color or feature samples labeled by user scribbles, mixcut fits one
// mixture per class with a damped EM variant and scores new samples against
// all classes, producing the per-sample, per-class energies consumed as the
// unary term of a graph-cut optimizer. Graph construction, the min-cut
// solver, superpixel extraction and the annotation UI live outside this
// module.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/scribblekit/mixcut/mixture"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // Scribbled samples: two classes in RGB space.
//	    X := mat.NewDense(6, 3, []float64{
//	        10, 12, 9,
//	        11, 10, 10,
//	        9, 9, 11,
//	        240, 238, 241,
//	        239, 241, 240,
//	        241, 240, 239,
//	    })
//	    labels := []int{0, 0, 0, 1, 1, 1}
//
//	    fitter := mixture.NewFitter(2, mixture.WithComponents(2))
//	    model, err := fitter.Fit(X, labels)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    scorer, err := mixture.NewScorer(model)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    energies, err := scorer.Energies(mat.NewDense(1, 3, []float64{5, 5, 5}), nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(energies.At(0, 0) < energies.At(0, 1)) // true
//	}
//
// The returned model is immutable and can be passed back to a fitter as a
// warm start while the user refines scribbles between graph-cut rounds.
package mixcut
