package mixture

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/scribblekit/mixcut/pkg/errors"
)

// singleComponentModel builds a 2-class model with one component per
// class: class 0 at lo, class 1 at hi, unit covariance, mixing weight 1.
func singleComponentModel(t *testing.T, dim int, lo, hi float64) *Model {
	t.Helper()
	loVec := make([]float64, dim)
	hiVec := make([]float64, dim)
	for j := 0; j < dim; j++ {
		loVec[j] = lo
		hiVec[j] = hi
	}
	m, err := NewModel(
		[][]*mat.VecDense{
			{mat.NewVecDense(dim, loVec)},
			{mat.NewVecDense(dim, hiVec)},
		},
		[][]*mat.SymDense{
			{isotropicCov(dim, 1)},
			{isotropicCov(dim, 1)},
		},
		[][]float64{{1}, {1}},
	)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func TestScorer_Separation(t *testing.T) {
	m := singleComponentModel(t, 2, 0, 10)
	scorer, err := NewScorer(m)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	energies, err := scorer.Energies(mat.NewDense(2, 2, []float64{
		0.5, -0.5, // near class 0
		9.5, 10.5, // near class 1
	}), nil)
	if err != nil {
		t.Fatalf("Energies failed: %v", err)
	}

	if energies.At(0, 0) >= energies.At(0, 1) {
		t.Errorf("sample near class 0: energies (%v, %v) not ordered", energies.At(0, 0), energies.At(0, 1))
	}
	if energies.At(1, 1) >= energies.At(1, 0) {
		t.Errorf("sample near class 1: energies (%v, %v) not ordered", energies.At(1, 0), energies.At(1, 1))
	}
}

func TestScorer_Idempotence(t *testing.T) {
	m := singleComponentModel(t, 3, 10, 240)
	scorer, err := NewScorer(m)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	X := mat.NewDense(3, 3, []float64{
		5, 5, 5,
		128, 128, 128,
		250, 250, 250,
	})
	weights := []float64{1, 4, 9}

	first, err := scorer.Energies(X, weights)
	if err != nil {
		t.Fatalf("first Energies failed: %v", err)
	}
	second, err := scorer.Energies(X, weights)
	if err != nil {
		t.Fatalf("second Energies failed: %v", err)
	}
	if !mat.Equal(first, second) {
		t.Error("identical model and samples produced different energy matrices")
	}
}

// TestScorer_EnergyForm checks the closed form for a single-component
// class: energy = 0.5 * weight * mahalanobis^2 - log(mix).
func TestScorer_EnergyForm(t *testing.T) {
	m := singleComponentModel(t, 2, 0, 10)
	scorer, err := NewScorer(m)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	X := mat.NewDense(1, 2, []float64{3, 4})
	for _, w := range []float64{1, 2.5, 7} {
		energies, err := scorer.Energies(X, []float64{w})
		if err != nil {
			t.Fatalf("Energies failed: %v", err)
		}
		// Unit covariance: squared Mahalanobis distance to the origin is
		// 3^2 + 4^2 = 25; mixing weight 1 contributes log(1) = 0.
		want := 0.5 * w * 25
		if got := energies.At(0, 0); math.Abs(got-want) > 1e-9 {
			t.Errorf("weight %v: energy = %v, want %v", w, got, want)
		}
	}
}

// Scaling every mixing weight by a factor shifts the class energy by
// -log(factor): the weights act linearly inside the exponential sum.
func TestScorer_MixWeightsScaleLinearly(t *testing.T) {
	means := [][]*mat.VecDense{{
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewVecDense(2, []float64{4, 4}),
	}}
	covs := [][]*mat.SymDense{{isotropicCov(2, 1), isotropicCov(2, 1)}}

	base, err := NewModel(means, covs, [][]float64{{1, 3}})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	scaled, err := NewModel(means, covs, [][]float64{{5, 15}})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	X := mat.NewDense(1, 2, []float64{1, 2})

	baseScorer, err := NewScorer(base)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}
	scaledScorer, err := NewScorer(scaled)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	e1, err := baseScorer.Energies(X, nil)
	if err != nil {
		t.Fatalf("Energies failed: %v", err)
	}
	e2, err := scaledScorer.Energies(X, nil)
	if err != nil {
		t.Fatalf("Energies failed: %v", err)
	}

	if diff := e1.At(0, 0) - e2.At(0, 0); math.Abs(diff-math.Log(5)) > 1e-9 {
		t.Errorf("scaling mix weights by 5 shifted energy by %v, want log(5) = %v", diff, math.Log(5))
	}
}

func TestScorer_DimensionMismatch(t *testing.T) {
	m := singleComponentModel(t, 3, 10, 240)
	scorer, err := NewScorer(m)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	_, err = scorer.Energies(mat.NewDense(1, 2, []float64{5, 5}), nil)
	if err == nil {
		t.Fatal("expected dimension error for 2-dim samples on 3-dim model, got nil")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}

	_, err = scorer.Energies(mat.NewDense(2, 3, nil), []float64{1})
	if err == nil {
		t.Error("expected dimension error for short weight slice, got nil")
	}
}

func TestScorer_SingularCovariance(t *testing.T) {
	singular := mat.NewSymDense(2, []float64{1, 1, 1, 1}) // rank 1
	m, err := NewModel(
		[][]*mat.VecDense{{mat.NewVecDense(2, []float64{0, 0})}},
		[][]*mat.SymDense{{singular}},
		[][]float64{{1}},
	)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	_, err = NewScorer(m)
	if err == nil {
		t.Fatal("expected numerical error for singular covariance, got nil")
	}
	var numErr *errors.NumericalError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalError, got %v", err)
	}
}
