package errors

import (
	"testing"
)

func TestTypedErrorsSupportAs(t *testing.T) {
	err := Wrap(NewInsufficientDataError(2, 1, 3), "fitting")
	var insufficient *InsufficientDataError
	if !As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError through wrap, got %v", err)
	}
	if insufficient.Class != 2 || insufficient.Samples != 1 || insufficient.Required != 3 {
		t.Errorf("unexpected fields: %+v", insufficient)
	}

	err = NewOverfitError(1, 1e-9, 1e-7)
	var overfit *OverfitError
	if !As(err, &overfit) {
		t.Fatalf("expected OverfitError, got %v", err)
	}

	err = NewNumericalError("m-step", 0, 3, "covariance lost positive definiteness")
	var numerical *NumericalError
	if !As(err, &numerical) {
		t.Fatalf("expected NumericalError, got %v", err)
	}
	if numerical.Component != 3 {
		t.Errorf("component = %d, want 3", numerical.Component)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{
			NewInsufficientDataError(0, 2, 3),
			"mixcut: class 0 has 2 labeled samples, need at least 3; add more annotation",
		},
		{
			NewDimensionError("Scorer.Energies", 3, 2, 1),
			"mixcut: Scorer.Energies: dimension mismatch on axis 1 (features). Expected 3, got 2",
		},
		{
			NewUnsupportedConfigError("components", "palette defines at most 8 initial centers", 9),
			"mixcut: unsupported configuration for 'components': palette defines at most 8 initial centers (got: 9)",
		},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestCheckFinite(t *testing.T) {
	if err := CheckFinite("test", []float64{1, 2, 3}); err != nil {
		t.Errorf("finite values reported unstable: %v", err)
	}
	nan := 0.0
	nan /= nan
	if err := CheckFinite("test", []float64{1, nan}); err == nil {
		t.Error("NaN not detected")
	}
}
