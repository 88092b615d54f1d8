package errors

import (
	"math"
)

// CheckFinite checks values for NaN or Inf and returns a NumericalError
// attributed to op if instability is detected.
func CheckFinite(op string, values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalError(op, -1, -1, "non-finite value encountered")
		}
	}
	return nil
}

// CheckFiniteMatrix checks all entries of a matrix for NaN or Inf.
func CheckFiniteMatrix(op string, m interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewNumericalError(op, -1, -1, "non-finite matrix entry")
			}
		}
	}
	return nil
}
