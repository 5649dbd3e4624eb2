package fairloop

import (
	"fmt"
	"math"
	"slices"
)

// ComputeGini returns the Gini coefficient of a vote collection.
//
// With the votes sorted ascending (x₁ ≤ x₂ ≤ … ≤ xₙ) and 1-based rank i:
//
//	G = Σ (2i − n − 1)·xᵢ / (n · Σ xᵢ)
//
// Interpretation:
//   - G = 0:   every voter holds the same weight
//   - G → 1:   one voter holds (almost) everything
//   - [1, 2, 3, 10] → 0.4375
//
// An empty collection scores 0, and so does any collection of equal votes. A negative or non-finite vote yields a
// *ValidationError. A non-empty collection summing to zero yields
// ErrDegenerateInput rather than NaN.
//
// The input is never modified; the result does not depend on its order.
func ComputeGini(votes []float64) (float64, error) {
	if len(votes) == 0 {
		return 0.0, nil
	}

	for i, v := range votes {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ValidationError{Index: i, Value: v}
		}
	}

	sorted := slices.Clone(votes)
	slices.Sort(sorted)

	var total float64
	for _, x := range sorted {
		total += x
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: %d votes sum to zero", ErrDegenerateInput, len(votes))
	}

	// Pair rank k with rank n-1-k: their weights are equal and opposite, so
	// each term is a non-negative difference and equal votes cancel exactly.
	n := len(sorted)
	var numerator float64
	for k := 0; k < n/2; k++ {
		numerator += (sorted[n-1-k] - sorted[k]) * float64(n-1-2*k)
	}

	return numerator / (float64(n) * total), nil
}
