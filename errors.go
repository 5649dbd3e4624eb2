package fairloop

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid vote")

	// ErrDegenerateInput reports a non-empty vote collection whose total is zero.
	// The Gini denominator n·Σx vanishes, so no score exists for it.
	ErrDegenerateInput = errors.New("degenerate vote distribution")

	// ErrInvalidCredits reports a negative or non-finite per-voter credit budget.
	ErrInvalidCredits = errors.New("invalid credits per voter")

	// ErrInvalidConfig reports a LoopConfig outside its domain.
	ErrInvalidConfig = errors.New("invalid loop configuration")
)

// ValidationError identifies the first vote that violated the non-negativity
// (or finiteness) precondition of ComputeGini.
type ValidationError struct {
	Index int     // Position in the caller's slice (not the sorted order)
	Value float64 // Offending value
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid vote: votes must be finite and non-negative, got %v at index %d", e.Value, e.Index)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
