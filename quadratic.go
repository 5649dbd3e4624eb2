package fairloop

import (
	"fmt"
	"math"
)

// DefaultCreditsPerVoter is the per-voter budget used when none is configured.
// floor(√10) = 3, so no single voter expresses more than 3 linear votes.
const DefaultCreditsPerVoter = 10.0

// QuadraticCap returns the largest whole number of votes a voter can afford
// when each vote v costs v² credits:
//
//	max_v = ⌊√credits⌋
//
// The same cap applies to every voter; there is no shared credit pool.
func QuadraticCap(creditsPerVoter float64) (float64, error) {
	if creditsPerVoter < 0 || math.IsNaN(creditsPerVoter) || math.IsInf(creditsPerVoter, 0) {
		return 0, fmt.Errorf("%w: %v (must be finite and >= 0)", ErrInvalidCredits, creditsPerVoter)
	}
	return math.Floor(math.Sqrt(creditsPerVoter)), nil
}

// ApplyQuadraticVoting caps each voter's linear signal at QuadraticCap and
// squares it:
//
//	adjusted[i] = min(votes[i], max_v)²
//
// Whale votes collapse onto max_v² while votes under the cap keep their
// relative order. The result is a new slice of the same length and order.
//
// Negative votes pass through and lose their sign when squared; ComputeGini is
// the only routine that enforces non-negativity.
func ApplyQuadraticVoting(votes []float64, creditsPerVoter float64) ([]float64, error) {
	maxV, err := QuadraticCap(creditsPerVoter)
	if err != nil {
		return nil, err
	}

	adjusted := make([]float64, len(votes))
	for i, v := range votes {
		capped := math.Min(v, maxV)
		adjusted[i] = capped * capped
	}

	return adjusted, nil
}
