package fairloop

import (
	"math/rand/v2"
)

// Synthetic baseline defaults: 100 voters with exponentially distributed
// weights (mean 5), drawn from a source seeded with 42.
const (
	DefaultSeed            uint64  = 42
	DefaultSyntheticVoters         = 100
	DefaultSyntheticScale  float64 = 5.0
)

// NewSource returns a random source owned by the caller. Two sources built from
// the same seed produce identical streams; nothing is read from the global
// generator.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// SyntheticVotes draws n vote weights from an exponential distribution with
// the given mean (scale = 1/rate). The result is a skewed, whale-heavy
// baseline for the reflection loop.
func SyntheticVotes(rng *rand.Rand, n int, scale float64) []float64 {
	votes := make([]float64, n)
	for i := range votes {
		votes[i] = rng.ExpFloat64() * scale
	}
	return votes
}
