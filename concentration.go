package fairloop

import (
	"math"
	"slices"
)

// Tail-ratio heuristics for vote distributions.
const (
	BalancedTailRatio = 3.0  // P99/P50 < 3: no voter class dominates
	PowerLawTailRatio = 10.0 // P99/P50 > 10: whale votes dominate the mean
)

// ConcentrationStats describes how voting power is spread across voters.
//
// Gini alone hides the shape of the tail. Two distributions with the same
// Gini can differ in whether one whale or a top decile holds the power:
//   - TailRatio: P99/P50, the gap between the heaviest and the median voter
//   - ParetoIndex: tail exponent estimated from the quantile ratio
//   - TopDecileShare: fraction of all votes held by the top 10% of voters
//   - Nakamoto: fewest voters that together hold a strict majority
type ConcentrationStats struct {
	Voters         int
	Total          float64
	Mean           float64
	P50            float64
	P99            float64
	TailRatio      float64
	ParetoIndex    float64
	TopDecileShare float64
	Nakamoto       int
	Gini           float64
	IsBalanced     bool
	IsPowerLaw     bool
}

// Concentration computes distribution statistics for votes. It accepts the
// same input as ComputeGini and fails the same way; empty input yields zero
// stats.
func Concentration(votes []float64) (ConcentrationStats, error) {
	gini, err := ComputeGini(votes)
	if err != nil {
		return ConcentrationStats{}, err
	}

	n := len(votes)
	if n == 0 {
		return ConcentrationStats{}, nil
	}

	sorted := slices.Clone(votes)
	slices.Sort(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}

	stats := ConcentrationStats{
		Voters: n,
		Total:  total,
		Mean:   total / float64(n),
		P50:    percentile(sorted, 0.50),
		P99:    percentile(sorted, 0.99),
		Gini:   gini,
	}

	switch {
	case stats.P50 > 0:
		stats.TailRatio = stats.P99 / stats.P50
	case stats.P99 > 0:
		stats.TailRatio = math.Inf(1)
	default:
		stats.TailRatio = 1
	}

	// For Pareto: P99/P50 = (0.99/0.50)^(1/α)
	if stats.TailRatio > 1 && !math.IsInf(stats.TailRatio, 0) {
		stats.ParetoIndex = math.Log(0.99/0.50) / math.Log(stats.TailRatio)
	}

	stats.TopDecileShare = topShare(sorted, int(math.Ceil(float64(n)/10)), total)
	stats.Nakamoto = nakamoto(sorted, total)
	stats.IsBalanced = stats.TailRatio < BalancedTailRatio
	stats.IsPowerLaw = stats.TailRatio > PowerLawTailRatio

	return stats, nil
}

// percentile returns the p-th percentile (0 ≤ p ≤ 1) of ascending values.
func percentile(sorted []float64, p float64) float64 {
	index := int(float64(len(sorted)-1) * p)
	index = max(0, min(index, len(sorted)-1))
	return sorted[index]
}

func topShare(sorted []float64, k int, total float64) float64 {
	var sum float64
	for i := len(sorted) - 1; i >= len(sorted)-k; i-- {
		sum += sorted[i]
	}
	return sum / total
}

// nakamoto counts voters from the heaviest down until they hold more than half.
func nakamoto(sorted []float64, total float64) int {
	var sum float64
	for i := len(sorted) - 1; i >= 0; i-- {
		sum += sorted[i]
		if sum > total/2 {
			return len(sorted) - i
		}
	}
	return len(sorted)
}
