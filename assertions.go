package fairloop

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

// DefaultGiniTolerance is the absolute tolerance used by the assertion helpers.
const DefaultGiniTolerance = 1e-9

// AssertGini verifies ComputeGini(votes) equals want within DefaultGiniTolerance.
func AssertGini(t *testing.T, votes []float64, want float64) {
	t.Helper()

	got, err := ComputeGini(votes)
	if err != nil {
		t.Fatalf("ComputeGini(%v) failed: %v", votes, err)
	}

	if math.Abs(got-want) > DefaultGiniTolerance {
		t.Errorf("Gini mismatch for %v: got %.10f, want %.10f", votes, got, want)
		return
	}

	t.Logf("✓ Gini(%v) = %.6f", votes, got)
}

// AssertPermutationInvariant verifies that shuffling votes does not change
// their Gini score.
//
// Mathematical property:
//
//	G(π(x)) = G(x) for every permutation π
func AssertPermutationInvariant(t *testing.T, votes []float64, rng *rand.Rand, trials int) {
	t.Helper()

	want, err := ComputeGini(votes)
	if err != nil {
		t.Fatalf("ComputeGini(%v) failed: %v", votes, err)
	}

	shuffled := slices.Clone(votes)
	var failures []string
	for i := 0; i < trials; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := ComputeGini(shuffled)
		if err != nil {
			t.Fatalf("ComputeGini(%v) failed: %v", shuffled, err)
		}
		if math.Abs(got-want) > DefaultGiniTolerance {
			failures = append(failures, fmt.Sprintf("  trial %d: %v → %.10f", i, shuffled, got))
		}
	}

	if len(failures) > 0 {
		t.Errorf("Gini depends on order (want %.10f):\n%s", want, failures)
		return
	}

	t.Logf("✓ Permutation invariant over %d shuffles: G = %.6f", trials, want)
}

// AssertNonIncreasing verifies no round of result raised the Gini score.
//
// Mathematical property:
//
//	G(round k) ≤ G(round k−1) for every recorded round
func AssertNonIncreasing(t *testing.T, result *LoopResult) {
	t.Helper()

	var failures []string
	for _, rec := range result.Rounds {
		if rec.GiniAfter > rec.GiniBefore+DefaultGiniTolerance {
			failures = append(failures, fmt.Sprintf(
				"  round %d: %.6f → %.6f", rec.Round, rec.GiniBefore, rec.GiniAfter))
		}
	}

	if len(failures) > 0 {
		t.Errorf("Gini increased:\n%s", failures)
		return
	}

	t.Logf("✓ Non-increasing over %d rounds: %.4f → %.4f",
		len(result.Rounds), result.InitialGini, result.FinalGini)
}

// AssertConverged verifies result crossed cfg.TargetGini within cfg.Iterations
// rounds and stopped there.
func AssertConverged(t *testing.T, result *LoopResult, cfg LoopConfig) {
	t.Helper()

	if !result.Converged || result.Reason != StopConverged {
		t.Errorf("Run did not converge: final Gini %.4f (target %.4f), reason %s",
			result.FinalGini, cfg.TargetGini, result.Reason)
		return
	}

	if result.FinalGini >= cfg.TargetGini {
		t.Errorf("Converged run above target: final Gini %.4f ≥ %.4f", result.FinalGini, cfg.TargetGini)
	}

	if len(result.Rounds) > cfg.Iterations {
		t.Errorf("Used %d rounds, budget %d", len(result.Rounds), cfg.Iterations)
	}

	t.Logf("✓ Converged in %d/%d rounds: G = %.4f < %.4f",
		len(result.Rounds), cfg.Iterations, result.FinalGini, cfg.TargetGini)
}

// PrintTrace outputs a round-by-round table of result to the test log.
func PrintTrace(t *testing.T, result *LoopResult) {
	t.Helper()

	t.Logf("\n=== Reflection Trace: %s ===", result.Query)
	t.Logf("  Round  Before    After     Δ         Multiplier")
	t.Logf("  -----  --------  --------  --------  ----------")
	for _, rec := range result.Rounds {
		t.Logf("  %-5d  %8.4f  %8.4f  %+8.4f  %10.4f",
			rec.Round, rec.GiniBefore, rec.GiniAfter, rec.GiniAfter-rec.GiniBefore, rec.Multiplier)
	}

	if result.Converged {
		t.Logf("  ✓ Converged: %.4f → %.4f", result.InitialGini, result.FinalGini)
	} else {
		t.Logf("  ⚠ Budget spent: %.4f → %.4f (%s)", result.InitialGini, result.FinalGini, result.Reason)
	}
}
