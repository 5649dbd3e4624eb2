// Package fairloop measures and reduces voting-power inequality in DAO
// governance.
//
// # Overview
//
// fairloop scores a vote distribution with the Gini coefficient, caps it with
// quadratic voting, and drives a reflection loop that repeats
// retrieve → adjust → reflect → measure until the Gini score falls below a
// fairness target or the round budget runs out.
//
// # Architecture
//
// The package components:
//
//   - gini          - Gini coefficient of non-negative votes
//   - quadratic     - Quadratic voting cap, ⌊√credits⌋ per voter
//   - reflection    - The reflection loop and its per-round trace
//   - collaborators - Retriever and Critic seams (mock implementations included)
//   - governor      - Fairness zones and convergence tracking
//   - concentration - Tail ratio, top-decile share, Nakamoto coefficient
//   - attractor     - Long-run projection of the round map: where Gini settles
//   - observer      - Structured progress: logs, in-memory traces
//   - metrics       - Prometheus collectors for reflection runs
//   - sweep         - Concurrent runs over several configurations
//   - assertions    - Test helpers for fairness properties
//
// # Quick Start
//
// Score a distribution:
//
//	g, err := fairloop.ComputeGini([]float64{1, 2, 3, 10})
//	// g = 0.4375
//
// Run the reference loop on the seeded synthetic baseline:
//
//	final, err := fairloop.RunReflectionLoop("treasury allocation", nil, 3, 0.35, 0.25)
//
// For the full trace, build a Loop:
//
//	loop, err := fairloop.NewLoop(fairloop.DefaultLoopConfig(),
//	    fairloop.WithObserver(fairloop.NewLogObserver(logger, 0.35)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := loop.Run(ctx, "treasury allocation", votes)
//	for _, rec := range result.Rounds {
//	    fmt.Printf("round %d: %.4f → %.4f\n", rec.Round, rec.GiniBefore, rec.GiniAfter)
//	}
//
// # The Gini Coefficient
//
// For votes sorted ascending x₁ ≤ … ≤ xₙ:
//
//	G = Σᵢ (2i − n − 1)·xᵢ / (n · Σᵢ xᵢ)
//
// G = 0 is perfect equality; G → 1 means one voter holds everything.
// Empty input scores 0. Negative or non-finite votes are rejected with
// ErrValidation; an all-zero distribution with ErrDegenerateInput.
//
// # Quadratic Voting
//
// Each voter's influence is capped at ⌊√credits⌋ and then squared:
//
//	v' = min(v, ⌊√credits⌋)²
//
// With the default 10 credits the cap is 3, so no voter counts for more than 9.
//
// # The Reflection Round
//
// Every round:
//
//  1. Retrieve: the Retriever annotates the round (the vote arithmetic is unaffected)
//  2. Adjust: apply quadratic voting
//  3. Reflect: the Critic returns α and β; every vote is scaled by (1 − β)(1 − α)
//  4. Measure: compute the Gini score of the refined votes
//  5. Check: stop once Gini < target
//
// The reflect step scales all votes uniformly, so it never changes the Gini
// score by itself; the quadratic cap does the equalizing.
//
// # Testing
//
// Use assertions to validate fairness properties:
//
//	func TestTreasury(t *testing.T) {
//	    fairloop.AssertGini(t, []float64{1, 2, 3, 10}, 0.4375)
//	    fairloop.AssertPermutationInvariant(t, votes, rand.New(rand.NewPCG(1, 1)), 20)
//
//	    result, _ := loop.Run(ctx, "q", votes)
//	    fairloop.AssertConverged(t, result, loop.Config())
//	}
//
// # See Also
//
//   - cmd/fairloop - Command-line interface
//   - examples/ - Working code samples
package fairloop
