package fairloop

import (
	"errors"
	"fmt"
	"math"
)

// VoteMap is one reflection round applied to a single voter's weight:
//
//	v_{n+1} = f(v_n)
//
// With a fixed critique every voter evolves independently, so the whole loop
// is the same one-dimensional map applied to each vote.
type VoteMap func(v float64) float64

// ReflectionMap returns the round map for a credit budget and fixed factors:
//
//	f(v) = min(v, ⌊√credits⌋)² · (1 − β)(1 − α)
//
// For the defaults (cap 3, multiplier 0.3375) the map has a stable fixed point
// at 0, an unstable one at 1/0.3375 ≈ 2.963, and every vote ≥ 3 lands on
// 9 · 0.3375 = 3.0375 and stays there. Small voters fade; whales flatten.
func ReflectionMap(creditsPerVoter float64, f ScaleFactors) (VoteMap, error) {
	maxV, err := QuadraticCap(creditsPerVoter)
	if err != nil {
		return nil, err
	}
	return func(v float64) float64 {
		capped := math.Min(v, maxV)
		return capped * capped * (1 - f.Beta) * (1 - f.Alpha)
	}, nil
}

// ProjectionConfig controls attractor analysis.
type ProjectionConfig struct {
	Horizon   int     // Rounds to project
	Tolerance float64 // Period detection tolerance on the Gini trace
	MaxPeriod int     // Largest period to detect
}

// DefaultProjectionConfig returns sensible defaults.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		Horizon:   64,
		Tolerance: 1e-9,
		MaxPeriod: 8,
	}
}

// Projection describes where the Gini score goes if rounds never stop.
type Projection struct {
	Trace     []float64 // Initial score, then one score per projected round
	Period    int       // Period of the settled tail (1 = fixed point, -1 = none)
	Amplitude float64   // max − min over the settled tail
	Limit     float64   // Last projected score
	BestGini  float64   // Lowest score seen
	BestRound int       // Round of BestGini (0 = initial)
	Collapsed bool      // Every vote decayed to zero before the horizon
	Reachable bool      // BestGini < target
}

// Project iterates the reflection map of cfg over votes for pc.Horizon rounds,
// ignoring the target, and analyses the resulting Gini trace. nil votes select
// the synthetic baseline, as in Loop.Run.
//
// Use it to tell whether a run that hit its round budget could still converge
// with more rounds, or whether the distribution has settled above the target.
func Project(cfg LoopConfig, votes []float64, pc ProjectionConfig) (Projection, error) {
	if err := cfg.Validate(); err != nil {
		return Projection{}, err
	}
	if pc.Horizon <= 0 || pc.MaxPeriod <= 0 {
		return Projection{}, fmt.Errorf("%w: projection horizon and max period must be positive", ErrInvalidConfig)
	}

	f, err := ReflectionMap(cfg.CreditsPerVoter, ScaleFactors{Alpha: cfg.Alpha, Beta: cfg.Beta})
	if err != nil {
		return Projection{}, err
	}

	if votes == nil {
		votes = SyntheticVotes(NewSource(cfg.Seed), cfg.SyntheticVoters, cfg.SyntheticScale)
	}

	trace, err := ProjectGini(f, votes, pc.Horizon)
	collapsed := errors.Is(err, ErrDegenerateInput) && len(trace) > 0
	if err != nil && !collapsed {
		return Projection{}, err
	}

	p := Projection{
		Trace:     trace,
		Limit:     trace[len(trace)-1],
		Collapsed: collapsed,
		BestGini:  trace[0],
	}
	for i, g := range trace {
		if g < p.BestGini {
			p.BestGini, p.BestRound = g, i
		}
	}
	p.Reachable = p.BestGini < cfg.TargetGini

	// Let transients decay: analyse the second half only
	tail := trace[len(trace)/2:]
	p.Period = DetectPeriod(tail, pc.Tolerance, pc.MaxPeriod)
	p.Amplitude = Amplitude(tail)

	return p, nil
}

// ProjectGini applies f to every vote for the given number of rounds and
// returns the Gini trace, starting with the score of votes. If all votes
// decay to zero the trace so far is returned with ErrDegenerateInput.
func ProjectGini(f VoteMap, votes []float64, rounds int) ([]float64, error) {
	g, err := ComputeGini(votes)
	if err != nil {
		return nil, err
	}

	trace := make([]float64, 0, rounds+1)
	trace = append(trace, g)

	current := make([]float64, len(votes))
	copy(current, votes)
	for i := 0; i < rounds; i++ {
		for j, v := range current {
			current[j] = f(v)
		}

		g, err := ComputeGini(current)
		if err != nil {
			return trace, fmt.Errorf("projected round %d: %w", i+1, err)
		}
		trace = append(trace, g)
	}

	return trace, nil
}

// DetectPeriod finds the period of oscillation in a trace.
// Period-1 = settled, Period-2 = alternating, -1 = none up to maxPeriod (or too short).
func DetectPeriod(trace []float64, tolerance float64, maxPeriod int) int {
	for period := 1; period <= maxPeriod; period *= 2 {
		if len(trace) < 2*period {
			break
		}

		periodic := true
		for i := 0; i+period < len(trace); i++ {
			if math.Abs(trace[i]-trace[i+period]) > tolerance {
				periodic = false
				break
			}
		}

		if periodic {
			return period
		}
	}

	return -1
}

// Amplitude returns max − min of a trace.
func Amplitude(trace []float64) float64 {
	if len(trace) == 0 {
		return 0.0
	}

	lo, hi := trace[0], trace[0]
	for _, x := range trace {
		lo = min(lo, x)
		hi = max(hi, x)
	}

	return hi - lo
}
