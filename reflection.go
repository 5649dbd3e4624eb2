package fairloop

import (
	"context"
	"fmt"
	"math"
	"slices"
)

// DefaultTargetGini is the fairness threshold the loop tries to cross.
const DefaultTargetGini = 0.35

// DefaultIterations is the round budget of the reflection loop.
const DefaultIterations = 3

// StopReason explains why a reflection run ended.
type StopReason string

const (
	StopConverged     StopReason = "converged"      // Gini dropped below the target
	StopMaxIterations StopReason = "max_iterations" // Round budget spent without crossing the target
)

// LoopConfig controls a reflection run. It is a value: a Loop keeps its own copy.
type LoopConfig struct {
	Iterations      int     // Maximum rounds (0 = measure the initial votes only)
	TargetGini      float64 // Stop as soon as Gini < TargetGini
	Alpha           float64 // Hallucination-reduction scale, [0, 1]
	Beta            float64 // Critique-alignment scale, [0, 1]
	CreditsPerVoter float64 // Quadratic budget; cap = ⌊√credits⌋

	// Synthetic baseline, used when Run receives nil initial votes.
	Seed            uint64
	SyntheticVoters int
	SyntheticScale  float64 // Mean of the exponential distribution
}

// DefaultLoopConfig returns the reference constants.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Iterations:      DefaultIterations,
		TargetGini:      DefaultTargetGini,
		Alpha:           DefaultAlpha,
		Beta:            DefaultBeta,
		CreditsPerVoter: DefaultCreditsPerVoter,
		Seed:            DefaultSeed,
		SyntheticVoters: DefaultSyntheticVoters,
		SyntheticScale:  DefaultSyntheticScale,
	}
}

// Validate rejects configurations the loop cannot run.
func (c LoopConfig) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations cannot be negative: %d", ErrInvalidConfig, c.Iterations)
	}
	if !inUnitInterval(c.TargetGini) {
		return fmt.Errorf("%w: target gini %v outside [0, 1]", ErrInvalidConfig, c.TargetGini)
	}
	if !inUnitInterval(c.Alpha) {
		return fmt.Errorf("%w: alpha %v outside [0, 1]", ErrInvalidConfig, c.Alpha)
	}
	if !inUnitInterval(c.Beta) {
		return fmt.Errorf("%w: beta %v outside [0, 1]", ErrInvalidConfig, c.Beta)
	}
	if _, err := QuadraticCap(c.CreditsPerVoter); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.SyntheticVoters <= 0 {
		return fmt.Errorf("%w: synthetic voters must be positive: %d", ErrInvalidConfig, c.SyntheticVoters)
	}
	if !(c.SyntheticScale > 0) || math.IsInf(c.SyntheticScale, 0) {
		return fmt.Errorf("%w: synthetic scale must be positive and finite: %v", ErrInvalidConfig, c.SyntheticScale)
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

// RoundRecord is the structured trace of one round.
type RoundRecord struct {
	Query      string       `yaml:"-"`
	Round      int          `yaml:"round"` // 1-based
	GiniBefore float64      `yaml:"gini_before"`
	GiniAfter  float64      `yaml:"gini_after"`
	Factors    ScaleFactors `yaml:"factors"`
	Multiplier float64      `yaml:"multiplier"`
	Retrieval  string       `yaml:"retrieval"`
	Converged  bool         `yaml:"converged"`
}

// LoopResult is the outcome of a reflection run.
type LoopResult struct {
	Query       string        `yaml:"query"`
	InitialGini float64       `yaml:"initial_gini"`
	FinalGini   float64       `yaml:"final_gini"`
	Converged   bool          `yaml:"converged"`
	Reason      StopReason    `yaml:"reason"`
	Rounds      []RoundRecord `yaml:"rounds"`
	FinalVotes  []float64     `yaml:"-"`
}

// GiniTrace returns the initial score followed by the score after each round.
func (r *LoopResult) GiniTrace() []float64 {
	trace := make([]float64, 0, len(r.Rounds)+1)
	trace = append(trace, r.InitialGini)
	for _, rec := range r.Rounds {
		trace = append(trace, rec.GiniAfter)
	}
	return trace
}

// roundState is owned by a single Run call and replaced wholesale every round.
type roundState struct {
	iteration int // Rounds completed
	votes     []float64
	gini      float64
	converged bool
}

// Loop drives repeated retrieve → adjust → reflect → measure rounds until the
// Gini score crosses the target or the round budget runs out.
//
// A Loop holds no per-run state, so one Loop may serve concurrent Run calls
// provided its collaborators and observer are safe for concurrent use.
type Loop struct {
	cfg       LoopConfig
	retriever Retriever
	critic    Critic
	observer  Observer
}

// Option customises a Loop.
type Option func(*Loop)

// WithRetriever replaces the MockRetriever.
func WithRetriever(r Retriever) Option {
	return func(l *Loop) { l.retriever = r }
}

// WithCritic replaces the FixedCritic built from the config's Alpha and Beta.
func WithCritic(c Critic) Option {
	return func(l *Loop) { l.critic = c }
}

// WithObserver attaches an observer; pass Observers{...} to fan out.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// NewLoop validates cfg and builds a Loop with mock collaborators unless
// options override them.
func NewLoop(cfg LoopConfig, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loop{
		cfg:       cfg,
		retriever: MockRetriever{},
		critic:    FixedCritic{Alpha: cfg.Alpha, Beta: cfg.Beta},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.retriever == nil || l.critic == nil {
		return nil, fmt.Errorf("%w: retriever and critic are required", ErrInvalidConfig)
	}

	return l, nil
}

// Config returns the loop's configuration.
func (l *Loop) Config() LoopConfig {
	return l.cfg
}

// Run executes one reflection run.
//
// A nil initial slice selects the synthetic baseline (a fresh source seeded
// from the config, so repeated runs are identical). A non-nil slice, even an
// empty one, is used as given and never modified.
//
// Errors from any step abort the run and are returned wrapped with the round
// number; there is no partial result. Failing to converge is not an error:
// the result reports StopMaxIterations.
//
// ctx is checked between rounds.
func (l *Loop) Run(ctx context.Context, query string, initial []float64) (*LoopResult, error) {
	state, err := l.init(initial)
	if err != nil {
		return nil, err
	}

	result := &LoopResult{
		Query:       query,
		InitialGini: state.gini,
		Reason:      StopMaxIterations,
	}

	if l.observer != nil {
		l.observer.RecordStart(query, state.gini, len(state.votes))
	}

	for state.iteration < l.cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reflection canceled after %d rounds: %w", state.iteration, err)
		}

		next, rec, err := l.round(ctx, query, state)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", state.iteration+1, err)
		}
		state = next

		result.Rounds = append(result.Rounds, rec)
		if l.observer != nil {
			l.observer.RecordRound(rec)
		}

		if state.converged {
			result.Reason = StopConverged
			break
		}
	}

	result.FinalGini = state.gini
	result.Converged = state.converged
	result.FinalVotes = state.votes

	if l.observer != nil {
		l.observer.RecordComplete(result)
	}

	return result, nil
}

func (l *Loop) init(initial []float64) (roundState, error) {
	var votes []float64
	if initial == nil {
		votes = SyntheticVotes(NewSource(l.cfg.Seed), l.cfg.SyntheticVoters, l.cfg.SyntheticScale)
	} else {
		votes = slices.Clone(initial)
	}

	gini, err := ComputeGini(votes)
	if err != nil {
		return roundState{}, fmt.Errorf("initial votes: %w", err)
	}

	return roundState{votes: votes, gini: gini}, nil
}

func (l *Loop) round(ctx context.Context, query string, s roundState) (roundState, RoundRecord, error) {
	n := s.iteration + 1

	// 1. Retrieve: annotation only
	retrieved, err := l.retriever.Retrieve(ctx, RetrievalRequest{Query: query, Round: n, Gini: s.gini})
	if err != nil {
		return roundState{}, RoundRecord{}, fmt.Errorf("retrieve: %w", err)
	}

	// 2. Adjust: quadratic cap
	adjusted, err := ApplyQuadraticVoting(s.votes, l.cfg.CreditsPerVoter)
	if err != nil {
		return roundState{}, RoundRecord{}, fmt.Errorf("adjust: %w", err)
	}

	// 3. Reflect: uniform (1-β)(1-α) scaling
	factors, err := l.critic.Critique(ctx, adjusted, s.gini)
	if err != nil {
		return roundState{}, RoundRecord{}, fmt.Errorf("critique: %w", err)
	}
	refined := make([]float64, len(adjusted))
	for i, v := range adjusted {
		refined[i] = v * (1 - factors.Beta) * (1 - factors.Alpha)
	}

	// 4. Measure
	gini, err := ComputeGini(refined)
	if err != nil {
		return roundState{}, RoundRecord{}, fmt.Errorf("measure: %w", err)
	}

	// 5. Check
	next := roundState{
		iteration: n,
		votes:     refined,
		gini:      gini,
		converged: gini < l.cfg.TargetGini,
	}

	rec := RoundRecord{
		Query:      query,
		Round:      n,
		GiniBefore: s.gini,
		GiniAfter:  gini,
		Factors:    factors,
		Multiplier: factors.Multiplier(),
		Retrieval:  retrieved.Annotation,
		Converged:  next.converged,
	}

	return next, rec, nil
}

// RunReflectionLoop runs the reference loop (β = 0.55, 10 credits per voter)
// and returns the final Gini score. Pass nil initialVotes for the seeded
// synthetic baseline.
func RunReflectionLoop(query string, initialVotes []float64, iterations int, targetGini, alpha float64) (float64, error) {
	cfg := DefaultLoopConfig()
	cfg.Iterations = iterations
	cfg.TargetGini = targetGini
	cfg.Alpha = alpha

	loop, err := NewLoop(cfg)
	if err != nil {
		return 0, err
	}

	result, err := loop.Run(context.Background(), query, initialVotes)
	if err != nil {
		return 0, err
	}

	return result.FinalGini, nil
}
