package fairloop

import (
	"context"
	"fmt"
)

// Reference scaling constants for the reflect step.
const (
	// DefaultAlpha models hallucination reduction (~25%).
	DefaultAlpha = 0.25

	// DefaultBeta models QV + retrieval alignment from critique.
	DefaultBeta = 0.55
)

// RetrievalRequest is what the loop knows when it consults the knowledge source.
type RetrievalRequest struct {
	Query string
	Round int     // 1-based
	Gini  float64 // Score going into the round
}

// Retrieval is the retrieved context for one round.
type Retrieval struct {
	Annotation string
}

// Retriever supplies context for a round. The loop only records the result;
// it never changes the vote arithmetic.
type Retriever interface {
	Retrieve(ctx context.Context, req RetrievalRequest) (Retrieval, error)
}

// ScaleFactors are the multiplicative corrections applied in the reflect step.
type ScaleFactors struct {
	Alpha float64 `yaml:"alpha"` // Hallucination reduction
	Beta  float64 `yaml:"beta"`  // Critique alignment
	Note  string  `yaml:"note"`  // Human-readable critique
}

// Multiplier is the combined factor (1 − β)(1 − α) applied to every vote.
// With the defaults it is 0.45 × 0.75 = 0.3375.
func (s ScaleFactors) Multiplier() float64 {
	return (1 - s.Beta) * (1 - s.Alpha)
}

// Critic judges the adjusted votes of a round and returns the scale factors to
// apply to them.
type Critic interface {
	Critique(ctx context.Context, votes []float64, gini float64) (ScaleFactors, error)
}

// MockRetriever consults nothing. It annotates the round with the score the
// lookup would have been keyed on.
type MockRetriever struct{}

// Retrieve implements Retriever.
func (MockRetriever) Retrieve(_ context.Context, req RetrievalRequest) (Retrieval, error) {
	return Retrieval{
		Annotation: fmt.Sprintf("mock knowledge base: historical DAO proposals with gini %.3f", req.Gini),
	}, nil
}

// FixedCritic returns the same factors every round, regardless of the votes.
type FixedCritic struct {
	Alpha float64
	Beta  float64
}

// Critique implements Critic.
func (c FixedCritic) Critique(_ context.Context, _ []float64, _ float64) (ScaleFactors, error) {
	return ScaleFactors{
		Alpha: c.Alpha,
		Beta:  c.Beta,
		Note:  fmt.Sprintf("reduce bias by %.2f; hallucination factor %.2f", c.Beta, c.Alpha),
	}, nil
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, req RetrievalRequest) (Retrieval, error)

// Retrieve implements Retriever.
func (f RetrieverFunc) Retrieve(ctx context.Context, req RetrievalRequest) (Retrieval, error) {
	return f(ctx, req)
}

// CriticFunc adapts a function to Critic.
type CriticFunc func(ctx context.Context, votes []float64, gini float64) (ScaleFactors, error)

// Critique implements Critic.
func (f CriticFunc) Critique(ctx context.Context, votes []float64, gini float64) (ScaleFactors, error) {
	return f(ctx, votes, gini)
}
