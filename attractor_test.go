package fairloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflectionMap_FixedPoints(t *testing.T) {
	f, err := ReflectionMap(DefaultCreditsPerVoter, ScaleFactors{Alpha: DefaultAlpha, Beta: DefaultBeta})
	require.NoError(t, err)

	assert.Zero(t, f(0), "0 is a fixed point")
	assert.InDelta(t, 3.0375, f(3), 1e-12)
	assert.InDelta(t, 3.0375, f(250), 1e-12, "whales land on the cap")
	assert.InDelta(t, 3.0375, f(f(10)), 1e-12, "and stay there")
	assert.Less(t, f(2), 2.0, "votes below 1/m fade")

	_, err = ReflectionMap(-1, ScaleFactors{})
	assert.ErrorIs(t, err, ErrInvalidCredits)
}

func TestReflectionMap_MatchesLoopRound(t *testing.T) {
	cfg := DefaultLoopConfig()
	cfg.Iterations = 1
	loop, err := NewLoop(cfg)
	require.NoError(t, err)

	votes := []float64{1, 2, 3, 10}
	result, err := loop.Run(context.Background(), "q", votes)
	require.NoError(t, err)

	f, err := ReflectionMap(cfg.CreditsPerVoter, ScaleFactors{Alpha: cfg.Alpha, Beta: cfg.Beta})
	require.NoError(t, err)
	for i, v := range votes {
		assert.Equal(t, result.FinalVotes[i], f(v), "voter %d", i)
	}
}

func TestProject_MatchesLoopTrace(t *testing.T) {
	cfg := DefaultLoopConfig()
	cfg.Iterations = 12
	cfg.TargetGini = 0
	cfg.Alpha = 0.1

	votes := []float64{0.5, 2.5, 3.2, 7, 40, 1.7}
	loop, err := NewLoop(cfg)
	require.NoError(t, err)
	result, err := loop.Run(context.Background(), "q", votes)
	require.NoError(t, err)

	p, err := Project(cfg, votes, ProjectionConfig{Horizon: cfg.Iterations, Tolerance: 1e-9, MaxPeriod: 8})
	require.NoError(t, err)

	assert.Equal(t, result.GiniTrace(), p.Trace, "projection reproduces the run bit for bit")
}

func TestProject_Reference(t *testing.T) {
	p, err := Project(DefaultLoopConfig(), []float64{1, 2, 3, 10}, DefaultProjectionConfig())
	require.NoError(t, err)

	assert.Len(t, p.Trace, 65)
	assert.InDelta(t, 0.4375, p.Trace[0], 1e-12)
	assert.InDelta(t, 29.0/92.0, p.BestGini, 1e-12)
	assert.Equal(t, 1, p.BestRound)
	assert.True(t, p.Reachable)
	assert.False(t, p.Collapsed)

	// Small voters fade to zero, the two largest settle on 3.0375: [0, 0, a, a] → 0.5
	assert.Equal(t, 1, p.Period)
	assert.InDelta(t, 0.5, p.Limit, 1e-9)
	assert.InDelta(t, 0, p.Amplitude, 1e-9)

	t.Logf("✓ Best %.4f at round %d, settles at %.4f (period %d)", p.BestGini, p.BestRound, p.Limit, p.Period)
}

func TestProject_Unreachable(t *testing.T) {
	p, err := Project(DefaultLoopConfig(), []float64{0.5, 0.2, 0.8, 0.1, 250}, DefaultProjectionConfig())
	require.NoError(t, err)

	assert.False(t, p.Reachable)
	assert.InDelta(t, 0.8, p.Limit, 1e-9, "one voter keeps everything")
	assert.Equal(t, 1, p.BestRound)
	assert.Equal(t, 1, p.Period)
}

func TestProject_Collapse(t *testing.T) {
	p, err := Project(DefaultLoopConfig(), []float64{0.5, 0.5}, DefaultProjectionConfig())
	require.NoError(t, err)

	assert.True(t, p.Collapsed)
	assert.Less(t, len(p.Trace), 65)
	assert.Zero(t, p.Limit)
	assert.True(t, p.Reachable)
}

func TestProject_Synthetic(t *testing.T) {
	a, err := Project(DefaultLoopConfig(), nil, DefaultProjectionConfig())
	require.NoError(t, err)
	b, err := Project(DefaultLoopConfig(), nil, DefaultProjectionConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Trace, b.Trace)
	assert.Equal(t, 1, a.Period)
}

func TestProject_Errors(t *testing.T) {
	_, err := Project(DefaultLoopConfig(), []float64{-1}, DefaultProjectionConfig())
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Project(DefaultLoopConfig(), []float64{0, 0}, DefaultProjectionConfig())
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Project(DefaultLoopConfig(), []float64{1, 2}, ProjectionConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultLoopConfig()
	cfg.Alpha = 3
	_, err = Project(cfg, []float64{1, 2}, DefaultProjectionConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDetectPeriod(t *testing.T) {
	tests := []struct {
		name  string
		trace []float64
		want  int
	}{
		{"fixed point", []float64{0.5, 0.5, 0.5, 0.5}, 1},
		{"alternating", []float64{0.3, 0.6, 0.3, 0.6, 0.3, 0.6}, 2},
		{"period four", []float64{0.1, 0.2, 0.3, 0.4, 0.1, 0.2, 0.3, 0.4}, 4},
		{"drifting", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}, -1},
		{"too short", []float64{0.5}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPeriod(tt.trace, 1e-9, 8))
		})
	}
}

func TestAmplitude(t *testing.T) {
	assert.Zero(t, Amplitude(nil))
	assert.InDelta(t, 0.5, Amplitude([]float64{0.3, 0.8, 0.4}), 1e-12)
}
