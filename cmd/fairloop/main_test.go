package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexshd/fairloop"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fairloop version "+Version+" (build: "+BuildTime+")\n", out)
}

func TestGini_ReferenceDistribution(t *testing.T) {
	out, _, err := execute(t, "gini")
	require.NoError(t, err)

	assert.Contains(t, out, "Test Gini ([1, 2, 3, 10]): 0.4375")
	assert.Contains(t, out, string(fairloop.ZoneModerate))
	assert.Contains(t, out, "top decile 62.5%  nakamoto 1")
	assert.Contains(t, out, "balanced tail")
}

func TestGini_Arguments(t *testing.T) {
	out, _, err := execute(t, "gini", "5", "5", "5", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "Gini ([5, 5, 5, 5]): 0.0000")
	assert.Contains(t, out, string(fairloop.ZoneEquitable))
}

func TestGini_File(t *testing.T) {
	path := filepath.Join("..", "..", "internal", "votefile", "testdata", "sample_dao_votes.csv")

	out, _, err := execute(t, "gini", "--file", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Sample DAO Gini: 0.8341")
	assert.Contains(t, out, string(fairloop.ZonePlutocratic))
	assert.Contains(t, out, "voters 20")
}

func TestGini_Errors(t *testing.T) {
	_, _, err := execute(t, "gini", "1", "two")
	assert.ErrorContains(t, err, `"two" is not a number`)

	_, _, err = execute(t, "gini", "--", "1", "-1")
	assert.ErrorIs(t, err, fairloop.ErrValidation)

	_, _, err = execute(t, "gini", "--file", "votes.csv", "1")
	assert.Error(t, err)
}

func TestQV(t *testing.T) {
	out, _, err := execute(t, "qv", "1", "2", "3", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "10 credits per voter (cap 3)")
	assert.Contains(t, out, "adjusted: [1, 4, 9, 9]")
	assert.Contains(t, out, "Gini: 0.4375 → 0.3152")

	_, _, err = execute(t, "qv", "--credits", "-1", "1")
	assert.ErrorIs(t, err, fairloop.ErrInvalidCredits)
}

func TestReflect_Reference(t *testing.T) {
	out, stderr, err := execute(t, "reflect", "1", "2", "3", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "Reflection: "+defaultQuery)
	assert.Contains(t, out, "Initial Gini: 0.4375")
	assert.Contains(t, out, "Round 1: 0.4375 → 0.3152")
	assert.Contains(t, out, "critique: reduce bias by 0.55; hallucination factor 0.25 (×0.3375)")
	assert.Contains(t, out, "Converged early at round 1")
	assert.Contains(t, out, "Final Gini: 0.3152 (converged after 1 rounds)")

	assert.Contains(t, stderr, "reflection started")
	assert.Contains(t, stderr, "run_id=")
}

func TestReflect_SyntheticBaseline(t *testing.T) {
	first, _, err := execute(t, "reflect", "--iterations", "2")
	require.NoError(t, err)
	second, _, err := execute(t, "reflect", "--iterations", "2")
	require.NoError(t, err)

	assert.Contains(t, first, "(100 voters)")
	assert.Equal(t, first, second, "default seed reproduces the run")
}

func TestReflect_TraceOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	_, _, err := execute(t, "reflect", "--target", "0.1", "--trace-out", path, "-q", "grant", "1", "2", "3", "10")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc traceFile
	require.NoError(t, yaml.Unmarshal(data, &doc))

	_, err = uuid.Parse(doc.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 0.1, doc.Config.TargetGini)
	assert.False(t, doc.Config.Synthetic)

	require.NotNil(t, doc.Result)
	assert.Equal(t, "grant", doc.Result.Query)
	assert.Equal(t, fairloop.StopMaxIterations, doc.Result.Reason)
	require.Len(t, doc.Result.Rounds, fairloop.DefaultIterations)
	assert.Equal(t, 1, doc.Result.Rounds[0].Round)
	assert.InDelta(t, 0.3375, doc.Result.Rounds[0].Multiplier, 1e-12)
}

func TestReflect_Metrics(t *testing.T) {
	out, _, err := execute(t, "reflect", "--metrics", "1", "2", "3", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "Metrics:")
	assert.Contains(t, out, "fairloop_reflection_rounds_total 1")
	assert.Contains(t, out, `fairloop_reflection_runs_total{reason="converged"} 1`)
	assert.Contains(t, out, "fairloop_reflection_round_gini count=1")
}

func TestReflect_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "reflect", "--alpha", "2", "1", "2")
	assert.ErrorIs(t, err, fairloop.ErrInvalidConfig)

	_, _, err = execute(t, "reflect", "--iterations", "-1", "1", "2")
	assert.ErrorIs(t, err, fairloop.ErrInvalidConfig)
}

func TestReflect_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fairloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("iterations: 2\ntarget_gini: 0.1\n"), 0o644))

	out, _, err := execute(t, "--config", path, "reflect", "1", "2", "3", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "(max_iterations after 2 rounds)")

	// Flags override the file
	out, _, err = execute(t, "--config", path, "reflect", "--iterations", "1", "1", "2", "3", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "(max_iterations after 1 rounds)")
}

func TestReflect_MissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "reflect")
	assert.ErrorContains(t, err, "read config")
}

func TestReflect_Environment(t *testing.T) {
	t.Setenv("FAIRLOOP_ITERATIONS", "1")
	t.Setenv("FAIRLOOP_TARGET_GINI", "0.1")

	out, _, err := execute(t, "reflect", "1", "2", "3", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "(max_iterations after 1 rounds)")
}

func TestSweep(t *testing.T) {
	out, _, err := execute(t, "sweep", "--alphas", "0,0.5", "--limit", "1", "1", "2", "3", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "ALPHA")
	assert.Contains(t, out, "0.00")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, "Summary: 2/2 converged, mean 1.0 rounds, mean final Gini 0.3152")

	_, _, err = execute(t, "sweep", "--alphas", "0.2,1.5", "1", "2")
	assert.ErrorIs(t, err, fairloop.ErrInvalidConfig)
}

func TestLogLevel(t *testing.T) {
	_, stderr, err := execute(t, "--log-level", "error", "reflect", "1", "2", "3", "10")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "reflection started")

	_, _, err = execute(t, "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestReflect_ProjectionWhenBudgetSpent(t *testing.T) {
	out, _, err := execute(t, "reflect", "--", "0.5", "0.2", "0.8", "0.1", "250")
	require.NoError(t, err)

	assert.Contains(t, out, "(max_iterations after 3 rounds)")
	assert.Contains(t, out, "Projection: Gini settles at 0.8000 (period 1)")
	assert.Contains(t, out, "target 0.35 unreachable: best 0.7477 at round 1")

	out, _, err = execute(t, "reflect", "1", "2", "3", "10")
	require.NoError(t, err)
	assert.NotContains(t, out, "Projection:")
}
