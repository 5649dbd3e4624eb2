package fairloop

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers_FanOut(t *testing.T) {
	a, b := NewTraceRecorder(), NewTraceRecorder()

	loop, err := NewLoop(DefaultLoopConfig(), WithObserver(Observers{a, b}))
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), "fan out", []float64{1, 2, 3, 10})
	require.NoError(t, err)

	assert.Len(t, a.Rounds(), 1)
	assert.Equal(t, a.Rounds(), b.Rounds())
	assert.Len(t, b.Results(), 1)
}

func TestTraceRecorder_Summary(t *testing.T) {
	recorder := NewTraceRecorder()
	ctx := context.Background()

	converging, err := NewLoop(DefaultLoopConfig(), WithObserver(recorder))
	require.NoError(t, err)

	cfg := DefaultLoopConfig()
	cfg.TargetGini = 0.1
	exhausting, err := NewLoop(cfg, WithObserver(recorder))
	require.NoError(t, err)

	_, err = converging.Run(ctx, "a", []float64{1, 2, 3, 10})
	require.NoError(t, err)
	_, err = exhausting.Run(ctx, "b", []float64{1, 2, 3, 10})
	require.NoError(t, err)

	s := recorder.Summary()
	assert.Equal(t, 2, s.Runs)
	assert.Equal(t, 1, s.ConvergedRuns)
	assert.Equal(t, 1, s.MaxedOutRuns)
	assert.Equal(t, 4, s.TotalRounds)
	assert.Equal(t, 2.0, s.MeanRounds)
	assert.Equal(t, 0.5, s.ConvergenceRate())
	assert.Len(t, recorder.Rounds(), 4)

	t.Logf("✓ %d runs, convergence rate %.0f%%, mean improvement %+.4f",
		s.Runs, s.ConvergenceRate()*100, s.MeanImprovement)
}

func TestTraceRecorder_Empty(t *testing.T) {
	s := NewTraceRecorder().Summary()

	assert.Equal(t, TraceSummary{}, s)
	assert.Zero(t, s.ConvergenceRate())
}

func TestTraceRecorder_Concurrent(t *testing.T) {
	recorder := NewTraceRecorder()
	loop, err := NewLoop(DefaultLoopConfig(), WithObserver(recorder))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loop.Run(context.Background(), "concurrent", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, recorder.Summary().Runs)
}

func decodeLogRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	return records
}

func TestLogObserver_Records(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	loop, err := NewLoop(DefaultLoopConfig(), WithObserver(NewLogObserver(logger, DefaultTargetGini)))
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), "treasury allocation", []float64{1, 2, 3, 10})
	require.NoError(t, err)

	records := decodeLogRecords(t, &buf)
	require.Len(t, records, 4)

	var msgs []string
	for _, rec := range records {
		msgs = append(msgs, rec["msg"].(string))
	}
	assert.Equal(t, []string{"reflection started", "reflection round", "converged early", "reflection finished"}, msgs)

	start := records[0]
	assert.Equal(t, "treasury allocation", start["query"])
	assert.Equal(t, 4.0, start["voters"])
	assert.Equal(t, string(ZoneModerate), start["zone"])

	round := records[1]
	assert.Equal(t, "INFO", round["level"])
	assert.Equal(t, 1.0, round["round"])
	assert.Equal(t, string(ZoneEquitable), round["zone"])
	assert.InDelta(t, referenceRoundOne, round["gini_after"].(float64), 1e-12)

	finished := records[3]
	assert.Equal(t, string(StopConverged), finished["reason"])
	assert.Equal(t, true, finished["converged"])
}

func TestLogObserver_LevelFollowsZone(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	obs := NewLogObserver(logger, DefaultTargetGini)

	obs.RecordRound(RoundRecord{Query: "q", Round: 1, GiniBefore: 0.9, GiniAfter: 0.8})
	obs.RecordRound(RoundRecord{Query: "q", Round: 2, GiniBefore: 0.8, GiniAfter: 0.6})

	records := decodeLogRecords(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "ERROR", records[0]["level"])
	assert.Equal(t, string(ZonePlutocratic), records[0]["zone"])
	assert.Equal(t, "WARN", records[1]["level"])
	assert.Equal(t, string(ZoneConcentrated), records[1]["zone"])
}

func TestNewLogObserver_DefaultLogger(t *testing.T) {
	obs := NewLogObserver(nil, DefaultTargetGini)
	assert.Same(t, slog.Default(), obs.logger)
}
