package fairloop

import (
	"context"
	"log/slog"
	"sync"
)

// Observer receives structured progress from a reflection run. It replaces
// printed narration: the loop itself never writes output.
//
// Observers attached to a Loop shared across goroutines (see Sweep) must be
// safe for concurrent use.
type Observer interface {
	// RecordStart is called once the initial votes have been measured.
	RecordStart(query string, initialGini float64, voters int)

	// RecordRound is called after every completed round.
	RecordRound(rec RoundRecord)

	// RecordComplete is called when the run ends without error.
	RecordComplete(result *LoopResult)
}

// Observers fans out to several observers in order.
type Observers []Observer

// RecordStart implements Observer.
func (obs Observers) RecordStart(query string, initialGini float64, voters int) {
	for _, o := range obs {
		o.RecordStart(query, initialGini, voters)
	}
}

// RecordRound implements Observer.
func (obs Observers) RecordRound(rec RoundRecord) {
	for _, o := range obs {
		o.RecordRound(rec)
	}
}

// RecordComplete implements Observer.
func (obs Observers) RecordComplete(result *LoopResult) {
	for _, o := range obs {
		o.RecordComplete(result)
	}
}

// TraceRecorder keeps every round and result in memory.
type TraceRecorder struct {
	mu      sync.Mutex
	rounds  []RoundRecord
	results []*LoopResult
}

// NewTraceRecorder creates an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{}
}

// RecordStart implements Observer.
func (r *TraceRecorder) RecordStart(string, float64, int) {}

// RecordRound implements Observer
func (r *TraceRecorder) RecordRound(rec RoundRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, rec)
}

// RecordComplete implements Observer
func (r *TraceRecorder) RecordComplete(result *LoopResult) {
	if result == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Rounds returns the recorded rounds in arrival order.
func (r *TraceRecorder) Rounds() []RoundRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoundRecord, len(r.rounds))
	copy(out, r.rounds)
	return out
}

// Results returns the completed runs in arrival order.
func (r *TraceRecorder) Results() []*LoopResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*LoopResult, len(r.results))
	copy(out, r.results)
	return out
}

// TraceSummary rolls up completed runs.
type TraceSummary struct {
	Runs            int
	ConvergedRuns   int
	MaxedOutRuns    int
	TotalRounds     int
	MeanRounds      float64
	MeanFinalGini   float64
	MeanImprovement float64 // Mean of InitialGini − FinalGini
}

// ConvergenceRate returns the fraction of runs that converged.
func (s TraceSummary) ConvergenceRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.ConvergedRuns) / float64(s.Runs)
}

// Summary aggregates the completed runs.
func (r *TraceRecorder) Summary() TraceSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s TraceSummary
	var finalSum, improvementSum float64
	for _, res := range r.results {
		s.Runs++
		s.TotalRounds += len(res.Rounds)
		if res.Converged {
			s.ConvergedRuns++
		} else {
			s.MaxedOutRuns++
		}
		finalSum += res.FinalGini
		improvementSum += res.InitialGini - res.FinalGini
	}

	if s.Runs > 0 {
		s.MeanRounds = float64(s.TotalRounds) / float64(s.Runs)
		s.MeanFinalGini = finalSum / float64(s.Runs)
		s.MeanImprovement = improvementSum / float64(s.Runs)
	}
	return s
}

// LogObserver writes progress as structured log records. The level of each
// round follows the governor zone of its score.
type LogObserver struct {
	logger   *slog.Logger
	governor *Governor
}

// NewLogObserver creates a log observer. A nil logger selects slog.Default().
func NewLogObserver(logger *slog.Logger, targetGini float64) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{
		logger:   logger,
		governor: NewGovernor(targetGini),
	}
}

// RecordStart implements Observer.
func (o *LogObserver) RecordStart(query string, initialGini float64, voters int) {
	o.logger.Info("reflection started",
		"query", query,
		"voters", voters,
		"initial_gini", initialGini,
		"zone", o.governor.Classify(initialGini))
}

// RecordRound implements Observer.
func (o *LogObserver) RecordRound(rec RoundRecord) {
	zone := o.governor.Classify(rec.GiniAfter)
	o.logger.Log(context.Background(), zone.Level(), "reflection round",
		"query", rec.Query,
		"round", rec.Round,
		"gini_before", rec.GiniBefore,
		"gini_after", rec.GiniAfter,
		"delta", rec.GiniAfter-rec.GiniBefore,
		"multiplier", rec.Multiplier,
		"critique", rec.Factors.Note,
		"zone", zone)

	if rec.Converged {
		o.logger.Info("converged early", "query", rec.Query, "round", rec.Round)
	}
}

// RecordComplete implements Observer.
func (o *LogObserver) RecordComplete(result *LoopResult) {
	o.logger.Info("reflection finished",
		"query", result.Query,
		"final_gini", result.FinalGini,
		"rounds", len(result.Rounds),
		"reason", result.Reason,
		"converged", result.Converged)
}
