package fairloop

import (
	"fmt"
	"log/slog"
	"sync"
)

// Zone boundaries above the target. Below the target a distribution is
// equitable by definition.
const (
	ConcentratedThreshold = 0.5 // Gini ≥ 0.5 → concentrated
	PlutocraticThreshold  = 0.7 // Gini ≥ 0.7 → whale-dominated
)

// Zone classifies a Gini score.
type Zone string

const (
	ZoneEquitable    Zone = "EQUITABLE"    // Gini < target: goal reached
	ZoneModerate     Zone = "MODERATE"     // target ≤ Gini < 0.5: refine further
	ZoneConcentrated Zone = "CONCENTRATED" // 0.5 ≤ Gini < 0.7: a few voters dominate
	ZonePlutocratic  Zone = "PLUTOCRATIC"  // Gini ≥ 0.7: whales decide outcomes
)

// Level maps a zone onto a log level: the further from fair, the louder.
func (z Zone) Level() slog.Level {
	switch z {
	case ZoneEquitable:
		return slog.LevelInfo
	case ZoneModerate:
		return slog.LevelInfo
	case ZoneConcentrated:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Assessment is the governor's verdict on one score.
type Assessment struct {
	Zone     Zone
	Gini     float64
	Velocity float64 // ΔGini since the previous assessment (0 on the first)
	Margin   float64 // Gini − target; negative once equitable
	Reason   string
}

// Governor tracks a sequence of Gini scores against a fairness target.
//
// Control loop:
//   - Classify each score into a zone
//   - Track ΔGini per assessment (velocity)
//   - Count warnings (concentrated or plutocratic scores)
//   - Count crossings into the equitable zone
type Governor struct {
	mu sync.Mutex

	// Thresholds
	targetGini            float64
	concentratedThreshold float64
	plutocraticThreshold  float64

	// History
	history   []float64
	warnings  int
	crossings int
}

// NewGovernor creates a governor with standard thresholds around targetGini.
func NewGovernor(targetGini float64) *Governor {
	return &Governor{
		targetGini:            targetGini,
		concentratedThreshold: ConcentratedThreshold,
		plutocraticThreshold:  PlutocraticThreshold,
	}
}

// Classify returns the zone of a score without recording it.
func (g *Governor) Classify(gini float64) Zone {
	switch {
	case gini < g.targetGini:
		return ZoneEquitable
	case gini >= g.plutocraticThreshold:
		return ZonePlutocratic
	case gini >= g.concentratedThreshold:
		return ZoneConcentrated
	default:
		return ZoneModerate
	}
}

// Assess classifies a score and records it in the governor's history.
func (g *Governor) Assess(gini float64) Assessment {
	g.mu.Lock()
	defer g.mu.Unlock()

	zone := g.Classify(gini)

	var velocity float64
	previousZone := Zone("")
	if len(g.history) > 0 {
		prev := g.history[len(g.history)-1]
		velocity = gini - prev
		previousZone = g.Classify(prev)
	}
	g.history = append(g.history, gini)

	a := Assessment{
		Zone:     zone,
		Gini:     gini,
		Velocity: velocity,
		Margin:   gini - g.targetGini,
	}

	switch zone {
	case ZoneEquitable:
		if previousZone != "" && previousZone != ZoneEquitable {
			g.crossings++
		}
		a.Reason = fmt.Sprintf("EQUITABLE: gini=%.4f below target %.2f (margin %.4f)", gini, g.targetGini, a.Margin)
	case ZoneModerate:
		a.Reason = fmt.Sprintf("MODERATE: gini=%.4f, %.4f above target %.2f, velocity %+.4f", gini, a.Margin, g.targetGini, velocity)
	case ZoneConcentrated:
		g.warnings++
		a.Reason = fmt.Sprintf("CONCENTRATED: gini=%.4f ≥ %.2f, a minority of voters dominates (velocity %+.4f)",
			gini, g.concentratedThreshold, velocity)
	case ZonePlutocratic:
		g.warnings++
		a.Reason = fmt.Sprintf("PLUTOCRATIC: gini=%.4f ≥ %.2f, whale votes decide outcomes (velocity %+.4f)",
			gini, g.plutocraticThreshold, velocity)
	}

	return a
}

// Reset clears the history and counters, keeping the thresholds.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.history = nil
	g.warnings = 0
	g.crossings = 0
}

// GovernorStatistics is a snapshot of the governor's counters.
type GovernorStatistics struct {
	TargetGini    float64
	CurrentGini   float64
	InitialGini   float64
	CurrentZone   Zone
	Assessments   int
	Warnings      int
	Crossings     int
	TotalVelocity float64 // Current − initial
}

// Statistics returns the governor's counters.
func (g *Governor) Statistics() GovernorStatistics {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := GovernorStatistics{
		TargetGini:  g.targetGini,
		Assessments: len(g.history),
		Warnings:    g.warnings,
		Crossings:   g.crossings,
	}
	if len(g.history) > 0 {
		stats.InitialGini = g.history[0]
		stats.CurrentGini = g.history[len(g.history)-1]
		stats.CurrentZone = g.Classify(stats.CurrentGini)
		stats.TotalVelocity = stats.CurrentGini - stats.InitialGini
	}
	return stats
}
