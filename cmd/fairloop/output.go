package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alexshd/fairloop"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func zoneColor(z fairloop.Zone) func(a ...interface{}) string {
	switch z {
	case fairloop.ZoneEquitable:
		return green
	case fairloop.ZoneModerate:
		return cyan
	case fairloop.ZoneConcentrated:
		return yellow
	default:
		return red
	}
}

func formatZone(z fairloop.Zone) string {
	return zoneColor(z)(string(z))
}

func formatVotes(votes []float64) string {
	parts := make([]string, len(votes))
	for i, v := range votes {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// consoleObserver narrates a reflection run for humans. It replaces the
// prints of an interactive demo; the loop itself stays silent.
type consoleObserver struct {
	w        io.Writer
	governor *fairloop.Governor
}

func newConsoleObserver(w io.Writer, targetGini float64) *consoleObserver {
	return &consoleObserver{w: w, governor: fairloop.NewGovernor(targetGini)}
}

func (c *consoleObserver) RecordStart(query string, initialGini float64, voters int) {
	a := c.governor.Assess(initialGini)
	fmt.Fprintf(c.w, "%s %s\n", bold("Reflection:"), query)
	fmt.Fprintf(c.w, "  Initial Gini: %.4f  %s  %s\n", initialGini, formatZone(a.Zone), gray(fmt.Sprintf("(%d voters)", voters)))
}

func (c *consoleObserver) RecordRound(rec fairloop.RoundRecord) {
	a := c.governor.Assess(rec.GiniAfter)
	fmt.Fprintf(c.w, "  Round %d: %.4f → %.4f  %s\n", rec.Round, rec.GiniBefore, rec.GiniAfter, formatZone(a.Zone))
	fmt.Fprintf(c.w, "    %s\n", gray("retrieved: "+rec.Retrieval))
	fmt.Fprintf(c.w, "    %s\n", gray(fmt.Sprintf("critique: %s (×%.4f)", rec.Factors.Note, rec.Multiplier)))
	if rec.Converged {
		fmt.Fprintf(c.w, "  %s\n", green(fmt.Sprintf("Converged early at round %d", rec.Round)))
	}
}

func (c *consoleObserver) RecordComplete(result *fairloop.LoopResult) {
	verdict := green("converged")
	if !result.Converged {
		verdict = yellow(string(result.Reason))
	}
	fmt.Fprintf(c.w, "%s %.4f (%s after %d rounds)\n", bold("Final Gini:"), result.FinalGini, verdict, len(result.Rounds))
}

func printConcentration(w io.Writer, stats fairloop.ConcentrationStats, zone fairloop.Zone) {
	fmt.Fprintf(w, "%s %.4f  %s\n", bold("Gini:"), stats.Gini, formatZone(zone))
	fmt.Fprintf(w, "  voters %d  total %.4g  mean %.4g\n", stats.Voters, stats.Total, stats.Mean)
	fmt.Fprintf(w, "  p50 %.4g  p99 %.4g  tail ratio %.2f  pareto index %.2f\n",
		stats.P50, stats.P99, stats.TailRatio, stats.ParetoIndex)
	fmt.Fprintf(w, "  top decile %.1f%%  nakamoto %d\n", stats.TopDecileShare*100, stats.Nakamoto)

	switch {
	case stats.IsPowerLaw:
		fmt.Fprintf(w, "  %s\n", red("power-law tail: a few voters dominate"))
	case stats.IsBalanced:
		fmt.Fprintf(w, "  %s\n", green("balanced tail"))
	default:
		fmt.Fprintf(w, "  %s\n", yellow("skewed tail"))
	}
}

func printProjection(w io.Writer, p fairloop.Projection, targetGini float64) {
	rounds := len(p.Trace) - 1
	switch {
	case p.Collapsed:
		fmt.Fprintf(w, "%s every vote fades to zero within %d rounds\n", bold("Projection:"), rounds)
	case p.Period > 0:
		fmt.Fprintf(w, "%s Gini settles at %.4f (period %d)\n", bold("Projection:"), p.Limit, p.Period)
	default:
		fmt.Fprintf(w, "%s no steady state within %d rounds (amplitude %.4f)\n", bold("Projection:"), rounds, p.Amplitude)
	}

	if p.Reachable {
		fmt.Fprintf(w, "  %s\n", yellow(fmt.Sprintf("target %.2f reachable: best %.4f at round %d", targetGini, p.BestGini, p.BestRound)))
	} else {
		fmt.Fprintf(w, "  %s\n", red(fmt.Sprintf("target %.2f unreachable: best %.4f at round %d", targetGini, p.BestGini, p.BestRound)))
	}
}
