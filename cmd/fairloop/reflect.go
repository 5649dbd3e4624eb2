package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alexshd/fairloop"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultQuery = "DAO treasury allocation"

// traceFile is the YAML document written by reflect --trace-out.
type traceFile struct {
	RunID  string               `yaml:"run_id"`
	Config traceConfig          `yaml:"config"`
	Result *fairloop.LoopResult `yaml:"result"`
}

type traceConfig struct {
	Iterations      int     `yaml:"iterations"`
	TargetGini      float64 `yaml:"target_gini"`
	Alpha           float64 `yaml:"alpha"`
	Beta            float64 `yaml:"beta"`
	CreditsPerVoter float64 `yaml:"credits_per_voter"`
	Seed            uint64  `yaml:"seed"`
	Synthetic       bool    `yaml:"synthetic"`
}

func reflectCmd(a *app) *cobra.Command {
	var (
		src         voteSource
		query       string
		traceOut    string
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "reflect [votes...]",
		Short: "Run the reflection loop",
		Long: `Run retrieve → adjust → reflect → measure rounds until the Gini
coefficient falls below the target or the round budget is spent.

Without votes, a seeded synthetic baseline of exponentially distributed
weights is used.`,
		Example: `  fairloop reflect
  fairloop reflect --target 0.2 --iterations 5 1 2 3 10
  fairloop reflect --file votes.csv --trace-out run.yaml`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(a.v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			votes, err := src.votes(args)
			if err != nil {
				return err
			}

			cfg, err := loopConfig(a.v)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			logger := a.logger.With("run_id", runID)

			reg := prometheus.NewRegistry()
			metrics := fairloop.MustNewMetrics(reg)

			observers := fairloop.Observers{
				newConsoleObserver(a.out, cfg.TargetGini),
				fairloop.NewLogObserver(logger, cfg.TargetGini),
				metrics,
			}

			loop, err := fairloop.NewLoop(cfg, fairloop.WithObserver(observers))
			if err != nil {
				return err
			}

			result, err := loop.Run(cmd.Context(), query, votes)
			if err != nil {
				return fmt.Errorf("reflection %s: %w", runID, err)
			}

			if !result.Converged {
				p, err := fairloop.Project(cfg, votes, fairloop.DefaultProjectionConfig())
				if err != nil {
					return fmt.Errorf("project: %w", err)
				}
				printProjection(a.out, p, cfg.TargetGini)
			}

			if traceOut != "" {
				doc := traceFile{
					RunID: runID,
					Config: traceConfig{
						Iterations:      cfg.Iterations,
						TargetGini:      cfg.TargetGini,
						Alpha:           cfg.Alpha,
						Beta:            cfg.Beta,
						CreditsPerVoter: cfg.CreditsPerVoter,
						Seed:            cfg.Seed,
						Synthetic:       votes == nil,
					},
					Result: result,
				}
				if err := writeTrace(traceOut, doc); err != nil {
					return err
				}
				logger.Info("trace written", "path", traceOut)
			}

			if showMetrics {
				if err := printMetrics(a.out, reg); err != nil {
					return err
				}
			}

			return nil
		},
	}

	src.register(cmd)
	loopFlags(cmd)
	cmd.Flags().StringVarP(&query, "query", "q", defaultQuery, "Question the votes answer")
	cmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the run trace as YAML to this path")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print loop metrics after the run")

	return cmd
}

func writeTrace(path string, doc traceFile) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintln(w, bold("Metrics:"))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)

			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "  %s %g\n", name, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "  %s %g\n", name, m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "  %s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
