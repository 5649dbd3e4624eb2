package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/alexshd/fairloop"
	"github.com/spf13/cobra"
)

func sweepCmd(a *app) *cobra.Command {
	var (
		src    voteSource
		query  string
		alphas []float64
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "sweep [votes...]",
		Short: "Compare reflection runs across alpha values",
		Long: `Run one reflection per alpha value, concurrently, over the same
votes. Every other parameter comes from configuration and flags.`,
		Example: `  fairloop sweep --alphas 0,0.25,0.5,0.75
  fairloop sweep --alphas 0.1,0.2 --target 0.2 1 2 3 10`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(a.v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(alphas) == 0 {
				return fmt.Errorf("--alphas needs at least one value")
			}

			votes, err := src.votes(args)
			if err != nil {
				return err
			}

			base, err := loopConfig(a.v)
			if err != nil {
				return err
			}

			configs := make([]fairloop.LoopConfig, len(alphas))
			for i, alpha := range alphas {
				configs[i] = base
				configs[i].Alpha = alpha
			}

			recorder := fairloop.NewTraceRecorder()
			results, err := fairloop.Sweep(cmd.Context(), query, votes, configs, limit, fairloop.WithObserver(recorder))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ALPHA\tROUNDS\tINITIAL\tFINAL\tREASON")
			for i, res := range results {
				reason := string(res.Reason)
				if res.Converged {
					reason = green(reason)
				} else {
					reason = yellow(reason)
				}
				fmt.Fprintf(tw, "%.2f\t%d\t%.4f\t%.4f\t%s\n", configs[i].Alpha, len(res.Rounds), res.InitialGini, res.FinalGini, reason)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			s := recorder.Summary()
			fmt.Fprintf(a.out, "%s %d/%d converged, mean %.1f rounds, mean final Gini %.4f\n",
				bold("Summary:"), s.ConvergedRuns, s.Runs, s.MeanRounds, s.MeanFinalGini)

			a.logger.Debug("sweep finished", "runs", s.Runs, "converged", s.ConvergedRuns)
			return nil
		},
	}

	src.register(cmd)
	loopFlags(cmd)
	cmd.Flags().StringVarP(&query, "query", "q", defaultQuery, "Question the votes answer")
	cmd.Flags().Float64SliceVar(&alphas, "alphas", []float64{0, 0.25, 0.5, 0.75}, "Alpha values to compare")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum concurrent runs (0 = unbounded)")

	return cmd
}
