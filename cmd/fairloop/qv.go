package main

import (
	"fmt"

	"github.com/alexshd/fairloop"
	"github.com/spf13/cobra"
)

func qvCmd(a *app) *cobra.Command {
	var src voteSource

	cmd := &cobra.Command{
		Use:   "qv [votes...]",
		Short: "Apply quadratic voting to a distribution",
		Long: `Cap each vote at ⌊√credits⌋ and square it, then report the Gini
coefficient before and after.`,
		Example: `  fairloop qv 1 2 3 10
  fairloop qv --credits 16 --file votes.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			votes, err := src.votes(args)
			if err != nil {
				return err
			}
			if votes == nil {
				votes = referenceVotes
			}

			credits := a.v.GetFloat64(keyCredits)
			maxV, err := fairloop.QuadraticCap(credits)
			if err != nil {
				return err
			}

			adjusted, err := fairloop.ApplyQuadraticVoting(votes, credits)
			if err != nil {
				return err
			}

			before, err := fairloop.ComputeGini(votes)
			if err != nil {
				return err
			}
			after, err := fairloop.ComputeGini(adjusted)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s %g credits per voter (cap %g)\n", bold("Quadratic voting:"), credits, maxV)
			if len(votes) <= 20 {
				fmt.Fprintf(a.out, "  votes:    %s\n", formatVotes(votes))
				fmt.Fprintf(a.out, "  adjusted: %s\n", formatVotes(adjusted))
			}
			fmt.Fprintf(a.out, "  Gini: %.4f → %s\n", before, green(fmt.Sprintf("%.4f", after)))
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().Float64("credits", fairloop.DefaultCreditsPerVoter, "Quadratic voting credits per voter")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(a.v, cmd)
	}

	return cmd
}
