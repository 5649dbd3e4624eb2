package main

import (
	"fmt"

	"github.com/alexshd/fairloop"
	"github.com/spf13/cobra"
)

func giniCmd(a *app) *cobra.Command {
	var src voteSource

	cmd := &cobra.Command{
		Use:   "gini [votes...]",
		Short: "Compute the Gini coefficient and concentration statistics",
		Long: `Compute the Gini coefficient of a vote distribution, with tail and
majority statistics. Votes come from arguments or a CSV file; with
neither, the reference distribution [1, 2, 3, 10] is scored.`,
		Example: `  fairloop gini 1 2 3 10
  fairloop gini --file data/sample_dao_votes.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			votes, err := src.votes(args)
			if err != nil {
				return err
			}

			label := "Sample DAO Gini"
			if votes == nil {
				votes = referenceVotes
				label = fmt.Sprintf("Test Gini (%s)", formatVotes(votes))
			} else if src.file == "" {
				label = fmt.Sprintf("Gini (%s)", formatVotes(votes))
			}

			stats, err := fairloop.Concentration(votes)
			if err != nil {
				return err
			}

			zone := fairloop.NewGovernor(a.v.GetFloat64(keyTargetGini)).Classify(stats.Gini)
			a.logger.Debug("scored distribution", "voters", stats.Voters, "gini", stats.Gini, "zone", zone)

			fmt.Fprintf(a.out, "%s: %.4f\n", label, stats.Gini)
			printConcentration(a.out, stats, zone)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().Float64("target", fairloop.DefaultTargetGini, "Fairness target used to classify the score")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(a.v, cmd)
	}

	return cmd
}
