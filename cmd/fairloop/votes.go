package main

import (
	"fmt"
	"strconv"

	"github.com/alexshd/fairloop/internal/votefile"
	"github.com/spf13/cobra"
)

// referenceVotes is the four-voter distribution used when no input is given.
var referenceVotes = []float64{1, 2, 3, 10}

type voteSource struct {
	file   string
	column string
}

func (s *voteSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "CSV file with one row per voter")
	cmd.Flags().StringVar(&s.column, "column", votefile.DefaultColumn, "CSV column holding the votes")
}

// votes returns the votes given as arguments or in the CSV file, or nil when
// neither is set.
func (s *voteSource) votes(args []string) ([]float64, error) {
	if s.file != "" && len(args) > 0 {
		return nil, fmt.Errorf("pass votes as arguments or with --file, not both")
	}

	if s.file != "" {
		return votefile.Load(s.file, s.column)
	}

	if len(args) == 0 {
		return nil, nil
	}

	votes := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("vote %d: %q is not a number", i+1, arg)
		}
		votes[i] = v
	}
	return votes, nil
}
