package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnpipe/internal/dataset"
	"github.com/leapstack-labs/churnpipe/internal/pipeline"
)

// NewPrepareCommand creates the prepare command.
func NewPrepareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Clean and encode the raw dataset, writing the processed file",
		Long: `Prepare loads the raw dataset, runs preprocessing and feature
encoding and writes the fully numeric table to the processed path. No
model is trained and nothing is recorded to the tracking store.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := loggerFrom(cmd)

			p := pipeline.New(cfg, nil, logger)
			t, err := p.Load()
			if err != nil {
				return err
			}
			if err := p.Prepare(t); err != nil {
				return err
			}
			opts := dataset.CSVOptions{Delimiter: cfg.DelimiterRune(), Encoding: cfg.Encoding}
			if err := dataset.WriteCSV(t, cfg.Processed, opts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed dataset written to %s (%d rows, %d columns)\n",
				cfg.Processed, t.NumRows(), t.NumCols())
			return nil
		},
	}
}
