package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnpipe/internal/cli/output"
	"github.com/leapstack-labs/churnpipe/internal/dataset"
	"github.com/leapstack-labs/churnpipe/internal/pipeline"
)

// NewTrainCommand creates the train command.
func NewTrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the classifier on the processed dataset",
		Long: `Train reads the processed dataset, splits it with stratified
sampling, fits the gradient-boosted classifier and records parameters,
metrics, the model artifact and the split references to the tracking
store under the configured experiment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := loggerFrom(cmd)
			r := output.New(cmd.OutOrStdout(), output.Mode(cfg.Format))

			opts := dataset.CSVOptions{Delimiter: cfg.DelimiterRune(), Encoding: cfg.Encoding}
			t, err := dataset.ReadCSV(cfg.Processed, opts)
			if err != nil {
				return err
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runID, metrics, err := pipeline.New(cfg, store, logger).Train(cmd.Context(), t, cfg.Processed)
			if err != nil {
				return err
			}
			return r.Metrics(runID, metrics)
		},
	}
}
