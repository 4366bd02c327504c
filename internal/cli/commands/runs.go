package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnpipe/internal/cli/output"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long:  `Runs lists the runs recorded in the tracking store, newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := loggerFrom(cmd)
			r := output.New(cmd.OutOrStdout(), output.Mode(cfg.Format))

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			experiment := cfg.Experiment
			if all {
				experiment = ""
			}
			runs, err := store.ListRuns(experiment)
			if err != nil {
				return err
			}
			return r.Runs(runs)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list runs of every experiment")
	return cmd
}
