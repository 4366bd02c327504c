package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnpipe/internal/cli/output"
	"github.com/leapstack-labs/churnpipe/internal/pipeline"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the raw dataset against schema and business rules",
		Long: `Validate loads the raw dataset and runs the full check suite:
required columns, null constraints, categorical domains, numeric ranges
and the charges-consistency rule. The command exits non-zero when any
check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := loggerFrom(cmd)
			r := output.New(cmd.OutOrStdout(), output.Mode(cfg.Format))

			p := pipeline.New(cfg, nil, logger)
			t, err := p.Load()
			if err != nil {
				return err
			}

			report := p.Validate(t)
			if err := r.Report(report); err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("validation failed: %d check(s) failed", report.FailedCount)
			}
			return nil
		},
	}
}
