package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnpipe/internal/cli/output"
	"github.com/leapstack-labs/churnpipe/internal/config"
	"github.com/leapstack-labs/churnpipe/internal/pipeline"
	"github.com/leapstack-labs/churnpipe/internal/tracking"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: load, validate, prepare, train",
		Long: `Run executes the full pipeline over the raw dataset: load, validate
against the schema and business rules, preprocess, encode features, write
the processed table and train the classifier. The run is recorded to the
tracking store.`,
		Example: `  # Run with defaults from churnpipe.yaml
  churnpipe run

  # Run against another file, JSON output
  churnpipe run --input data/raw/other.csv --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := loggerFrom(cmd)
			r := output.New(cmd.OutOrStdout(), output.Mode(cfg.Format))

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := pipeline.New(cfg, store, logger).Run(cmd.Context())
			if err != nil {
				if result != nil && !result.Report.Success {
					_ = r.Report(result.Report)
				}
				return err
			}
			if err := r.Report(result.Report); err != nil {
				return err
			}
			return r.Metrics(result.RunID, result.Metrics)
		},
	}
}

// openStore opens the configured tracking database, creating its parent
// directory first.
func openStore(cfg *config.Config, logger *slog.Logger) (*tracking.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.TrackingPath); dir != "." && cfg.TrackingPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create tracking directory: %w", err)
		}
	}
	store := tracking.NewSQLiteStore(logger)
	if err := store.Open(cfg.TrackingPath); err != nil {
		return nil, err
	}
	return store, nil
}
