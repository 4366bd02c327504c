// Package cli provides the command-line interface for churnpipe.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnpipe/internal/cli/commands"
	cliconfig "github.com/leapstack-labs/churnpipe/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "churnpipe",
		Short: "churnpipe - churn dataset preparation and training pipeline",
		Long: `churnpipe prepares the Telco customer-churn dataset for model training:
it loads a raw delimited file, cleans and validates it, encodes categorical
columns into numeric features, trains a gradient-boosted classifier and
records parameters, metrics and artifacts to a local tracking store.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := cliconfig.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./churnpipe.yaml)")
	flags.String("input", "", "path to the raw dataset")
	flags.String("processed", "", "path the processed dataset is written to")
	flags.String("target-column", "", "target column name")
	flags.String("delimiter", "", "field delimiter of input and output files")
	flags.String("encoding", "", "charset of the input file")
	flags.String("tracking-path", "", "path to the tracking database")
	flags.String("experiment", "", "experiment name runs are recorded under")
	flags.String("artifacts-dir", "", "directory model artifacts are written to")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.StringP("format", "f", "", "output format (text|json)")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewPrepareCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewTrainCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
