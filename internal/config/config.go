// Package config provides shared configuration types for churnpipe.
// It is decoupled from CLI concerns so the pipeline can be embedded.
package config

import (
	"fmt"
	"unicode/utf8"
)

// Config holds all pipeline configuration.
type Config struct {
	// Input is the path of the raw delimited dataset.
	Input string `koanf:"input"`
	// Processed is the path the fully numeric table is written to.
	Processed string `koanf:"processed"`
	// TargetColumn is the label column name.
	TargetColumn string `koanf:"target_column"`
	// Delimiter is the field separator of input and output files.
	Delimiter string `koanf:"delimiter"`
	// Encoding is the IANA charset name of the input file.
	Encoding string `koanf:"encoding"`

	// TrackingPath is the SQLite tracking database path.
	TrackingPath string `koanf:"tracking_path"`
	// Experiment is the experiment name runs are recorded under.
	Experiment string `koanf:"experiment"`
	// ArtifactsDir is where model artifacts and reports are written.
	ArtifactsDir string `koanf:"artifacts_dir"`

	// Training hyperparameters.
	TestSize     float64 `koanf:"test_size"`
	Seed         int64   `koanf:"seed"`
	NEstimators  int     `koanf:"n_estimators"`
	LearningRate float64 `koanf:"learning_rate"`
	MaxDepth     int     `koanf:"max_depth"`

	Verbose bool `koanf:"verbose"`
	// Format selects renderer output: text or json.
	Format string `koanf:"format"`
}

// Default configuration values.
const (
	DefaultInput        = "data/raw/Dataset.csv"
	DefaultProcessed    = "data/processed/Dataset_processed.csv"
	DefaultTargetColumn = "Churn"
	DefaultDelimiter    = ","
	DefaultEncoding     = "utf-8"
	DefaultTrackingPath = ".churnpipe/tracking.db"
	DefaultExperiment   = "telco_churn_gbt"
	DefaultArtifactsDir = "artifacts"
	DefaultTestSize     = 0.2
	DefaultSeed         = 42
	DefaultNEstimators  = 300
	DefaultLearningRate = 0.1
	DefaultMaxDepth     = 6
	DefaultFormat       = "text"
)

// Defaults returns the default configuration as a map for layering under
// file, environment and flag providers.
func Defaults() map[string]any {
	return map[string]any{
		"input":         DefaultInput,
		"processed":     DefaultProcessed,
		"target_column": DefaultTargetColumn,
		"delimiter":     DefaultDelimiter,
		"encoding":      DefaultEncoding,
		"tracking_path": DefaultTrackingPath,
		"experiment":    DefaultExperiment,
		"artifacts_dir": DefaultArtifactsDir,
		"test_size":     DefaultTestSize,
		"seed":          int64(DefaultSeed),
		"n_estimators":  DefaultNEstimators,
		"learning_rate": DefaultLearningRate,
		"max_depth":     DefaultMaxDepth,
		"verbose":       false,
		"format":        DefaultFormat,
	}
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.TargetColumn == "" {
		return fmt.Errorf("target_column is required")
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0,1), got %v", c.TestSize)
	}
	if c.NEstimators <= 0 {
		return fmt.Errorf("n_estimators must be positive, got %d", c.NEstimators)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive, got %v", c.LearningRate)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", c.Format)
	}
	return nil
}
