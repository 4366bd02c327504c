// Package pipeline sequences the churn preparation stages: load,
// validate, preprocess, encode, persist and train, recording every run
// to the tracking store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/leapstack-labs/churnpipe/internal/config"
	"github.com/leapstack-labs/churnpipe/internal/dataset"
	"github.com/leapstack-labs/churnpipe/internal/feature"
	"github.com/leapstack-labs/churnpipe/internal/model"
	"github.com/leapstack-labs/churnpipe/internal/prep"
	"github.com/leapstack-labs/churnpipe/internal/tracking"
	"github.com/leapstack-labs/churnpipe/internal/validate"
)

// Pipeline wires the stages together against one configuration and
// tracking store.
type Pipeline struct {
	cfg    *config.Config
	store  tracking.Store
	logger *slog.Logger
}

// Result is what a full pipeline run produces.
type Result struct {
	RunID     string
	Report    validate.Report
	Metrics   model.Metrics
	ModelPath string
	Processed string
}

// New builds a pipeline. A nil logger discards output.
func New(cfg *config.Config, store tracking.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, store: store, logger: logger}
}

// Load reads the raw dataset.
func (p *Pipeline) Load() (*dataset.Table, error) {
	p.logger.Info("loading dataset", "path", p.cfg.Input)
	t, err := dataset.ReadCSV(p.cfg.Input, p.csvOptions())
	if err != nil {
		return nil, err
	}
	p.logger.Info("dataset loaded", "rows", t.NumRows(), "columns", t.NumCols())
	return t, nil
}

// Validate checks the raw table against the schema and business rules.
func (p *Pipeline) Validate(t *dataset.Table) validate.Report {
	return validate.New(p.logger).Check(t)
}

// Prepare cleans and encodes the table in place, asserting the target
// invariant in between.
func (p *Pipeline) Prepare(t *dataset.Table) error {
	if err := prep.New(p.cfg.TargetColumn, p.logger).Clean(t); err != nil {
		return err
	}
	if err := p.assertTarget(t); err != nil {
		return err
	}
	return feature.New(p.cfg.TargetColumn, p.logger).Encode(t)
}

// assertTarget enforces the post-preprocessing invariant: the target is
// an integer column with no nulls and only 0/1 values.
func (p *Pipeline) assertTarget(t *dataset.Table) error {
	col, ok := t.Column(p.cfg.TargetColumn)
	if !ok {
		return fmt.Errorf("%w: %s", dataset.ErrColumnNotFound, p.cfg.TargetColumn)
	}
	if col.Type() != dataset.Int {
		return fmt.Errorf("target column %s is not integer after preprocessing", p.cfg.TargetColumn)
	}
	for i := 0; i < col.Len(); i++ {
		v, ok := col.IntAt(i)
		if !ok {
			return fmt.Errorf("target column %s has missing values after preprocessing", p.cfg.TargetColumn)
		}
		if v != 0 && v != 1 {
			return fmt.Errorf("target column %s has value %d outside {0,1}", p.cfg.TargetColumn, v)
		}
	}
	return nil
}

// Run executes the full pipeline and records it as one tracked run. A
// failed validation report aborts before training; store failures
// propagate unretried.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	raw, err := p.Load()
	if err != nil {
		return nil, err
	}

	run, err := p.store.CreateRun(p.cfg.Experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	p.logger.Info("run started", "run_id", run.ID, "experiment", p.cfg.Experiment)

	result, err := p.runStages(ctx, run.ID, raw)
	if err != nil {
		_ = p.store.CompleteRun(run.ID, tracking.RunStatusFailed, err.Error())
		p.logger.Error("run failed", "run_id", run.ID, "error", err)
		return result, err
	}

	if err := p.store.CompleteRun(run.ID, tracking.RunStatusCompleted, ""); err != nil {
		return result, fmt.Errorf("failed to complete run: %w", err)
	}
	p.logger.Info("run completed", "run_id", run.ID)
	result.RunID = run.ID
	return result, nil
}

func (p *Pipeline) runStages(ctx context.Context, runID string, raw *dataset.Table) (*Result, error) {
	result := &Result{RunID: runID}

	result.Report = p.Validate(raw)
	if path, err := p.writeReport(result.Report); err != nil {
		p.logger.Warn("could not write validation report", "error", err)
	} else if err := p.store.LogArtifact(runID, "validation_report", path); err != nil {
		return result, err
	}
	if !result.Report.Success {
		return result, fmt.Errorf("validation failed: %d check(s) failed", result.Report.FailedCount)
	}

	if err := p.Prepare(raw); err != nil {
		return result, err
	}

	if err := dataset.WriteCSV(raw, p.cfg.Processed, p.csvOptions()); err != nil {
		return result, err
	}
	result.Processed = p.cfg.Processed
	p.logger.Info("processed dataset written", "path", p.cfg.Processed, "rows", raw.NumRows(), "columns", raw.NumCols())

	metrics, modelPath, err := p.trainInto(ctx, runID, raw, p.cfg.Input)
	if err != nil {
		return result, err
	}
	result.Metrics = metrics
	result.ModelPath = modelPath
	return result, nil
}

// Train fits a classifier on an already prepared table under a fresh
// tracked run and returns its id with the held-out metrics.
func (p *Pipeline) Train(ctx context.Context, t *dataset.Table, source string) (string, model.Metrics, error) {
	run, err := p.store.CreateRun(p.cfg.Experiment)
	if err != nil {
		return "", model.Metrics{}, fmt.Errorf("failed to create run: %w", err)
	}

	metrics, _, err := p.trainInto(ctx, run.ID, t, source)
	if err != nil {
		_ = p.store.CompleteRun(run.ID, tracking.RunStatusFailed, err.Error())
		return run.ID, metrics, err
	}
	if err := p.store.CompleteRun(run.ID, tracking.RunStatusCompleted, ""); err != nil {
		return run.ID, metrics, fmt.Errorf("failed to complete run: %w", err)
	}
	return run.ID, metrics, nil
}

// trainInto fits, evaluates and records everything against an existing
// run.
func (p *Pipeline) trainInto(_ context.Context, runID string, t *dataset.Table, source string) (model.Metrics, string, error) {
	X, y, err := featureMatrix(t, p.cfg.TargetColumn)
	if err != nil {
		return model.Metrics{}, "", err
	}

	XTrain, XTest, yTrain, yTest := model.StratifiedSplit(X, y, p.cfg.TestSize, p.cfg.Seed)
	p.logger.Info("split dataset", "train_rows", len(XTrain), "test_rows", len(XTest))

	clf := model.NewGBTClassifier(
		model.WithNEstimators(p.cfg.NEstimators),
		model.WithLearningRate(p.cfg.LearningRate),
		model.WithMaxDepth(p.cfg.MaxDepth),
		model.WithRandomState(p.cfg.Seed),
	)
	if err := p.store.LogParams(runID, clf.Params()); err != nil {
		return model.Metrics{}, "", err
	}

	p.logger.Info("training classifier", "trees", clf.NEstimators, "max_depth", clf.MaxDepth, "learning_rate", clf.LearningRate)
	if err := clf.Fit(XTrain, yTrain); err != nil {
		return model.Metrics{}, "", err
	}

	proba, err := clf.PredictProba(XTest)
	if err != nil {
		return model.Metrics{}, "", err
	}
	preds := model.BinaryPredFromProba(proba, 0.5)
	metrics := model.Evaluate(yTest, preds, proba)
	p.logger.Info("training complete",
		"accuracy", metrics.Accuracy, "recall", metrics.Recall,
		"f1", metrics.F1, "roc_auc", metrics.ROCAUC)

	for key, value := range map[string]float64{
		"accuracy":  metrics.Accuracy,
		"precision": metrics.Precision,
		"recall":    metrics.Recall,
		"f1_score":  metrics.F1,
		"roc_auc":   metrics.ROCAUC,
	} {
		if err := p.store.LogMetric(runID, key, value); err != nil {
			return metrics, "", err
		}
	}

	modelPath := filepath.Join(p.cfg.ArtifactsDir, "model.gob")
	if err := os.MkdirAll(p.cfg.ArtifactsDir, 0o755); err != nil {
		return metrics, "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	if err := clf.Save(modelPath); err != nil {
		return metrics, "", err
	}
	if err := p.store.LogArtifact(runID, "model", modelPath); err != nil {
		return metrics, "", err
	}

	if err := p.store.LogInput(runID, tracking.Input{Context: "training", Source: source, Rows: len(XTrain)}); err != nil {
		return metrics, "", err
	}
	if err := p.store.LogInput(runID, tracking.Input{Context: "testing", Source: source, Rows: len(XTest)}); err != nil {
		return metrics, "", err
	}

	return metrics, modelPath, nil
}

// writeReport persists the validation report as a JSON artifact.
func (p *Pipeline) writeReport(report validate.Report) (string, error) {
	if err := os.MkdirAll(p.cfg.ArtifactsDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(p.cfg.ArtifactsDir, "validation_report.json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Pipeline) csvOptions() dataset.CSVOptions {
	return dataset.CSVOptions{Delimiter: p.cfg.DelimiterRune(), Encoding: p.cfg.Encoding}
}

// featureMatrix converts every non-target column to float features and
// the target to int labels. Encoding must have run first: a remaining
// string column is an error.
func featureMatrix(t *dataset.Table, targetCol string) ([][]float64, []int, error) {
	target, ok := t.Column(targetCol)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", dataset.ErrColumnNotFound, targetCol)
	}

	var features []*dataset.Series
	for _, name := range t.Columns() {
		if name == targetCol {
			continue
		}
		col, _ := t.Column(name)
		if col.Type() != dataset.Float && col.Type() != dataset.Int {
			return nil, nil, fmt.Errorf("%w: column %s is not numeric", dataset.ErrTypeMismatch, name)
		}
		features = append(features, col)
	}

	n := t.NumRows()
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(features))
		for j, col := range features {
			v, ok := col.FloatAt(i)
			if !ok {
				return nil, nil, fmt.Errorf("column %s has a missing value at row %d", col.Name(), i)
			}
			row[j] = v
		}
		X[i] = row
		label, ok := target.IntAt(i)
		if !ok {
			return nil, nil, fmt.Errorf("target column has a missing value at row %d", i)
		}
		y[i] = int(label)
	}
	return X, y, nil
}
