// Package tracking records experiment runs, parameters, metrics and
// artifacts to a SQLite database. It is the pipeline's stand-in for a
// hosted experiment tracker: everything a run produces lands here.
package tracking

import (
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID          string
	Experiment  string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Metric is a named scalar logged against a run.
type Metric struct {
	Key   string
	Value float64
}

// Artifact is a named file reference logged against a run.
type Artifact struct {
	Name string
	Path string
}

// Input is a dataset reference logged against a run.
type Input struct {
	Context string // e.g. "training", "testing"
	Source  string
	Rows    int
}

// Store is the tracking interface the pipeline records to.
type Store interface {
	CreateRun(experiment string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(experiment string) ([]*Run, error)

	LogParam(runID, key, value string) error
	LogParams(runID string, params map[string]string) error
	LogMetric(runID, key string, value float64) error
	GetMetrics(runID string) ([]Metric, error)
	LogArtifact(runID, name, path string) error
	ListArtifacts(runID string) ([]Artifact, error)
	LogInput(runID string, in Input) error

	Close() error
}
