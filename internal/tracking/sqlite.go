package tracking

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore returns an unopened store. A nil logger discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open connects to the database at path and initializes the schema.
// Use ":memory:" for an in-memory store.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open tracking database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping tracking database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize tracking schema: %w", err)
	}

	s.db = db
	s.logger.Debug("tracking store opened", "path", path)
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensureExperiment returns the experiment id for name, creating it on
// first use.
func (s *SQLiteStore) ensureExperiment(name string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM experiments WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up experiment: %w", err)
	}

	id = uuid.New().String()
	_, err = s.db.Exec(
		`INSERT INTO experiments (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment %s: %w", name, err)
	}
	s.logger.Info("created experiment", "name", name, "id", id)
	return id, nil
}

// CreateRun starts a new run under the named experiment.
func (s *SQLiteStore) CreateRun(experiment string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("tracking database not opened")
	}

	expID, err := s.ensureExperiment(experiment)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:         uuid.New().String(),
		Experiment: experiment,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (id, experiment_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, expID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Debug("created run", "run_id", run.ID, "experiment", experiment)
	return run, nil
}

// CompleteRun marks a run finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("tracking database not opened")
	}

	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), now, errPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("tracking database not opened")
	}

	row := s.db.QueryRow(
		`SELECT r.id, e.name, r.status, r.started_at, r.completed_at, r.error
		 FROM runs r JOIN experiments e ON e.id = r.experiment_id
		 WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the runs of an experiment, newest first. An empty
// experiment name lists every run.
func (s *SQLiteStore) ListRuns(experiment string) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("tracking database not opened")
	}

	query := `SELECT r.id, e.name, r.status, r.started_at, r.completed_at, r.error
	          FROM runs r JOIN experiments e ON e.id = r.experiment_id`
	args := []any{}
	if experiment != "" {
		query += ` WHERE e.name = ?`
		args = append(args, experiment)
	}
	query += ` ORDER BY r.started_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*Run, error) {
	var run Run
	var status string
	var completed sql.NullTime
	var errMsg sql.NullString
	if err := r.Scan(&run.ID, &run.Experiment, &status, &run.StartedAt, &completed, &errMsg); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}

// LogParam records one hyperparameter for a run.
func (s *SQLiteStore) LogParam(runID, key, value string) error {
	if s.db == nil {
		return fmt.Errorf("tracking database not opened")
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO params (run_id, key, value) VALUES (?, ?, ?)`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to log param %s: %w", key, err)
	}
	return nil
}

// LogParams records a parameter map for a run.
func (s *SQLiteStore) LogParams(runID string, params map[string]string) error {
	for key, value := range params {
		if err := s.LogParam(runID, key, value); err != nil {
			return err
		}
	}
	return nil
}

// LogMetric records one metric value for a run.
func (s *SQLiteStore) LogMetric(runID, key string, value float64) error {
	if s.db == nil {
		return fmt.Errorf("tracking database not opened")
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO metrics (run_id, key, value) VALUES (?, ?, ?)`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to log metric %s: %w", key, err)
	}
	return nil
}

// GetMetrics returns a run's metrics sorted by key.
func (s *SQLiteStore) GetMetrics(runID string) ([]Metric, error) {
	if s.db == nil {
		return nil, fmt.Errorf("tracking database not opened")
	}
	rows, err := s.db.Query(`SELECT key, value FROM metrics WHERE run_id = ? ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LogArtifact records a file reference for a run.
func (s *SQLiteStore) LogArtifact(runID, name, path string) error {
	if s.db == nil {
		return fmt.Errorf("tracking database not opened")
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO artifacts (run_id, name, path, created_at) VALUES (?, ?, ?, ?)`,
		runID, name, path, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to log artifact %s: %w", name, err)
	}
	return nil
}

// ListArtifacts returns a run's artifacts sorted by name.
func (s *SQLiteStore) ListArtifacts(runID string) ([]Artifact, error) {
	if s.db == nil {
		return nil, fmt.Errorf("tracking database not opened")
	}
	rows, err := s.db.Query(`SELECT name, path FROM artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Name, &a.Path); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LogInput records a dataset reference for a run.
func (s *SQLiteStore) LogInput(runID string, in Input) error {
	if s.db == nil {
		return fmt.Errorf("tracking database not opened")
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO inputs (run_id, context, source, rows) VALUES (?, ?, ?, ?)`,
		runID, in.Context, in.Source, in.Rows,
	)
	if err != nil {
		return fmt.Errorf("failed to log input %s: %w", in.Context, err)
	}
	return nil
}
