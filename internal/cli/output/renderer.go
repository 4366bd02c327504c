// Package output renders command results as plain-text tables or JSON.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/churnpipe/internal/model"
	"github.com/leapstack-labs/churnpipe/internal/tracking"
	"github.com/leapstack-labs/churnpipe/internal/validate"
)

// Mode selects the output format.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Renderer writes command results to a single writer in one mode.
type Renderer struct {
	out  io.Writer
	mode Mode
}

// New returns a renderer. An empty mode falls back to text.
func New(out io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeText
	}
	return &Renderer{out: out, mode: mode}
}

// JSON marshals v with indentation.
func (r *Renderer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

// Report renders a validation report.
func (r *Renderer) Report(rep validate.Report) error {
	if r.mode == ModeJSON {
		return r.JSON(rep)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Check", "Status"})
	if len(rep.MissingColumns) > 0 {
		t.AppendRow(table.Row{validate.CheckMissingRequired, "FAIL"})
	} else {
		failed := map[string]struct{}{}
		for _, id := range rep.FailedChecks {
			failed[id] = struct{}{}
		}
		for _, id := range validate.CheckIDs() {
			status := "PASS"
			if _, ok := failed[id]; ok {
				status = "FAIL"
			}
			t.AppendRow(table.Row{id, status})
		}
	}
	t.AppendFooter(table.Row{"passed", fmt.Sprintf("%d/%d", rep.PassedChecks, rep.TotalChecks)})
	t.Render()

	if rep.Success {
		fmt.Fprintln(r.out, "validation passed")
	} else {
		fmt.Fprintf(r.out, "validation failed: %s\n", rep.Details)
	}
	return nil
}

// metricsPayload is the JSON shape for training results.
type metricsPayload struct {
	RunID   string        `json:"run_id"`
	Metrics model.Metrics `json:"metrics"`
}

// Metrics renders the held-out metrics of a run.
func (r *Renderer) Metrics(runID string, m model.Metrics) error {
	if r.mode == ModeJSON {
		return r.JSON(metricsPayload{RunID: runID, Metrics: m})
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"accuracy", fmt.Sprintf("%.4f", m.Accuracy)},
		{"precision", fmt.Sprintf("%.4f", m.Precision)},
		{"recall", fmt.Sprintf("%.4f", m.Recall)},
		{"f1_score", fmt.Sprintf("%.4f", m.F1)},
		{"roc_auc", fmt.Sprintf("%.4f", m.ROCAUC)},
	})
	t.Render()
	fmt.Fprintf(r.out, "run: %s\n", runID)
	return nil
}

// runPayload is the JSON shape for run listings.
type runPayload struct {
	ID         string     `json:"id"`
	Experiment string     `json:"experiment"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	Completed  *time.Time `json:"completed_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Runs renders a run listing, newest first.
func (r *Renderer) Runs(runs []*tracking.Run) error {
	if r.mode == ModeJSON {
		payload := make([]runPayload, len(runs))
		for i, run := range runs {
			payload[i] = runPayload{
				ID:         run.ID,
				Experiment: run.Experiment,
				Status:     string(run.Status),
				StartedAt:  run.StartedAt,
				Completed:  run.CompletedAt,
				Error:      run.Error,
			}
		}
		return r.JSON(payload)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Run", "Experiment", "Status", "Started"})
	for _, run := range runs {
		t.AppendRow(table.Row{run.ID, run.Experiment, string(run.Status), run.StartedAt.Format(time.RFC3339)})
	}
	t.Render()
	return nil
}
