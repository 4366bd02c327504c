// Package prep cleans the raw churn table before feature encoding.
package prep

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/churnpipe/internal/dataset"
)

// idAliases are column names treated as row identifiers and dropped.
var idAliases = []string{"customerID", "CustomerID", "customer_id"}

// targetMapping maps normalized target strings to class labels.
var targetMapping = map[string]int64{"no": 0, "yes": 1}

// Preprocessor cleans a loaded table in place: header trimming, identifier
// removal, target mapping, known-column coercions and median imputation.
type Preprocessor struct {
	logger    *slog.Logger
	targetCol string
}

// New returns a preprocessor for the given target column. A nil logger
// discards output.
func New(targetCol string, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Preprocessor{logger: logger, targetCol: targetCol}
}

// Clean runs all preprocessing steps on t. It fails only when the table
// ends up with zero rows; unmapped target values are logged, not fatal.
func (p *Preprocessor) Clean(t *dataset.Table) error {
	p.logger.Info("starting preprocessing", "rows", t.NumRows(), "columns", t.NumCols())

	p.trimHeaders(t)

	if dropped := t.Drop(idAliases...); len(dropped) > 0 {
		p.logger.Info("dropped identifier columns", "columns", dropped)
	}

	p.mapTarget(t)
	p.coerceTotalCharges(t)
	p.normalizeSeniorCitizen(t)
	p.imputeMedians(t)

	if t.NumRows() == 0 {
		p.logger.Error("preprocessed table is empty")
		return fmt.Errorf("preprocessing: %w", dataset.ErrEmptyTable)
	}

	p.logger.Info("preprocessing complete", "rows", t.NumRows(), "columns", t.NumCols())
	return nil
}

func (p *Preprocessor) trimHeaders(t *dataset.Table) {
	for _, name := range t.Columns() {
		trimmed := strings.TrimSpace(name)
		if trimmed != name {
			if err := t.Rename(name, trimmed); err != nil {
				p.logger.Warn("could not trim column header", "column", name, "error", err)
			}
		}
	}
	p.logger.Debug("column headers trimmed")
}

// mapTarget lowercases and maps a string target to 0/1. Values outside the
// no/yes vocabulary become nulls and are reported as a warning.
func (p *Preprocessor) mapTarget(t *dataset.Table) {
	col, ok := t.Column(p.targetCol)
	if !ok {
		p.logger.Warn("target column not found", "column", p.targetCol)
		return
	}
	if col.Type() != dataset.String {
		return
	}

	n := col.Len()
	vals := make([]int64, n)
	valid := make([]bool, n)
	unmapped := 0
	for i := 0; i < n; i++ {
		raw, ok := col.StringAt(i)
		if !ok {
			unmapped++
			continue
		}
		label, found := targetMapping[strings.ToLower(strings.TrimSpace(raw))]
		if !found {
			unmapped++
			continue
		}
		vals[i] = label
		valid[i] = true
	}

	if err := t.Replace(dataset.NewIntSeries(p.targetCol, vals, valid)); err != nil {
		p.logger.Warn("could not replace target column", "error", err)
		return
	}
	p.logger.Info("mapped target column to 0/1", "column", p.targetCol)
	if unmapped > 0 {
		p.logger.Warn("target column contains unmapped values", "column", p.targetCol, "count", unmapped)
	}
}

// coerceTotalCharges converts the charge column to floats, turning
// unparseable cells into nulls.
func (p *Preprocessor) coerceTotalCharges(t *dataset.Table) {
	col, ok := t.Column("TotalCharges")
	if !ok || col.Type() != dataset.String {
		return
	}

	n := col.Len()
	vals := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		raw, ok := col.StringAt(i)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		vals[i] = v
		valid[i] = true
	}
	if err := t.Replace(dataset.NewFloatSeries("TotalCharges", vals, valid)); err != nil {
		p.logger.Warn("could not coerce TotalCharges", "error", err)
		return
	}
	p.logger.Info("converted TotalCharges to numeric")
}

// normalizeSeniorCitizen fills nulls with 0 and casts to int.
func (p *Preprocessor) normalizeSeniorCitizen(t *dataset.Table) {
	col, ok := t.Column("SeniorCitizen")
	if !ok {
		return
	}

	n := col.Len()
	vals := make([]int64, n)
	switch col.Type() {
	case dataset.Int:
		for i := 0; i < n; i++ {
			if v, ok := col.IntAt(i); ok {
				vals[i] = v
			}
		}
	case dataset.Float:
		for i := 0; i < n; i++ {
			if v, ok := col.FloatAt(i); ok {
				vals[i] = int64(v)
			}
		}
	default:
		return
	}
	if err := t.Replace(dataset.NewIntSeries("SeniorCitizen", vals, nil)); err != nil {
		p.logger.Warn("could not normalize SeniorCitizen", "error", err)
		return
	}
	p.logger.Info("normalized SeniorCitizen to 0/1 integers")
}

// imputeMedians fills nulls in every numeric column with that column's
// median over its non-null values.
func (p *Preprocessor) imputeMedians(t *dataset.Table) {
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		if col.Type() != dataset.Float && col.Type() != dataset.Int {
			continue
		}
		if col.NullCount() == 0 {
			continue
		}

		var present []float64
		for i := 0; i < col.Len(); i++ {
			if v, ok := col.FloatAt(i); ok {
				present = append(present, v)
			}
		}
		if len(present) == 0 {
			continue
		}
		sort.Float64s(present)
		median := medianSorted(present)

		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) {
				continue
			}
			switch col.Type() {
			case dataset.Float:
				col.SetFloat(i, median)
			case dataset.Int:
				col.SetInt(i, int64(median))
			}
		}
		p.logger.Info("filled missing values with column median", "column", name, "median", median)
	}
}

// medianSorted returns the median of a sorted, non-empty slice, averaging
// the two central values for even lengths.
func medianSorted(xs []float64) float64 {
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
