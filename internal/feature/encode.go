// Package feature turns a cleaned table into a fully numeric one.
// Two-valued string columns get a deterministic 0/1 mapping, wider
// categoricals are one-hot expanded with a dropped reference category,
// and boolean columns become 0/1 integers.
package feature

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/churnpipe/internal/dataset"
)

// Encoder encodes categorical columns of a table in place.
type Encoder struct {
	logger    *slog.Logger
	targetCol string
}

// New returns an encoder that leaves the target column untouched. A nil
// logger discards output.
func New(targetCol string, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Encoder{logger: logger, targetCol: targetCol}
}

// Encode rewrites every non-target string column as numeric features and
// casts boolean columns to integers. After it returns no string column
// remains in the table.
func (e *Encoder) Encode(t *dataset.Table) error {
	e.logger.Info("starting feature encoding", "rows", t.NumRows(), "columns", t.NumCols())

	var binaryCols, multiCols []string
	for _, name := range t.Columns() {
		if name == e.targetCol {
			continue
		}
		col, _ := t.Column(name)
		if col.Type() != dataset.String {
			continue
		}
		switch n := len(col.Distinct()); {
		case n == 2:
			binaryCols = append(binaryCols, name)
		case n > 2:
			multiCols = append(multiCols, name)
		}
	}
	e.logger.Info("partitioned categorical columns", "binary", len(binaryCols), "multi", len(multiCols))
	e.logger.Debug("categorical column names", "binary", binaryCols, "multi", multiCols)

	for _, name := range binaryCols {
		if err := e.encodeBinary(t, name); err != nil {
			return err
		}
	}

	e.castBools(t)

	for _, name := range multiCols {
		if err := e.encodeOneHot(t, name); err != nil {
			return err
		}
	}

	// Late default: binary columns keep nulls through the mapping step,
	// then get 0 here. Inherited behavior, see DESIGN.md.
	for _, name := range binaryCols {
		col, ok := t.Column(name)
		if !ok || col.Type() != dataset.Int {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				col.SetInt(i, 0)
			}
		}
	}

	e.logger.Info("feature encoding complete", "columns", t.NumCols())
	return nil
}

// encodeBinary maps a two-valued string column to 0/1. Yes/No and
// Male/Female have fixed mappings; any other pair is ordered
// lexicographically with the smaller value mapped to 0. Nulls stay null
// at this step.
func (e *Encoder) encodeBinary(t *dataset.Table, name string) error {
	col, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("%w: %s", dataset.ErrColumnNotFound, name)
	}

	mapping := binaryMapping(col.Distinct())
	e.logger.Debug("binary mapping", "column", name, "mapping", fmt.Sprint(mapping))

	n := col.Len()
	vals := make([]int64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		raw, ok := col.StringAt(i)
		if !ok {
			continue
		}
		v, found := mapping[raw]
		if !found {
			continue
		}
		vals[i] = v
		valid[i] = true
	}
	return t.Replace(dataset.NewIntSeries(name, vals, valid))
}

// binaryMapping picks the 0/1 assignment for a two-value set.
func binaryMapping(values []string) map[string]int64 {
	set := map[string]struct{}{}
	for _, v := range values {
		set[v] = struct{}{}
	}
	if _, yes := set["Yes"]; yes {
		if _, no := set["No"]; no && len(set) == 2 {
			return map[string]int64{"No": 0, "Yes": 1}
		}
	}
	if _, m := set["Male"]; m {
		if _, f := set["Female"]; f && len(set) == 2 {
			return map[string]int64{"Female": 0, "Male": 1}
		}
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	out := map[string]int64{}
	for i, v := range sorted {
		out[v] = int64(i)
	}
	return out
}

// encodeOneHot expands a multi-valued column into k-1 indicator columns
// named <col>_<value>, dropping the first sorted value as the reference
// category. The original column is removed and indicators are appended
// at the end of the table.
func (e *Encoder) encodeOneHot(t *dataset.Table, name string) error {
	col, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("%w: %s", dataset.ErrColumnNotFound, name)
	}

	categories := col.Distinct()
	reference := categories[0]
	e.logger.Debug("one-hot encoding", "column", name, "categories", len(categories), "reference", reference)

	n := col.Len()
	indicators := make([]*dataset.Series, 0, len(categories)-1)
	for _, cat := range categories[1:] {
		vals := make([]int64, n)
		for i := 0; i < n; i++ {
			if raw, ok := col.StringAt(i); ok && raw == cat {
				vals[i] = 1
			}
		}
		indicators = append(indicators, dataset.NewIntSeries(name+"_"+cat, vals, nil))
	}

	t.Drop(name)
	for _, s := range indicators {
		if err := t.AddColumn(s); err != nil {
			return fmt.Errorf("one-hot expansion of %s: %w", name, err)
		}
	}
	return nil
}

// castBools rewrites every boolean column as 0/1 integers.
func (e *Encoder) castBools(t *dataset.Table) {
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		if col.Type() != dataset.Bool {
			continue
		}
		n := col.Len()
		vals := make([]int64, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			b, ok := col.BoolAt(i)
			if !ok {
				continue
			}
			valid[i] = true
			if b {
				vals[i] = 1
			}
		}
		if err := t.Replace(dataset.NewIntSeries(name, vals, valid)); err != nil {
			e.logger.Warn("could not cast boolean column", "column", name, "error", err)
			continue
		}
		e.logger.Debug("cast boolean column to int", "column", name)
	}
}
