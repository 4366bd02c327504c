// Package dataset provides the in-memory table the pipeline operates on.
// A table is an ordered set of named, typed columns with rows aligned by
// position. Cells are nullable through a per-column validity mask, and
// every column carries a declared type checked at access time.
package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// Type is the declared type of a column.
type Type int

const (
	String Type = iota
	Float
	Int
	Bool
)

// String returns the type name used in error messages and logs.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Sentinel errors for table operations.
var (
	ErrEmptyTable     = errors.New("dataset: table has no rows")
	ErrColumnNotFound = errors.New("dataset: column not found")
	ErrColumnExists   = errors.New("dataset: column already exists")
	ErrLengthMismatch = errors.New("dataset: column length mismatch")
	ErrTypeMismatch   = errors.New("dataset: column type mismatch")
)

// Series is a single named column: a typed value vector plus a validity
// mask. Index i is null when valid[i] is false.
type Series struct {
	name  string
	typ   Type
	str   []string
	f     []float64
	i     []int64
	b     []bool
	valid []bool
}

func newSeries(name string, typ Type, n int, valid []bool) *Series {
	if valid == nil {
		valid = make([]bool, n)
		for i := range valid {
			valid[i] = true
		}
	}
	return &Series{name: name, typ: typ, valid: valid}
}

// NewStringSeries builds a string column. A nil mask marks every cell valid.
func NewStringSeries(name string, vals []string, valid []bool) *Series {
	s := newSeries(name, String, len(vals), valid)
	s.str = vals
	return s
}

// NewFloatSeries builds a float column. A nil mask marks every cell valid.
func NewFloatSeries(name string, vals []float64, valid []bool) *Series {
	s := newSeries(name, Float, len(vals), valid)
	s.f = vals
	return s
}

// NewIntSeries builds an integer column. A nil mask marks every cell valid.
func NewIntSeries(name string, vals []int64, valid []bool) *Series {
	s := newSeries(name, Int, len(vals), valid)
	s.i = vals
	return s
}

// NewBoolSeries builds a boolean column. A nil mask marks every cell valid.
func NewBoolSeries(name string, vals []bool, valid []bool) *Series {
	s := newSeries(name, Bool, len(vals), valid)
	s.b = vals
	return s
}

// Name returns the column name.
func (s *Series) Name() string { return s.name }

// Type returns the declared column type.
func (s *Series) Type() Type { return s.typ }

// Len returns the number of cells, including nulls.
func (s *Series) Len() int { return len(s.valid) }

// IsNull reports whether the cell at index i is null.
func (s *Series) IsNull(i int) bool { return !s.valid[i] }

// NullCount returns the number of null cells.
func (s *Series) NullCount() int {
	n := 0
	for _, v := range s.valid {
		if !v {
			n++
		}
	}
	return n
}

// StringAt returns the string value at i; ok is false for nulls.
// Panics if the column is not a string column.
func (s *Series) StringAt(i int) (string, bool) {
	s.mustType(String)
	if !s.valid[i] {
		return "", false
	}
	return s.str[i], true
}

// FloatAt returns the numeric value at i as a float64; ok is false for
// nulls. Works for float and int columns.
func (s *Series) FloatAt(i int) (float64, bool) {
	if !s.valid[i] {
		return 0, false
	}
	switch s.typ {
	case Float:
		return s.f[i], true
	case Int:
		return float64(s.i[i]), true
	default:
		panic(fmt.Sprintf("dataset: FloatAt on %s column %q", s.typ, s.name))
	}
}

// IntAt returns the integer value at i; ok is false for nulls.
// Panics if the column is not an int column.
func (s *Series) IntAt(i int) (int64, bool) {
	s.mustType(Int)
	if !s.valid[i] {
		return 0, false
	}
	return s.i[i], true
}

// BoolAt returns the boolean value at i; ok is false for nulls.
// Panics if the column is not a bool column.
func (s *Series) BoolAt(i int) (bool, bool) {
	s.mustType(Bool)
	if !s.valid[i] {
		return false, false
	}
	return s.b[i], true
}

// SetFloat sets cell i of a float column, clearing its null flag.
func (s *Series) SetFloat(i int, v float64) {
	s.mustType(Float)
	s.f[i] = v
	s.valid[i] = true
}

// SetInt sets cell i of an int column, clearing its null flag.
func (s *Series) SetInt(i int, v int64) {
	s.mustType(Int)
	s.i[i] = v
	s.valid[i] = true
}

// SetNull marks cell i null.
func (s *Series) SetNull(i int) { s.valid[i] = false }

// Distinct returns the sorted distinct non-null values of a string column.
func (s *Series) Distinct() []string {
	s.mustType(String)
	seen := map[string]struct{}{}
	for i, v := range s.str {
		if s.valid[i] {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *Series) mustType(want Type) {
	if s.typ != want {
		panic(fmt.Sprintf("dataset: %s access on %s column %q", want, s.typ, s.name))
	}
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols  []*Series
	index map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows returns the row count. An empty table has zero rows.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Column returns the named column, or false if it does not exist.
func (t *Table) Column(name string) (*Series, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AddColumn appends a column. It fails on duplicate names or when the
// column length does not match the existing rows.
func (t *Table) AddColumn(s *Series) error {
	if _, ok := t.index[s.name]; ok {
		return fmt.Errorf("%w: %s", ErrColumnExists, s.name)
	}
	if len(t.cols) > 0 && s.Len() != t.NumRows() {
		return fmt.Errorf("%w: %s has %d rows, table has %d", ErrLengthMismatch, s.name, s.Len(), t.NumRows())
	}
	t.index[s.name] = len(t.cols)
	t.cols = append(t.cols, s)
	return nil
}

// Replace swaps the column with the same name for s, keeping its position.
func (t *Table) Replace(s *Series) error {
	i, ok := t.index[s.name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, s.name)
	}
	if s.Len() != t.NumRows() {
		return fmt.Errorf("%w: %s has %d rows, table has %d", ErrLengthMismatch, s.name, s.Len(), t.NumRows())
	}
	t.cols[i] = s
	return nil
}

// Drop removes the named columns, ignoring ones that do not exist, and
// returns the names actually removed in table order.
func (t *Table) Drop(names ...string) []string {
	drop := map[string]struct{}{}
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var dropped []string
	kept := t.cols[:0]
	for _, c := range t.cols {
		if _, ok := drop[c.name]; ok {
			dropped = append(dropped, c.name)
			continue
		}
		kept = append(kept, c)
	}
	t.cols = kept
	t.reindex()
	return dropped
}

// Rename changes a column name in place.
func (t *Table) Rename(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, from)
	}
	if from == to {
		return nil
	}
	if _, ok := t.index[to]; ok {
		return fmt.Errorf("%w: %s", ErrColumnExists, to)
	}
	t.cols[i].name = to
	t.reindex()
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.name] = i
	}
}
