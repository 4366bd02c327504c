package dataset

// csv.go - delimited file loading and writing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVOptions control how delimited files are read and written.
type CSVOptions struct {
	// Delimiter is the field separator (comma when zero).
	Delimiter rune
	// Encoding is the IANA charset name of the file (utf-8 when empty).
	Encoding string
}

func (o CSVOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o CSVOptions) decoder(r io.Reader) (io.Reader, error) {
	name := o.Encoding
	if name == "" {
		name = "utf-8"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// ReadCSV loads a delimited file with a header row into a table. Column
// types are inferred from the cell contents: a column whose non-blank
// cells all parse as integers becomes Int, as numbers Float, as
// true/false Bool, anything else String. Blank cells are nulls.
//
// It fails when the file does not exist or contains no data rows.
func ReadCSV(path string, opts CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	src, err := opts.decoder(f)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(src)
	r.Comma = opts.delimiter()
	r.TrimLeadingSpace = false

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}

	header := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}

	t := New()
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = rec[j]
			}
		}
		if err := t.AddColumn(inferSeries(name, cells)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// inferSeries picks the narrowest type the column's non-blank cells all
// fit, treating blank cells as nulls.
func inferSeries(name string, cells []string) *Series {
	valid := make([]bool, len(cells))
	allInt, allFloat, allBool := true, true, true
	any := false
	for i, c := range cells {
		if c == "" {
			continue
		}
		valid[i] = true
		any = true
		if _, err := strconv.ParseInt(c, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			allFloat = false
		}
		switch strings.ToLower(c) {
		case "true", "false":
		default:
			allBool = false
		}
	}

	switch {
	case any && allInt:
		vals := make([]int64, len(cells))
		for i, c := range cells {
			if valid[i] {
				vals[i], _ = strconv.ParseInt(c, 10, 64)
			}
		}
		return NewIntSeries(name, vals, valid)
	case any && allFloat:
		vals := make([]float64, len(cells))
		for i, c := range cells {
			if valid[i] {
				vals[i], _ = strconv.ParseFloat(c, 64)
			}
		}
		return NewFloatSeries(name, vals, valid)
	case any && allBool:
		vals := make([]bool, len(cells))
		for i, c := range cells {
			if valid[i] {
				vals[i] = strings.EqualFold(c, "true")
			}
		}
		return NewBoolSeries(name, vals, valid)
	default:
		return NewStringSeries(name, cells, valid)
	}
}

// WriteCSV writes the table as a delimited file with a header row. Nulls
// become empty cells. The parent directory is created if needed.
func WriteCSV(t *Table, path string, opts CSVOptions) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = opts.delimiter()

	if err := w.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	nRows := t.NumRows()
	rec := make([]string, t.NumCols())
	for i := 0; i < nRows; i++ {
		for j, col := range t.cols {
			rec[j] = formatCell(col, i)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}

func formatCell(s *Series, i int) string {
	if s.IsNull(i) {
		return ""
	}
	switch s.Type() {
	case String:
		v, _ := s.StringAt(i)
		return v
	case Float:
		v, _ := s.FloatAt(i)
		return strconv.FormatFloat(v, 'g', -1, 64)
	case Int:
		v, _ := s.IntAt(i)
		return strconv.FormatInt(v, 10)
	case Bool:
		v, _ := s.BoolAt(i)
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
