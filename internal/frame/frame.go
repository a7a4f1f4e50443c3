// Package frame is a small in-memory table keyed by column name. Cells are
// sql.NullString so a missing value is distinguishable from an empty one.
package frame

import (
	"database/sql"
	"strconv"

	"github.com/cockroachdb/errors"
)

type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]sql.NullString
}

func New(columns ...string) *Frame {
	f := &Frame{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range f.columns {
		f.index[c] = i
	}
	return f
}

// Null is a missing cell.
func Null() sql.NullString { return sql.NullString{} }

// String is a present cell holding s.
func String(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

// Float formats v with the shortest representation that round-trips.
func Float(v float64) sql.NullString {
	return String(strconv.FormatFloat(v, 'f', -1, 64))
}

func Int(v int64) sql.NullString { return String(strconv.FormatInt(v, 10)) }

func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

func (f *Frame) Len() int { return len(f.rows) }

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Append(row []sql.NullString) error {
	if len(row) != len(f.columns) {
		return errors.Newf("row has %d cells, frame has %d columns", len(row), len(f.columns))
	}
	f.rows = append(f.rows, append([]sql.NullString(nil), row...))
	return nil
}

// Row returns the cells of row i. Callers must not modify the slice.
func (f *Frame) Row(i int) []sql.NullString { return f.rows[i] }

// Get returns the cell at row i, column name. Unknown columns read as null.
func (f *Frame) Get(i int, name string) sql.NullString {
	j, ok := f.index[name]
	if !ok {
		return Null()
	}
	return f.rows[i][j]
}

func (f *Frame) Set(i int, name string, v sql.NullString) error {
	j, ok := f.index[name]
	if !ok {
		return errors.Newf("unknown column %q", name)
	}
	f.rows[i][j] = v
	return nil
}

func (f *Frame) Column(name string) ([]sql.NullString, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.Newf("unknown column %q", name)
	}
	out := make([]sql.NullString, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Require reports the first of names that is not a column of f.
func (f *Frame) Require(names ...string) error {
	for _, n := range names {
		if !f.Has(n) {
			return errors.Newf("missing column %q", n)
		}
	}
	return nil
}

// SetColumn overwrites column name with values, appending it if absent.
func (f *Frame) SetColumn(name string, values []sql.NullString) error {
	if len(values) != len(f.rows) {
		return errors.Newf("column %q has %d values, frame has %d rows", name, len(values), len(f.rows))
	}
	j, ok := f.index[name]
	if !ok {
		j = len(f.columns)
		f.columns = append(f.columns, name)
		f.index[name] = j
		for i := range f.rows {
			f.rows[i] = append(f.rows[i], Null())
		}
	}
	for i, v := range values {
		f.rows[i][j] = v
	}
	return nil
}

func (f *Frame) Rename(from, to string) error {
	j, ok := f.index[from]
	if !ok {
		return errors.Newf("unknown column %q", from)
	}
	if _, clash := f.index[to]; clash && from != to {
		return errors.Newf("column %q already exists", to)
	}
	delete(f.index, from)
	f.columns[j] = to
	f.index[to] = j
	return nil
}

// Drop returns a copy of f without the named columns. Names that are not
// columns of f are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	gone := make(map[string]bool, len(names))
	for _, n := range names {
		gone[n] = true
	}
	var keep []int
	var cols []string
	for j, c := range f.columns {
		if !gone[c] {
			keep = append(keep, j)
			cols = append(cols, c)
		}
	}
	out := New(cols...)
	out.rows = make([][]sql.NullString, len(f.rows))
	for i, r := range f.rows {
		nr := make([]sql.NullString, len(keep))
		for k, j := range keep {
			nr[k] = r[j]
		}
		out.rows[i] = nr
	}
	return out
}

func (f *Frame) Clone() *Frame {
	return f.Take(nil)
}

// Take returns a copy holding the given rows in the given order. A nil
// slice takes every row.
func (f *Frame) Take(rows []int) *Frame {
	out := New(f.columns...)
	if rows == nil {
		rows = make([]int, len(f.rows))
		for i := range rows {
			rows[i] = i
		}
	}
	out.rows = make([][]sql.NullString, len(rows))
	for k, i := range rows {
		out.rows[k] = append([]sql.NullString(nil), f.rows[i]...)
	}
	return out
}

// DropDuplicates keeps the first row seen for each distinct key tuple.
func (f *Frame) DropDuplicates(keys ...string) (*Frame, error) {
	if err := f.Require(keys...); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(f.rows))
	var keep []int
	for i := range f.rows {
		k := f.key(i, keys)
		if seen[k] {
			continue
		}
		seen[k] = true
		keep = append(keep, i)
	}
	if keep == nil {
		keep = []int{}
	}
	return f.Take(keep), nil
}

// IsNumeric reports whether every present cell of the column parses as a
// number and at least one cell is present.
func (f *Frame) IsNumeric(name string) bool {
	j, ok := f.index[name]
	if !ok {
		return false
	}
	present := false
	for _, r := range f.rows {
		if !r[j].Valid {
			continue
		}
		if _, err := strconv.ParseFloat(r[j].String, 64); err != nil {
			return false
		}
		present = true
	}
	return present
}

func (f *Frame) key(i int, names []string) string {
	var b []byte
	for _, n := range names {
		b = append(b, KeyOf(f.Get(i, n))...)
		b = append(b, 0x1f)
	}
	return string(b)
}

// KeyOf canonicalises a cell for equality matching: numbers compare by
// value, so "335982" and "335982.0" are the same key.
func KeyOf(v sql.NullString) string {
	if !v.Valid {
		return "\x00"
	}
	if x, err := strconv.ParseFloat(v.String, 64); err == nil {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return v.String
}
