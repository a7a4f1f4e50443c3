package frame

import (
	"database/sql"
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
	"null": true,
}

// Cell converts a raw field into a cell, mapping missing-value tokens to null.
func Cell(raw string) sql.NullString {
	if missingTokens[strings.TrimSpace(raw)] {
		return Null()
	}
	return String(raw)
}

// FromRecords builds a frame from a header and raw records. Short records are
// padded with nulls; spreadsheet readers drop trailing empty cells.
func FromRecords(header []string, records [][]string) (*Frame, error) {
	if len(header) == 0 {
		return nil, errors.New("empty header")
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	f := New(cols...)
	if len(f.index) != len(cols) {
		return nil, errors.Newf("duplicate column names in header %v", cols)
	}
	for n, rec := range records {
		if len(rec) > len(cols) {
			return nil, errors.Newf("record %d has %d fields, header has %d", n+1, len(rec), len(cols))
		}
		row := make([]sql.NullString, len(cols))
		for j, raw := range rec {
			row[j] = Cell(raw)
		}
		f.rows = append(f.rows, row)
	}
	return f, nil
}

func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.New("read csv: no header row")
	}
	return FromRecords(records[0], records[1:])
}

// WriteCSV writes a header row then every row; null cells are empty fields.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.columns); err != nil {
		return errors.Wrap(err, "write header")
	}
	rec := make([]string, len(f.columns))
	for _, r := range f.rows {
		for j, c := range r {
			rec[j] = c.String
			if !c.Valid {
				rec[j] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
