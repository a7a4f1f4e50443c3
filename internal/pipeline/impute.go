package pipeline

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/lox/inningcast/internal/frame"
)

// ImputeMeans fills missing cells of every numeric column with the mean of
// that column's present values and returns the per-column fill counts. A
// column with no present values is not numeric and stays null.
func ImputeMeans(f *frame.Frame) (*frame.Frame, map[string]int, error) {
	out := f.Clone()
	filled := make(map[string]int)
	for _, col := range out.Columns() {
		if !out.IsNumeric(col) {
			continue
		}
		cells, err := out.Column(col)
		if err != nil {
			return nil, nil, err
		}
		present := make([]float64, 0, len(cells))
		for _, c := range cells {
			if c.Valid {
				v, err := strconv.ParseFloat(c.String, 64)
				if err != nil {
					return nil, nil, errors.Wrapf(err, "column %q", col)
				}
				present = append(present, v)
			}
		}
		if len(present) == len(cells) {
			continue
		}
		mean := frame.Float(stat.Mean(present, nil))
		for i, c := range cells {
			if !c.Valid {
				cells[i] = mean
			}
		}
		if err := out.SetColumn(col, cells); err != nil {
			return nil, nil, err
		}
		filled[col] = len(cells) - len(present)
	}
	return out, filled, nil
}
