package frame

import (
	"database/sql"

	"github.com/cockroachdb/errors"
)

type JoinKind int

const (
	// Inner keeps only left rows with at least one matching right row.
	Inner JoinKind = iota
	// Left keeps every left row; unmatched rows get null right-hand cells.
	Left
)

type JoinSpec struct {
	Kind    JoinKind
	LeftOn  []string
	RightOn []string
}

// Join merges right into left on the key columns. Output rows follow left
// order, and for each left row the matching right rows in right order. A key
// column shared by name appears once; other column names present on both
// sides get "_x" and "_y" suffixes. Null keys never match.
func Join(left, right *Frame, spec JoinSpec) (*Frame, error) {
	if len(spec.LeftOn) == 0 || len(spec.LeftOn) != len(spec.RightOn) {
		return nil, errors.Newf("join needs matching key lists, got %d and %d", len(spec.LeftOn), len(spec.RightOn))
	}
	if err := left.Require(spec.LeftOn...); err != nil {
		return nil, errors.Wrap(err, "left side")
	}
	if err := right.Require(spec.RightOn...); err != nil {
		return nil, errors.Wrap(err, "right side")
	}

	shared := make(map[string]bool)
	for i := range spec.LeftOn {
		if spec.LeftOn[i] == spec.RightOn[i] {
			shared[spec.RightOn[i]] = true
		}
	}

	var rightCols []int
	for j, c := range right.columns {
		if !shared[c] {
			rightCols = append(rightCols, j)
		}
	}
	overlap := make(map[string]bool)
	for _, j := range rightCols {
		c := right.columns[j]
		if left.Has(c) && !shared[c] {
			overlap[c] = true
		}
	}

	cols := make([]string, 0, len(left.columns)+len(rightCols))
	for _, c := range left.columns {
		if overlap[c] {
			c += "_x"
		}
		cols = append(cols, c)
	}
	for _, j := range rightCols {
		c := right.columns[j]
		if overlap[c] {
			c += "_y"
		}
		cols = append(cols, c)
	}
	out := New(cols...)
	if len(out.index) != len(cols) {
		return nil, errors.Newf("join produces duplicate column names: %v", cols)
	}

	lookup := make(map[string][]int, right.Len())
	for i := range right.rows {
		if hasNull(right, i, spec.RightOn) {
			continue
		}
		k := right.key(i, spec.RightOn)
		lookup[k] = append(lookup[k], i)
	}

	for i, lr := range left.rows {
		var matches []int
		if !hasNull(left, i, spec.LeftOn) {
			matches = lookup[left.key(i, spec.LeftOn)]
		}
		if len(matches) == 0 {
			if spec.Kind == Left {
				row := make([]sql.NullString, len(cols))
				copy(row, lr)
				out.rows = append(out.rows, row)
			}
			continue
		}
		for _, m := range matches {
			row := make([]sql.NullString, 0, len(cols))
			row = append(row, lr...)
			for _, j := range rightCols {
				row = append(row, right.rows[m][j])
			}
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

func hasNull(f *Frame, i int, names []string) bool {
	for _, n := range names {
		if !f.Get(i, n).Valid {
			return true
		}
	}
	return false
}
