// Package temporal derives per-venue, time-ordered match features.
package temporal

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lox/inningcast/internal/frame"
)

const (
	ColDate        = "date"
	ColSeason      = "season"
	ColVenue       = "venue"
	ColYear        = "Year"
	ColDaysSince   = "days_since_last_match"
	ColSeasonCount = "matches_this_season"
	ColLastMatch   = "last_match_date"

	// FirstMatchGap is the gap assigned to a venue's first match.
	FirstMatchGap = 365

	dateLayout = "2006-01-02"
)

// Day-first layouts; ISO forms are tried first so 2008-04-18 is not read
// as day 2008.
var layouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Month-first numeric layouts, tried only once every day-first layout has
// failed, so 04/18/2008 still reads as 18 April.
var monthFirstLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"1/2/06",
	"1-2-06",
}

// ParseDate reads a match date in any supported format and returns midnight
// UTC of that calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, set := range [][]string{layouts, monthFirstLayouts} {
		for _, layout := range set {
			if t, err := time.Parse(layout, s); err == nil {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	return time.Time{}, errors.Newf("unrecognised date %q", s)
}

// ParseDates rewrites the date column as YYYY-MM-DD and adds the Year column.
func ParseDates(f *frame.Frame) (*frame.Frame, error) {
	if err := f.Require(ColDate); err != nil {
		return nil, err
	}
	out := f.Clone()
	dates := make([]sql.NullString, out.Len())
	years := make([]sql.NullString, out.Len())
	for i := 0; i < out.Len(); i++ {
		raw := out.Get(i, ColDate)
		if !raw.Valid {
			return nil, errors.Newf("row %d: missing date", i+1)
		}
		t, err := ParseDate(raw.String)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		dates[i] = frame.String(t.Format(dateLayout))
		years[i] = frame.Int(int64(t.Year()))
	}
	if err := out.SetColumn(ColDate, dates); err != nil {
		return nil, err
	}
	if err := out.SetColumn(ColYear, years); err != nil {
		return nil, err
	}
	return out, nil
}

// Derive sorts rows by venue then date (stable, so same-day rows keep their
// input order) and adds:
//   - last_match_date: date of the preceding row at the venue, null for the first
//   - days_since_last_match: calendar days since that row, FirstMatchGap for the first
//   - matches_this_season: 1-based running count of rows per (season, venue)
func Derive(f *frame.Frame) (*frame.Frame, error) {
	if err := f.Require(ColVenue, ColDate, ColSeason); err != nil {
		return nil, err
	}
	dates := make([]time.Time, f.Len())
	for i := range dates {
		raw := f.Get(i, ColDate)
		if !raw.Valid {
			return nil, errors.Newf("row %d: missing date", i+1)
		}
		t, err := ParseDate(raw.String)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		dates[i] = t
	}

	order := make([]int, f.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := order[x], order[y]
		va, vb := f.Get(a, ColVenue), f.Get(b, ColVenue)
		if va != vb {
			return lessCell(va, vb)
		}
		return dates[a].Before(dates[b])
	})
	sorted := f.Take(order)
	sortedDates := make([]time.Time, len(order))
	for k, i := range order {
		sortedDates[k] = dates[i]
	}

	n := sorted.Len()
	last := make([]sql.NullString, n)
	gaps := make([]sql.NullString, n)
	counts := make([]sql.NullString, n)
	seasonRuns := make(map[[2]string]int64)
	for i := 0; i < n; i++ {
		v := sorted.Get(i, ColVenue)
		if i > 0 && sorted.Get(i-1, ColVenue) == v {
			prev := sortedDates[i-1]
			last[i] = frame.String(prev.Format(dateLayout))
			gaps[i] = frame.Int(int64(sortedDates[i].Sub(prev).Hours() / 24))
		} else {
			last[i] = frame.Null()
			gaps[i] = frame.Int(FirstMatchGap)
		}

		k := [2]string{frame.KeyOf(sorted.Get(i, ColSeason)), frame.KeyOf(v)}
		seasonRuns[k]++
		counts[i] = frame.Int(seasonRuns[k])
	}

	for _, c := range []struct {
		name string
		vals []sql.NullString
	}{
		{ColLastMatch, last},
		{ColDaysSince, gaps},
		{ColSeasonCount, counts},
	} {
		if err := sorted.SetColumn(c.name, c.vals); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// lessCell orders present values lexically with nulls last.
func lessCell(a, b sql.NullString) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	return a.String < b.String
}
