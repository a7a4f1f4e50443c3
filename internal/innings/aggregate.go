// Package innings reduces ball-by-ball deliveries to one total per inning.
package innings

import (
	"database/sql"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/models"
)

const (
	ColMatchID   = "match_id"
	ColInning    = "inning"
	ColTotalRuns = "total_runs"
	ColScore     = "inning_score"
)

// Deliveries decodes the delivery table. Rows with a missing match id or
// inning belong to no group and are skipped; a missing run value counts as
// nothing scored.
func Deliveries(f *frame.Frame) ([]models.DeliveryEvent, error) {
	if err := f.Require(ColMatchID, ColInning, ColTotalRuns); err != nil {
		return nil, err
	}
	events := make([]models.DeliveryEvent, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		id, inn := f.Get(i, ColMatchID), f.Get(i, ColInning)
		if !id.Valid || !inn.Valid {
			continue
		}
		n, err := strconv.ParseFloat(inn.String, 64)
		if err != nil || n != float64(int(n)) {
			return nil, errors.Newf("row %d: inning %q is not a whole number", i+1, inn.String)
		}
		ev := models.DeliveryEvent{MatchID: frame.KeyOf(id), Inning: int(n)}
		if runs := f.Get(i, ColTotalRuns); runs.Valid {
			ev.TotalRuns, err = strconv.ParseFloat(runs.String, 64)
			if err != nil {
				return nil, errors.Newf("row %d: total_runs %q is not a number", i+1, runs.String)
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

type groupKey struct {
	matchID string
	inning  int
}

// Aggregate sums runs per (match, inning). Only innings with at least one
// delivery produce a score. Output is ordered by match id then inning.
func Aggregate(events []models.DeliveryEvent) []models.InningScore {
	groups := make(map[groupKey][]float64)
	for _, ev := range events {
		k := groupKey{ev.MatchID, ev.Inning}
		groups[k] = append(groups[k], ev.TotalRuns)
	}

	scores := make([]models.InningScore, 0, len(groups))
	for k, runs := range groups {
		scores = append(scores, models.InningScore{
			MatchID: k.matchID,
			Inning:  k.inning,
			Runs:    floats.Sum(runs),
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].MatchID != scores[j].MatchID {
			return lessID(scores[i].MatchID, scores[j].MatchID)
		}
		return scores[i].Inning < scores[j].Inning
	})
	return scores
}

// lessID orders numeric ids by value and falls back to string order.
func lessID(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return x < y
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Frame renders scores as a match_id, inning, inning_score table.
func Frame(scores []models.InningScore) (*frame.Frame, error) {
	f := frame.New(ColMatchID, ColInning, ColScore)
	for _, s := range scores {
		if err := f.Append([]sql.NullString{frame.String(s.MatchID), frame.Int(int64(s.Inning)), frame.Float(s.Runs)}); err != nil {
			return nil, errors.Wrapf(err, "match %s inning %d", s.MatchID, s.Inning)
		}
	}
	return f, nil
}
