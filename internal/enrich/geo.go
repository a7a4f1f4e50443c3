// Package enrich attaches venue geography and match-time weather to the
// match table.
package enrich

import (
	"github.com/cockroachdb/errors"

	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/temporal"
)

// ColStadium names the venue column of the reference sheet.
const ColStadium = "Stadium"

// JoinGeo left-joins the venue reference onto matches by (venue, Year).
// Matches without a reference row keep null geo columns. The reference's
// Stadium column is renamed to venue for the join; venues is not modified.
func JoinGeo(matches, venues *frame.Frame) (*frame.Frame, error) {
	ref := venues.Clone()
	if ref.Has(ColStadium) {
		if err := ref.Rename(ColStadium, temporal.ColVenue); err != nil {
			return nil, errors.Wrap(err, "venue reference")
		}
	}
	keys := []string{temporal.ColVenue, temporal.ColYear}
	if err := ref.Require(keys...); err != nil {
		return nil, errors.Wrap(err, "venue reference")
	}
	out, err := frame.Join(matches, ref, frame.JoinSpec{Kind: frame.Left, LeftOn: keys, RightOn: keys})
	if err != nil {
		return nil, errors.Wrap(err, "join venue reference")
	}
	return out, nil
}
