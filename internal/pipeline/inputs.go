package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/source"
)

// Inputs names the three source tables. Each is a local path or ftp:// URL;
// .xlsx/.xlsm locations are read as workbooks, everything else as CSV.
type Inputs struct {
	Deliveries string
	Matches    string
	Venues     string
}

type Tables struct {
	Deliveries *frame.Frame
	Matches    *frame.Frame
	Venues     *frame.Frame
}

// Load fetches and decodes every input. All three are fetched before any is
// decoded so a missing file is reported ahead of a malformed one.
func Load(ctx context.Context, in Inputs, log *zap.Logger) (*Tables, error) {
	t := &Tables{}
	roles := []struct {
		name     string
		location string
		dst      **frame.Frame
	}{
		{"deliveries", in.Deliveries, &t.Deliveries},
		{"matches", in.Matches, &t.Matches},
		{"venues", in.Venues, &t.Venues},
	}

	raw := make([][]byte, len(roles))
	for i, r := range roles {
		if r.location == "" {
			return nil, errors.Mark(errors.Newf("%s input: no location given", r.name), ErrMissingInput)
		}
		data, err := source.Fetch(ctx, r.location)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%s input %q", r.name, r.location), ErrMissingInput)
		}
		raw[i] = data
	}

	for i, r := range roles {
		f, err := source.Decode(r.location, raw[i])
		if err != nil {
			return nil, invalid(err, r.name+" input "+r.location)
		}
		*r.dst = f
		log.Info("input loaded",
			zap.String("input", r.name),
			zap.String("location", r.location),
			zap.Int("rows", f.Len()),
			zap.Int("columns", len(f.Columns())))
	}
	return t, nil
}
