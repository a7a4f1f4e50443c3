// Package pipeline assembles the per-inning feature table from the delivery,
// match and venue reference inputs.
package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lox/inningcast/internal/enrich"
	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/innings"
	"github.com/lox/inningcast/internal/metrics"
	"github.com/lox/inningcast/internal/temporal"
	"github.com/lox/inningcast/internal/venue"
	"github.com/lox/inningcast/internal/weather"
)

// DropColumns are identifiers and post-match outcomes removed from the
// output. Names absent from the table are ignored.
var DropColumns = []string{
	enrich.ColMatchID,
	innings.ColMatchID,
	"player_of_match",
	"result",
	"dl_applied",
	"umpire1",
	"umpire2",
	"umpire3",
	temporal.ColLastMatch,
}

type Assembler struct {
	weather weather.Service
	opts    enrich.WeatherOptions
	log     *zap.Logger
}

type Option func(*Assembler)

func WithWeatherOptions(o enrich.WeatherOptions) Option {
	return func(a *Assembler) { a.opts = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

func NewAssembler(svc weather.Service, opts ...Option) *Assembler {
	a := &Assembler{
		weather: svc,
		opts:    enrich.DefaultWeatherOptions(),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type Result struct {
	Features *frame.Frame
	// Imputed counts the cells filled with the column mean, per column.
	Imputed   map[string]int
	StartedAt time.Time
	Duration  time.Duration
}

// Run loads the inputs and builds the feature table.
func (a *Assembler) Run(ctx context.Context, in Inputs) (*Result, error) {
	tables, err := Load(ctx, in, a.log)
	if err != nil {
		return nil, err
	}
	return a.Build(ctx, tables)
}

// Build runs the assembly steps in order. Any error is fatal; enrichment
// gaps are not errors and surface as nulls that imputation then fills.
func (a *Assembler) Build(ctx context.Context, t *Tables) (*Result, error) {
	start := time.Now()

	events, err := innings.Deliveries(t.Deliveries)
	if err != nil {
		return nil, invalid(err, "aggregate innings")
	}
	scores, err := innings.Frame(innings.Aggregate(events))
	if err != nil {
		return nil, invalid(err, "aggregate innings")
	}
	a.progress("aggregate innings", scores)

	if err := t.Matches.Require(enrich.ColMatchID, temporal.ColDate, temporal.ColSeason, temporal.ColVenue); err != nil {
		return nil, invalid(err, "matches input")
	}
	f, err := frame.Join(t.Matches, scores, frame.JoinSpec{
		Kind:    frame.Inner,
		LeftOn:  []string{enrich.ColMatchID},
		RightOn: []string{innings.ColMatchID},
	})
	if err != nil {
		return nil, invalid(err, "join innings")
	}
	a.progress("join innings", f)

	if f, err = f.DropDuplicates(enrich.ColMatchID, innings.ColInning); err != nil {
		return nil, invalid(err, "drop duplicates")
	}
	a.progress("drop duplicates", f)

	if f, err = temporal.ParseDates(f); err != nil {
		return nil, invalid(err, "parse dates")
	}
	a.progress("parse dates", f)

	if f, err = temporal.Derive(f); err != nil {
		return nil, invalid(err, "derive temporal features")
	}
	a.progress("derive temporal features", f)

	venues, err := f.Column(temporal.ColVenue)
	if err != nil {
		return nil, invalid(err, "normalize venues")
	}
	for i, v := range venues {
		venues[i] = venue.NormalizeCell(v)
	}
	if err := f.SetColumn(temporal.ColVenue, venues); err != nil {
		return nil, invalid(err, "normalize venues")
	}
	a.progress("normalize venues", f)

	if f, err = enrich.JoinGeo(f, t.Venues); err != nil {
		return nil, invalid(err, "join venue reference")
	}
	a.progress("join venue reference", f)

	if f, err = enrich.AttachWeather(ctx, f, a.weather, a.opts); err != nil {
		return nil, invalid(err, "attach weather")
	}
	// Lookups swallow cancellation; a cut-short run must not look complete.
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "attach weather")
	}
	a.progress("attach weather", f)

	f = f.Drop(DropColumns...)
	a.progress("drop columns", f)

	f, imputed, err := ImputeMeans(f)
	if err != nil {
		return nil, invalid(err, "impute")
	}
	a.progress("impute", f)

	metrics.ImputedCells.Reset()
	for col, n := range imputed {
		metrics.ImputedCells.WithLabelValues(col).Set(float64(n))
	}
	a.log.Info("feature table assembled",
		zap.Int("rows", f.Len()),
		zap.Int("columns", len(f.Columns())),
		zap.Any("imputed", imputed),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Features:  f,
		Imputed:   imputed,
		StartedAt: start,
		Duration:  time.Since(start),
	}, nil
}

func (a *Assembler) progress(step string, f *frame.Frame) {
	metrics.StageRows.WithLabelValues(step).Set(float64(f.Len()))
	a.log.Info("step complete", zap.String("step", step), zap.Int("rows", f.Len()))
}
