package enrich

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/models"
	"github.com/lox/inningcast/internal/temporal"
	"github.com/lox/inningcast/internal/weather"
)

const (
	ColMatchID     = "id"
	ColTemperature = "temperature"
	ColHumidity    = "humidity"
	ColWindSpeed   = "wind_speed"
	ColDewPoint    = "dew_point"

	// DefaultEveningOffset models a typical evening start.
	DefaultEveningOffset = 18 * time.Hour
)

type WeatherOptions struct {
	LatColumn     string
	LonColumn     string
	EveningOffset time.Duration
}

func DefaultWeatherOptions() WeatherOptions {
	return WeatherOptions{
		LatColumn:     "Latitude",
		LonColumn:     "Longitude",
		EveningOffset: DefaultEveningOffset,
	}
}

// Timestamp returns the lookup time for a match day: midnight UTC of the date
// plus offset, in seconds since the epoch.
func Timestamp(date time.Time, offset time.Duration) int64 {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(offset).Unix()
}

// Queries builds one weather query per distinct match id, in first-seen order.
func Queries(f *frame.Frame, opts WeatherOptions) ([]models.WeatherQuery, error) {
	if err := f.Require(ColMatchID, temporal.ColDate); err != nil {
		return nil, err
	}
	keys, err := f.DropDuplicates(ColMatchID)
	if err != nil {
		return nil, err
	}
	queries := make([]models.WeatherQuery, 0, keys.Len())
	for i := 0; i < keys.Len(); i++ {
		id := keys.Get(i, ColMatchID)
		if !id.Valid {
			continue
		}
		date, err := temporal.ParseDate(keys.Get(i, temporal.ColDate).String)
		if err != nil {
			return nil, errors.Wrapf(err, "match %s", id.String)
		}
		queries = append(queries, models.WeatherQuery{
			MatchID:   id.String,
			Latitude:  floatCell(keys.Get(i, opts.LatColumn)),
			Longitude: floatCell(keys.Get(i, opts.LonColumn)),
			Timestamp: Timestamp(date, opts.EveningOffset),
		})
	}
	return queries, nil
}

// AttachWeather looks up each distinct match once and left-joins the results
// back on match id, so every inning of a match carries the same readings.
func AttachWeather(ctx context.Context, f *frame.Frame, svc weather.Service, opts WeatherOptions) (*frame.Frame, error) {
	queries, err := Queries(f, opts)
	if err != nil {
		return nil, err
	}
	results := frame.New(ColMatchID, ColTemperature, ColHumidity, ColWindSpeed, ColDewPoint)
	for _, q := range queries {
		obs := svc.Lookup(ctx, q)
		if err := results.Append([]sql.NullString{
			frame.String(q.MatchID),
			nullFloat(obs.Temperature),
			nullFloat(obs.Humidity),
			nullFloat(obs.WindSpeed),
			nullFloat(obs.DewPoint),
		}); err != nil {
			return nil, err
		}
	}
	out, err := frame.Join(f, results, frame.JoinSpec{
		Kind:    frame.Left,
		LeftOn:  []string{ColMatchID},
		RightOn: []string{ColMatchID},
	})
	if err != nil {
		return nil, errors.Wrap(err, "join weather")
	}
	return out, nil
}

func floatCell(v sql.NullString) sql.NullFloat64 {
	if !v.Valid {
		return sql.NullFloat64{}
	}
	x, err := strconv.ParseFloat(v.String, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func nullFloat(v sql.NullFloat64) sql.NullString {
	if !v.Valid {
		return frame.Null()
	}
	return frame.Float(v.Float64)
}
