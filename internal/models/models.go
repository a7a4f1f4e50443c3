package models

import (
	"database/sql"
	"time"
)

// DeliveryEvent is one ball bowled.
type DeliveryEvent struct {
	MatchID   string
	Inning    int
	TotalRuns float64
}

// InningScore is the summed runs of one inning actually played.
type InningScore struct {
	MatchID string
	Inning  int
	Runs    float64
}

// WeatherQuery identifies one weather lookup: a match at a location and time.
type WeatherQuery struct {
	MatchID   string
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	Timestamp int64 // seconds since epoch, UTC
}

func (q WeatherQuery) Time() time.Time {
	return time.Unix(q.Timestamp, 0).UTC()
}

// WeatherObservation holds the conditions for one match. Every field is null
// when the lookup failed.
type WeatherObservation struct {
	Temperature sql.NullFloat64
	Humidity    sql.NullFloat64
	WindSpeed   sql.NullFloat64
	DewPoint    sql.NullFloat64
}

// Complete reports whether all four readings are present.
func (o WeatherObservation) Complete() bool {
	return o.Temperature.Valid && o.Humidity.Valid && o.WindSpeed.Valid && o.DewPoint.Valid
}
