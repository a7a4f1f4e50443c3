package weather

import (
	"github.com/lox/inningcast/internal/models"
)

const (
	FlagTempOutOfRange    = "temp_out_of_range"
	FlagHumidityInvalid   = "humidity_invalid"
	FlagWindSpeedUnlikely = "wind_speed_unlikely"
	FlagDewpointAboveTemp = "dewpoint_above_temp"
)

// ValidateObservation flags readings that are physically unlikely for an
// outdoor evening match. Flags are advisory; the values are kept.
func ValidateObservation(obs models.WeatherObservation) []string {
	var flags []string

	if obs.Temperature.Valid {
		if obs.Temperature.Float64 < -10 || obs.Temperature.Float64 > 55 {
			flags = append(flags, FlagTempOutOfRange)
		}
	}

	if obs.Humidity.Valid {
		if obs.Humidity.Float64 < 0 || obs.Humidity.Float64 > 100 {
			flags = append(flags, FlagHumidityInvalid)
		}
	}

	if obs.WindSpeed.Valid {
		if obs.WindSpeed.Float64 < 0 || obs.WindSpeed.Float64 > 200 {
			flags = append(flags, FlagWindSpeedUnlikely)
		}
	}

	// Allow half a degree of rounding between the two readings.
	if obs.Temperature.Valid && obs.DewPoint.Valid && obs.DewPoint.Float64 > obs.Temperature.Float64+0.5 {
		flags = append(flags, FlagDewpointAboveTemp)
	}

	return flags
}
