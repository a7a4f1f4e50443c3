package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

var (
	WeatherLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inningcast_weather_lookups_total",
			Help: "Weather lookups by outcome",
		},
		[]string{"outcome"},
	)

	WeatherLookupLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inningcast_weather_lookup_latency_seconds",
			Help:    "Weather API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StageRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inningcast_stage_rows",
			Help: "Rows in the feature table after each pipeline stage",
		},
		[]string{"stage"},
	)

	ImputedCells = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inningcast_imputed_cells",
			Help: "Missing numeric cells filled with the column mean in the last run",
		},
		[]string{"column"},
	)
)

// WriteTextfile dumps every registered metric in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
