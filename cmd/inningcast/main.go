package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lox/inningcast/internal/enrich"
	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/metrics"
	"github.com/lox/inningcast/internal/models"
	"github.com/lox/inningcast/internal/pipeline"
	"github.com/lox/inningcast/internal/store"
	"github.com/lox/inningcast/internal/temporal"
	"github.com/lox/inningcast/internal/venue"
	"github.com/lox/inningcast/internal/weather"
)

type Globals struct {
	EnvFile     kongdotenv.ENVFileConfig `embed:""`
	LogJSON     bool                     `name:"log-json" env:"LOG_JSON" help:"Write JSON logs instead of console output."`
	MetricsFile string                   `name:"metrics-file" env:"METRICS_FILE" type:"path" help:"Write Prometheus metrics in textfile format on exit."`
}

type WeatherFlags struct {
	APIKey        string        `name:"weather-api-key" env:"WEATHER_API_KEY" help:"Weather API credential. Unset or placeholder uses fixed fallback values."`
	URL           string        `name:"weather-url" env:"WEATHER_URL" default:"${weather_url}" help:"Weather lookup endpoint."`
	Timeout       time.Duration `name:"weather-timeout" default:"5s" help:"Per-request timeout."`
	Retries       uint64        `name:"weather-retries" default:"0" help:"Extra attempts for rate-limited requests."`
	EveningOffset time.Duration `name:"evening-offset" default:"18h" help:"Offset from midnight UTC used as the lookup time."`
	LatColumn     string        `name:"lat-column" default:"Latitude" help:"Venue reference latitude column."`
	LonColumn     string        `name:"lon-column" default:"Longitude" help:"Venue reference longitude column."`
}

func (w WeatherFlags) client(log *zap.Logger) *weather.Client {
	return weather.NewClient(w.APIKey,
		weather.WithBaseURL(w.URL),
		weather.WithTimeout(w.Timeout),
		weather.WithRetries(w.Retries),
		weather.WithLogger(log),
	)
}

func (w WeatherFlags) options() enrich.WeatherOptions {
	return enrich.WeatherOptions{
		LatColumn:     w.LatColumn,
		LonColumn:     w.LonColumn,
		EveningOffset: w.EveningOffset,
	}
}

type BuildCmd struct {
	Deliveries string `required:"" help:"Ball-by-ball deliveries table (path or ftp:// URL)."`
	Matches    string `required:"" help:"Match summary table (path or ftp:// URL)."`
	Venues     string `required:"" help:"Venue reference table, CSV or XLSX (path or ftp:// URL)."`
	Out        string `required:"" type:"path" help:"Output file; .db or .sqlite writes SQLite, anything else CSV."`

	WeatherFlags `embed:""`
}

func (c *BuildCmd) Run(ctx context.Context, log *zap.Logger) error {
	svc := c.client(log)
	a := pipeline.NewAssembler(svc,
		pipeline.WithWeatherOptions(c.options()),
		pipeline.WithLogger(log),
	)
	res, err := a.Run(ctx, pipeline.Inputs{
		Deliveries: c.Deliveries,
		Matches:    c.Matches,
		Venues:     c.Venues,
	})
	if err != nil {
		return err
	}

	mode := "live"
	if !svc.Configured() {
		mode = "fallback"
	}
	run := store.Run{
		StartedAt:        res.StartedAt,
		FinishedAt:       time.Now(),
		DeliveriesSource: c.Deliveries,
		MatchesSource:    c.Matches,
		VenuesSource:     c.Venues,
		WeatherMode:      mode,
	}
	if err := pipeline.Write(ctx, c.Out, res.Features, run, log); err != nil {
		return err
	}
	log.Info("output written",
		zap.String("path", c.Out),
		zap.Int("rows", res.Features.Len()),
		zap.String("weather", mode))
	return nil
}

type LookupCmd struct {
	Lat  float64 `required:"" help:"Latitude in decimal degrees."`
	Lon  float64 `required:"" help:"Longitude in decimal degrees."`
	Date string  `required:"" help:"Match date, e.g. 2017-04-05 or 05/04/2017."`

	WeatherFlags `embed:""`
}

func (c *LookupCmd) Run(ctx context.Context, log *zap.Logger) error {
	date, err := temporal.ParseDate(c.Date)
	if err != nil {
		return err
	}
	q := models.WeatherQuery{MatchID: "cli", Timestamp: enrich.Timestamp(date, c.EveningOffset)}
	q.Latitude.Float64, q.Latitude.Valid = c.Lat, true
	q.Longitude.Float64, q.Longitude.Valid = c.Lon, true

	obs := c.client(log).Lookup(ctx, q)
	fmt.Printf("time:        %s\n", q.Time().Format(time.RFC3339))
	fmt.Printf("temperature: %s\n", formatReading(obs.Temperature.Float64, obs.Temperature.Valid))
	fmt.Printf("humidity:    %s\n", formatReading(obs.Humidity.Float64, obs.Humidity.Valid))
	fmt.Printf("wind speed:  %s\n", formatReading(obs.WindSpeed.Float64, obs.WindSpeed.Valid))
	fmt.Printf("dew point:   %s\n", formatReading(obs.DewPoint.Float64, obs.DewPoint.Valid))
	return nil
}

func formatReading(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%g", v)
}

type VenuesCmd struct{}

func (c *VenuesCmd) Run() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RAW\tCANONICAL")
	for _, a := range venue.Table() {
		fmt.Fprintf(w, "%s\t%s\n", a.Raw, a.Canonical)
	}
	return w.Flush()
}

type RunsCmd struct {
	DB       string `name:"db" required:"" type:"existingfile" help:"SQLite output written by build."`
	Features bool   `help:"Print the stored feature table as CSV instead of the run log."`

	out io.Writer
}

func (c *RunsCmd) Run(ctx context.Context, log *zap.Logger) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	db, err := sql.Open("sqlite", c.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	st := store.New(db, log)

	if c.Features {
		f, err := st.ReadFeatures(ctx)
		if err != nil {
			return err
		}
		return frame.WriteCSV(out, f)
	}

	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tROWS\tCOLUMNS\tWEATHER\tMATCHES")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.RowCount,
			r.ColumnCount,
			r.WeatherMode,
			r.MatchesSource)
	}
	return w.Flush()
}

var cli struct {
	Globals

	Build  BuildCmd  `cmd:"" help:"Build the per-inning feature table."`
	Lookup LookupCmd `cmd:"" help:"Look up match-time weather for one location and date."`
	Venues VenuesCmd `cmd:"" help:"Print the venue name normalization table."`
	Runs   RunsCmd   `cmd:"" help:"List past runs recorded in a SQLite output."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("inningcast"),
		kong.Description("Builds inning score features from ball-by-ball cricket data."),
		kong.UsageOnError(),
		kong.Vars{"weather_url": weather.DefaultBaseURL},
	)

	log, err := newLogger(cli.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	runErr := kctx.Run(log)

	if cli.MetricsFile != "" {
		if err := metrics.WriteTextfile(cli.MetricsFile); err != nil {
			log.Warn("write metrics", zap.String("path", cli.MetricsFile), zap.Error(err))
		}
	}
	if runErr != nil {
		log.Error("command failed", zap.Error(runErr))
		log.Sync()
		cancel()
		os.Exit(1)
	}
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
