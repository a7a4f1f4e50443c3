package weather

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lox/inningcast/internal/httputil"
	"github.com/lox/inningcast/internal/metrics"
	"github.com/lox/inningcast/internal/models"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall/timemachine"
	DefaultTimeout = 5 * time.Second

	// PlaceholderKey is the sample credential shipped in example env files.
	PlaceholderKey = "YOUR_API_KEY"
)

// errUnreachable marks a request that never reached the backend: refused
// connection or failed name resolution. Timeouts are not included.
var errUnreachable = errors.New("weather backend unreachable")

// Service resolves the conditions for one match. Implementations never fail:
// problems resolve to Fallback or Failed.
type Service interface {
	Lookup(ctx context.Context, q models.WeatherQuery) models.WeatherObservation
}

// Fallback is returned by an unconfigured client and when the backend cannot
// be reached at all.
func Fallback() models.WeatherObservation {
	return models.WeatherObservation{
		Temperature: sql.NullFloat64{Float64: 31.5, Valid: true},
		Humidity:    sql.NullFloat64{Float64: 45, Valid: true},
		WindSpeed:   sql.NullFloat64{Float64: 15, Valid: true},
		DewPoint:    sql.NullFloat64{Float64: 12.5, Valid: true},
	}
}

// Failed is returned when a lookup was attempted, or skipped, and produced
// nothing usable.
func Failed() models.WeatherObservation {
	return models.WeatherObservation{}
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retries uint64
	log     *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client = httputil.NewClient(d) }
}

// WithRetries sets how many extra attempts a rate-limited request gets.
func WithRetries(n uint64) Option {
	return func(c *Client) { c.retries = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  httputil.NewClient(DefaultTimeout),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether the client holds a real credential.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderKey
}

// Lookup fetches the observation for q. Without a credential every call
// returns Fallback, whatever the coordinates. Missing coordinates skip the
// call and return Failed. An unreachable backend returns Fallback; timeouts,
// non-200 responses and incomplete payloads return Failed.
func (c *Client) Lookup(ctx context.Context, q models.WeatherQuery) models.WeatherObservation {
	if !c.Configured() {
		metrics.WeatherLookupsTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
		return Fallback()
	}
	if !q.Latitude.Valid || !q.Longitude.Valid {
		metrics.WeatherLookupsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		c.log.Debug("weather lookup skipped: no coordinates", zap.String("match_id", q.MatchID))
		return Failed()
	}

	start := time.Now()
	obs, err := c.fetch(ctx, q)
	metrics.WeatherLookupLatency.Observe(time.Since(start).Seconds())
	if errors.Is(err, errUnreachable) {
		metrics.WeatherLookupsTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
		c.log.Warn("weather backend unreachable, using fallback",
			zap.String("match_id", q.MatchID),
			zap.Error(err))
		return Fallback()
	}
	if err != nil {
		metrics.WeatherLookupsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.log.Warn("weather lookup failed",
			zap.String("match_id", q.MatchID),
			zap.Float64("lat", q.Latitude.Float64),
			zap.Float64("lon", q.Longitude.Float64),
			zap.Int64("dt", q.Timestamp),
			zap.Error(err))
		return Failed()
	}
	if flags := ValidateObservation(obs); len(flags) > 0 {
		c.log.Warn("implausible weather reading",
			zap.String("match_id", q.MatchID),
			zap.Strings("flags", flags))
	}
	metrics.WeatherLookupsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return obs
}

type timeMachineResponse struct {
	Data []struct {
		Dt        int64    `json:"dt"`
		Temp      *float64 `json:"temp"`
		Humidity  *float64 `json:"humidity"`
		WindSpeed *float64 `json:"wind_speed"`
		DewPoint  *float64 `json:"dew_point"`
	} `json:"data"`
}

func (c *Client) fetch(ctx context.Context, q models.WeatherQuery) (models.WeatherObservation, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Failed(), errors.Wrap(err, "parse base url")
	}
	params := u.Query()
	params.Set("lat", strconv.FormatFloat(q.Latitude.Float64, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(q.Longitude.Float64, 'f', -1, 64))
	params.Set("dt", strconv.FormatInt(q.Timestamp, 10))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)
	u.RawQuery = params.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "create request"))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			if unreachable(err) {
				err = errors.Mark(err, errUnreachable)
			}
			return backoff.Permanent(errors.Wrap(err, "fetch weather"))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Newf("rate limited: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(errors.Newf("fetch weather: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "read body"))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)); err != nil {
		return Failed(), err
	}

	var data timeMachineResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Failed(), errors.Wrap(err, "unmarshal")
	}
	if len(data.Data) == 0 {
		return Failed(), errors.New("no observations returned")
	}
	d := data.Data[0]
	obs := models.WeatherObservation{
		Temperature: reading(d.Temp),
		Humidity:    reading(d.Humidity),
		WindSpeed:   reading(d.WindSpeed),
		DewPoint:    reading(d.DewPoint),
	}
	if !obs.Complete() {
		return Failed(), errors.New("incomplete observation")
	}
	return obs, nil
}

func reading(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// unreachable reports whether a transport error means no connection was
// made. Timeouts and cancellations count as failures, not as unreachable.
func unreachable(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
