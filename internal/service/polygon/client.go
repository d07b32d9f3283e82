// Package polygon reads daily aggregate bars from the Polygon.io REST API.
package polygon

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"PulseForge/internal/domain/models"
	drepo "PulseForge/internal/domain/repository"
	"PulseForge/internal/service/ratelimit"
	"PulseForge/internal/service/upstream"
	"PulseForge/pkg/util"
)

const DefaultBaseURL = "https://api.polygon.io"

// Config for the Polygon client. The free tier allows 5 requests per minute.
type Config struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url" default:"https://api.polygon.io"`
	Timeout        time.Duration `yaml:"timeout" default:"15s"`
	Attempts       int           `yaml:"attempts" default:"3"`
	Backoff        time.Duration `yaml:"backoff" default:"2s"`
	RequestsPerMin float64       `yaml:"requests_per_min" default:"5"`
}

// Bar is one element of the aggregates "results" array.
type Bar struct {
	T int64   `json:"t"` // window start, unix ms
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type aggregatesResponse struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []Bar  `json:"results"`
}

type Client struct {
	base   *upstream.HTTPServiceBase
	apiKey string
}

var _ drepo.ObservationSource = (*Client)(nil)

func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: cfg.APIKey,
		base: upstream.NewHTTPServiceBase(upstream.Config{
			Name:          "polygon",
			BaseURL:       cfg.BaseURL,
			Timeout:       cfg.Timeout,
			Attempts:      cfg.Attempts,
			Backoff:       cfg.Backoff,
			Burst:         cfg.RequestsPerMin,
			RatePerSecond: cfg.RequestsPerMin / 60,
		}, limiter),
	}
}

// DailyAggregates returns adjusted daily bars of ticker between from and to, ascending.
func (c *Client) DailyAggregates(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("polygon: api key not configured")
	}
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(ticker), util.FormatDate(from), util.FormatDate(to))
	query := map[string][]string{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {"50000"},
		"apiKey":   {c.apiKey},
	}

	var resp aggregatesResponse
	if err := c.base.GetJSONWithRetry(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("polygon: %s returned status ERROR", ticker)
	}
	return resp.Results, nil
}

// LoadRange fetches inst's bars and maps them onto the engine symbol.
// Polygon's window start is read as a UTC calendar day.
func (c *Client) LoadRange(ctx context.Context, inst models.Instrument, from, to time.Time) ([]models.Observation, error) {
	bars, err := c.DailyAggregates(ctx, inst.SourceTicker(), from, to)
	if err != nil {
		return nil, err
	}
	out := make([]models.Observation, 0, len(bars))
	for _, b := range bars {
		d := util.DateOf(time.UnixMilli(b.T))
		if n := len(out); n > 0 && !d.After(out[n-1].Date) {
			continue
		}
		out = append(out, models.Observation{
			Symbol: inst.Symbol,
			Date:   d,
			Close:  b.C,
			Volume: b.V,
		})
	}
	return out, nil
}
