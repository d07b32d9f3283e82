// Package finnhub reads snapshot quotes from the Finnhub REST API.
package finnhub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseForge/internal/domain/models"
	drepo "PulseForge/internal/domain/repository"
	"PulseForge/internal/service/ratelimit"
	"PulseForge/internal/service/upstream"
	"PulseForge/pkg/util"
)

const DefaultBaseURL = "https://finnhub.io"

// ErrNoQuote is returned when Finnhub knows no price for the symbol.
var ErrNoQuote = errors.New("finnhub: no quote")

type Config struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url" default:"https://finnhub.io"`
	Timeout        time.Duration `yaml:"timeout" default:"15s"`
	Attempts       int           `yaml:"attempts" default:"2"`
	Backoff        time.Duration `yaml:"backoff" default:"1s"`
	RequestsPerMin float64       `yaml:"requests_per_min" default:"60"`
}

// quoteResponse is the /api/v1/quote payload.
type quoteResponse struct {
	Current       float64  `json:"c"`
	Change        *float64 `json:"d"`
	ChangePercent *float64 `json:"dp"`
	High          float64  `json:"h"`
	Low           float64  `json:"l"`
	Open          float64  `json:"o"`
	PrevClose     float64  `json:"pc"`
	Timestamp     int64    `json:"t"`
}

type Client struct {
	base   *upstream.HTTPServiceBase
	apiKey string
}

var _ drepo.QuoteSource = (*Client)(nil)

func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: cfg.APIKey,
		base: upstream.NewHTTPServiceBase(upstream.Config{
			Name:          "finnhub",
			BaseURL:       cfg.BaseURL,
			Timeout:       cfg.Timeout,
			Attempts:      cfg.Attempts,
			Backoff:       cfg.Backoff,
			Burst:         cfg.RequestsPerMin / 2,
			RatePerSecond: cfg.RequestsPerMin / 60,
		}, limiter),
	}
}

// Quote returns the latest price of inst. Volume is not part of the quote endpoint.
func (c *Client) Quote(ctx context.Context, inst models.Instrument) (models.Quote, error) {
	if c.apiKey == "" {
		return models.Quote{}, fmt.Errorf("finnhub: api key not configured")
	}
	var resp quoteResponse
	query := map[string][]string{
		"symbol": {inst.SourceTicker()},
		"token":  {c.apiKey},
	}
	if err := c.base.GetJSONWithRetry(ctx, "/api/v1/quote", query, &resp); err != nil {
		return models.Quote{}, err
	}
	if resp.Current == 0 {
		return models.Quote{}, fmt.Errorf("%w for %s", ErrNoQuote, inst.SourceTicker())
	}

	q := models.Quote{
		Symbol:    inst.Symbol,
		Price:     resp.Current,
		ChangePct: resp.ChangePercent,
	}
	if resp.Timestamp > 0 {
		q.Date = util.DateOf(time.Unix(resp.Timestamp, 0))
	}
	return q, nil
}
