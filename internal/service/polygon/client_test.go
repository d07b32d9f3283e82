package polygon

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PulseForge/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggsBody = `{
  "ticker": "I:VIX",
  "status": "OK",
  "resultsCount": 3,
  "results": [
    {"t": 1704171600000, "o": 13.2, "h": 14.1, "l": 13.0, "c": 14.04, "v": 0},
    {"t": 1704258000000, "o": 14.0, "h": 14.5, "l": 13.8, "c": 14.26, "v": 0},
    {"t": 1704344400000, "o": 14.2, "h": 14.3, "l": 13.9, "c": 14.13, "v": 0}
  ]
}`

func TestClient_LoadRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/I:VIX/range/1/day/2024-01-01/2024-01-05", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("adjusted"))
		assert.Equal(t, "asc", r.URL.Query().Get("sort"))
		assert.Equal(t, "k", r.URL.Query().Get("apiKey"))
		_, _ = io.WriteString(w, aggsBody)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL, Attempts: 1}, nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs, err := c.LoadRange(context.Background(), models.Instrument{Symbol: "VIX", Ticker: "I:VIX"}, from, from.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "VIX", obs[0].Symbol)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, 14.04, obs[0].Close)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), obs[2].Date)
}

func TestClient_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ticker":"SPY","status":"OK","resultsCount":0}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	obs, err := c.LoadRange(context.Background(), models.Instrument{Symbol: "SPY"}, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestClient_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil).DailyAggregates(context.Background(), "SPY", time.Now(), time.Now())
	assert.Error(t, err)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ERROR","error":"Unknown API Key"}`)
	}))
	defer srv.Close()

	_, err := New(Config{APIKey: "bad", BaseURL: srv.URL}, nil).DailyAggregates(context.Background(), "SPY", time.Now(), time.Now())
	assert.ErrorContains(t, err, "ERROR")
}
