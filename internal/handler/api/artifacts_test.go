package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/repository"
	"PulseForge/pkg/cache"
	xhttp "PulseForge/pkg/http"
	xlogger "PulseForge/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T, cfg ArtifactsConfig, checks map[string]HealthCheck) (*echo.Echo, *cache.MemoryCache) {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { store.Close() })
	e := echo.New()
	NewArtifactsHandler(xlogger.Nop(), store, cfg, checks).RegisterRoutes(e)
	return e, store
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestArtifact_ServesStoredBody(t *testing.T) {
	e, store := newTestEcho(t, ArtifactsConfig{}, nil)
	body := []byte("{\n  \"notes\": []\n}\n")
	require.NoError(t, store.SetBytes(context.Background(), repository.ArtifactKey("macro"), body, time.Hour))

	rec := get(e, "/api/artifacts/macro")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(body), rec.Body.String())
	assert.Equal(t, "public, max-age=60", rec.Header().Get(echo.HeaderCacheControl))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestArtifact_MatchingETagIsNotModified(t *testing.T) {
	e, store := newTestEcho(t, ArtifactsConfig{}, nil)
	body := []byte(`{"stocks":[]}`)
	require.NoError(t, store.SetBytes(context.Background(), repository.ArtifactKey("watchlist"), body, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/artifacts/watchlist", nil)
	req.Header.Set("If-None-Match", xhttp.ETag(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestArtifact_UnpublishedIsNotFound(t *testing.T) {
	e, _ := newTestEcho(t, ArtifactsConfig{}, nil)

	rec := get(e, "/api/artifacts/sectors")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_NOT_FOUND"`)
}

func TestArtifact_UnknownNameIsBadRequest(t *testing.T) {
	e, _ := newTestEcho(t, ArtifactsConfig{}, nil)

	rec := get(e, "/api/artifacts/secrets")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_ONEOF"`)
}

func TestPulseHistory_TrimsToDays(t *testing.T) {
	e, store := newTestEcho(t, ArtifactsConfig{}, nil)
	score, label := 61.0, "Greed"
	doc := models.PulseDoc{
		Dates:         []string{"2024-03-11", "2024-03-12", "2024-03-13", "2024-03-14", "2024-03-15"},
		Scores:        []float64{40, 45, 50, 55, 61},
		Signals:       []string{"Fear", "Neutral", "Neutral", "Greed", "Greed"},
		Descriptions:  []string{"a", "b", "c", "d", "e"},
		CurrentScore:  &score,
		CurrentSignal: &label,
		LastUpdated:   "2024-03-15T22:00:00Z",
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.SetBytes(context.Background(), repository.ArtifactKey(models.ArtifactPulse), b, time.Hour))

	rec := get(e, "/api/pulse/history?days=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.PulseDoc `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2024-03-14", "2024-03-15"}, resp.Data.Dates)
	assert.Equal(t, []float64{55, 61}, resp.Data.Scores)
	assert.Equal(t, []string{"d", "e"}, resp.Data.Descriptions)
	require.NotNil(t, resp.Data.CurrentScore)
	assert.Equal(t, 61.0, *resp.Data.CurrentScore)

	// default of 30 days covers everything
	rec = get(e, "/api/pulse/history")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Dates, 5)

	rec = get(e, "/api/pulse/history?days=0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_GTE"`)
}

func TestPulseHistory_NotPublished(t *testing.T) {
	e, _ := newTestEcho(t, ArtifactsConfig{}, nil)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/pulse/history").Code)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	e, _ := newTestEcho(t, ArtifactsConfig{}, map[string]HealthCheck{"cache": ok})
	rec := get(e, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"cache":"ok"}}`, rec.Body.String())

	down := func(context.Context) error { return errors.New("down") }
	e, _ = newTestEcho(t, ArtifactsConfig{}, map[string]HealthCheck{"cache": ok, "archive": down})
	rec = get(e, "/api/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"archive":"down"`)
}

func TestArtifact_RateLimited(t *testing.T) {
	e, _ := newTestEcho(t, ArtifactsConfig{RatePerSecond: 0.01, Burst: 1}, nil)

	assert.Equal(t, http.StatusNotFound, get(e, "/api/artifacts/pulse").Code)
	rec := get(e, "/api/artifacts/pulse")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")
}
