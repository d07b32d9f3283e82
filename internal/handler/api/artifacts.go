package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/repository"
	"PulseForge/internal/service/metrics"
	"PulseForge/internal/service/ratelimit"
	"PulseForge/pkg/cache"
	xhttp "PulseForge/pkg/http"
	xlogger "PulseForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports a dependency failure as a non-nil error.
type HealthCheck func(ctx context.Context) error

// ArtifactsConfig caps requests per client IP; a zero rate disables the limit.
type ArtifactsConfig struct {
	RatePerSecond float64
	Burst         float64
	CacheMaxAge   time.Duration
}

// ArtifactsHandler serves the published artifacts out of the artifact cache.
type ArtifactsHandler struct {
	logger *xlogger.Logger
	store  cache.Store
	cfg    ArtifactsConfig
	rl     *ratelimit.Limiter
	checks map[string]HealthCheck
}

func NewArtifactsHandler(logger *xlogger.Logger, store cache.Store, cfg ArtifactsConfig, checks map[string]HealthCheck) *ArtifactsHandler {
	metrics.Register()
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RatePerSecond
	}
	if cfg.CacheMaxAge <= 0 {
		cfg.CacheMaxAge = time.Minute
	}
	return &ArtifactsHandler{logger: logger, store: store, cfg: cfg, rl: ratelimit.New(), checks: checks}
}

func (h *ArtifactsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/artifacts/:name", h.Artifact)
	g.GET("/pulse/history", h.PulseHistory)
	g.GET("/health", h.Health)
}

// Artifact returns the stored document verbatim, the same bytes the file sink wrote.
func (h *ArtifactsHandler) Artifact(c echo.Context) error {
	start := time.Now()
	defer observe("artifact", start)
	if err := h.allow(c); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	req := &models.ArtifactRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	body, err := h.store.GetBytes(c.Request().Context(), repository.ArtifactKey(req.Name))
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.ArtifactHits.WithLabelValues(req.Name, "miss").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("%s has not been published", req.Name).WithParam("name", req.Name))
	case err != nil:
		metrics.ArtifactErrors.WithLabelValues("artifact").Inc()
		h.logger.Error("artifact cache read error", xlogger.String("artifact", req.Name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("artifact store unavailable").WithError(err))
	}
	metrics.ArtifactHits.WithLabelValues(req.Name, "hit").Inc()
	return xhttp.BlobResponse(c, body, h.cfg.CacheMaxAge)
}

// PulseHistory returns the trailing days of the pulse document.
func (h *ArtifactsHandler) PulseHistory(c echo.Context) error {
	start := time.Now()
	defer observe("pulse_history", start)
	if err := h.allow(c); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	req := &models.PulseHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	doc, err := cache.GetJSON[models.PulseDoc](c.Request().Context(), h.store, repository.ArtifactKey(models.ArtifactPulse))
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("pulse has not been published"))
	case err != nil:
		metrics.ArtifactErrors.WithLabelValues("pulse_history").Inc()
		h.logger.Error("pulse history read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("artifact store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, trimPulse(doc, req.Days))
}

// Health runs every registered check; any failure answers 503.
func (h *ArtifactsHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			h.logger.Warn("health check failed", xlogger.String("check", name), xlogger.Error(err))
			continue
		}
		results[name] = "ok"
	}
	return xhttp.DataResponse(c, status, results)
}

func (h *ArtifactsHandler) allow(c echo.Context) error {
	if h.cfg.RatePerSecond <= 0 {
		return nil
	}
	if h.rl.Allow(c.RealIP(), h.cfg.Burst, h.cfg.RatePerSecond) {
		return nil
	}
	metrics.ArtifactErrors.WithLabelValues("rate_limited").Inc()
	return xhttp.TooManyRequestsError("rate limit exceeded")
}

func trimPulse(doc models.PulseDoc, days int) models.PulseDoc {
	n := len(doc.Dates)
	if days <= 0 || days >= n {
		return doc
	}
	from := n - days
	doc.Dates = doc.Dates[from:]
	doc.Scores = tailOf(doc.Scores, days)
	doc.Signals = tailOf(doc.Signals, days)
	doc.Descriptions = tailOf(doc.Descriptions, days)
	return doc
}

func tailOf[T any](s []T, n int) []T {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

func observe(endpoint string, start time.Time) {
	metrics.ArtifactLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
