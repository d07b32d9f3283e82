// Package upstream is the shared plumbing of the market-data HTTP clients:
// rate limiting, circuit breaking and retries around pkg/http.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseForge/internal/service/ratelimit"
	xhttp "PulseForge/pkg/http"

	"github.com/sony/gobreaker"
)

// Config describes one upstream API.
type Config struct {
	Name            string
	BaseURL         string
	Timeout         time.Duration
	Attempts        int
	Backoff         time.Duration // grows linearly per attempt
	Burst           float64       // token bucket capacity
	RatePerSecond   float64
	BreakerFailures uint32        // consecutive failures that open the breaker
	BreakerCooldown time.Duration // open state duration before a probe
}

// HTTPServiceBase wraps a JSON GET with a token bucket and a circuit breaker.
type HTTPServiceBase struct {
	cfg     Config
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPServiceBase(cfg Config, limiter *ratelimit.Limiter) *HTTPServiceBase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// client errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || !Retryable(err)
		},
	})

	return &HTTPServiceBase{
		cfg:     cfg,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		breaker: breaker,
	}
}

func (b *HTTPServiceBase) Name() string { return b.cfg.Name }

// State reports the circuit breaker state.
func (b *HTTPServiceBase) State() gobreaker.State { return b.breaker.State() }

// GetJSON performs a single rate-limited GET of path under the base URL.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.cfg.RatePerSecond > 0 {
		if err := b.limiter.Wait(ctx, b.cfg.Name, b.cfg.Burst, b.cfg.RatePerSecond); err != nil {
			return fmt.Errorf("%s rate limit: %w", b.cfg.Name, err)
		}
	}

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         b.cfg.BaseURL + path,
			QueryParams: query,
		}, dest)
	})
	if err != nil {
		return fmt.Errorf("%s get %s: %w", b.cfg.Name, path, err)
	}
	return nil
}

// GetJSONWithRetry retries transient failures up to the configured attempts.
func (b *HTTPServiceBase) GetJSONWithRetry(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var err error
	for i := 1; i <= b.cfg.Attempts; i++ {
		err = b.GetJSON(ctx, path, query, dest)
		if err == nil || !Retryable(err) || i == b.cfg.Attempts {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * b.cfg.Backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
