package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	xhttp "PulseForge/pkg/http"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flaky(t *testing.T, failures int32, code int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= failures {
			w.WriteHeader(code)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGetJSONWithRetry_RecoversFromTransientErrors(t *testing.T) {
	srv, calls := flaky(t, 2, http.StatusBadGateway)
	b := NewHTTPServiceBase(Config{Name: "test", BaseURL: srv.URL, Attempts: 3, Backoff: time.Millisecond}, nil)

	var out struct{ OK bool }
	require.NoError(t, b.GetJSONWithRetry(context.Background(), "/x", nil, &out))
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestGetJSONWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	srv, calls := flaky(t, 5, http.StatusNotFound)
	b := NewHTTPServiceBase(Config{Name: "test", BaseURL: srv.URL, Attempts: 3, Backoff: time.Millisecond}, nil)

	err := b.GetJSONWithRetry(context.Background(), "/x", nil, nil)
	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestGetJSON_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv, calls := flaky(t, 100, http.StatusInternalServerError)
	b := NewHTTPServiceBase(Config{Name: "test", BaseURL: srv.URL, BreakerFailures: 2, BreakerCooldown: time.Hour}, nil)

	ctx := context.Background()
	assert.Error(t, b.GetJSON(ctx, "/x", nil, nil))
	assert.Error(t, b.GetJSON(ctx, "/x", nil, nil))
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.GetJSON(ctx, "/x", nil, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, Retryable(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.True(t, Retryable(&xhttp.StatusError{Code: http.StatusTooManyRequests}))
	assert.False(t, Retryable(&xhttp.StatusError{Code: http.StatusUnauthorized}))
}
