package finnhub

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

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quote", r.URL.Path)
		assert.Equal(t, "XLK", r.URL.Query().Get("symbol"))
		assert.Equal(t, "k", r.URL.Query().Get("token"))
		_, _ = io.WriteString(w, `{"c":210.4,"d":2.1,"dp":1.0082,"h":211,"l":207.9,"o":208,"pc":208.3,"t":1704326400}`)
	}))
	defer srv.Close()

	q, err := New(Config{APIKey: "k", BaseURL: srv.URL}, nil).Quote(context.Background(), models.Instrument{Symbol: "XLK", Name: "Technology"})
	require.NoError(t, err)
	assert.Equal(t, "XLK", q.Symbol)
	assert.Equal(t, 210.4, q.Price)
	require.NotNil(t, q.ChangePct)
	assert.Equal(t, 1.0082, *q.ChangePct)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), q.Date)
}

func TestClient_UnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`)
	}))
	defer srv.Close()

	_, err := New(Config{APIKey: "k", BaseURL: srv.URL}, nil).Quote(context.Background(), models.Instrument{Symbol: "ZZZZ"})
	assert.ErrorIs(t, err, ErrNoQuote)
}
