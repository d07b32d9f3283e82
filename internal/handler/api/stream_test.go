package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PulseForge/internal/domain/models"
	xlogger "PulseForge/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *StreamHub) *websocket.Conn {
	t.Helper()
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg StreamMessage
	require.NoError(t, json.Unmarshal(b, &msg))
	return msg
}

func TestStreamHub_ReplaysLatestThenBroadcasts(t *testing.T) {
	hub := NewStreamHub(xlogger.Nop())
	ctx := context.Background()
	require.NoError(t, hub.Write(ctx, models.Artifact{Name: "pulse", Body: []byte(`{"v":1}`), RunID: "r1"}))
	require.NoError(t, hub.Write(ctx, models.Artifact{Name: "pulse", Body: []byte(`{"v":2}`), RunID: "r2"}))

	conn := dialHub(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, "artifact", msg.Type)
	assert.Equal(t, "pulse", msg.Artifact)
	assert.Equal(t, "r2", msg.RunID)
	assert.JSONEq(t, `{"v":2}`, string(msg.Data))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Write(ctx, models.Artifact{Name: "macro", Body: []byte(`{"notes":[]}`)}))
	msg = readMessage(t, conn)
	assert.Equal(t, "macro", msg.Artifact)
}

func TestStreamHub_CloseDisconnects(t *testing.T) {
	hub := NewStreamHub(xlogger.Nop())
	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://pulse.example"})
	req := httptest.NewRequest("GET", "/api/stream", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://pulse.example")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
