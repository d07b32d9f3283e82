package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"PulseForge/internal/domain/models"
	domrepo "PulseForge/internal/domain/repository"
	xlogger "PulseForge/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// StreamMessage is one pushed artifact.
type StreamMessage struct {
	Type     string          `json:"type"`
	Artifact string          `json:"artifact"`
	RunID    string          `json:"run_id,omitempty"`
	Data     json.RawMessage `json:"data"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// StreamHub pushes every published artifact to connected websocket clients.
// New clients first receive the latest message of each artifact.
// Clients that cannot keep up are disconnected.
type StreamHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	latest  map[string][]byte
	order   []string
}

var _ domrepo.ArtifactSink = (*StreamHub)(nil)

func NewStreamHub(logger *xlogger.Logger, origins ...string) *StreamHub {
	h := &StreamHub{
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
		latest:  make(map[string][]byte),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func (h *StreamHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Serve)
}

func (h *StreamHub) Name() string { return "stream" }

// Write broadcasts the artifact; it never blocks on a client.
func (h *StreamHub) Write(_ context.Context, a models.Artifact) error {
	msg, err := json.Marshal(StreamMessage{Type: "artifact", Artifact: a.Name, RunID: a.RunID, Data: json.RawMessage(a.Body)})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, seen := h.latest[a.Name]; !seen {
		h.order = append(h.order, a.Name)
	}
	h.latest[a.Name] = msg
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.logger.Warn("stream client too slow, dropping", xlogger.String("remote", cl.conn.RemoteAddr().String()))
			h.removeLocked(cl)
		}
	}
	return nil
}

func (h *StreamHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("stream upgrade failed", xlogger.Error(err))
		return nil
	}
	h.mu.Lock()
	cl := &streamClient{conn: conn, send: make(chan []byte, sendBuffer+len(h.order))}
	h.clients[cl] = struct{}{}
	for _, name := range h.order {
		cl.send <- h.latest[name]
	}
	h.mu.Unlock()
	h.logger.Debug("stream client connected", xlogger.String("remote", conn.RemoteAddr().String()))

	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

// Clients returns the number of connected clients.
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *StreamHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		h.removeLocked(cl)
	}
	return nil
}

func (h *StreamHub) remove(cl *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(cl)
}

func (h *StreamHub) removeLocked(cl *streamClient) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// readPump discards client frames; it only tracks liveness.
func (h *StreamHub) readPump(cl *streamClient) {
	defer func() {
		h.remove(cl)
		cl.conn.Close()
	}()
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) writePump(cl *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
