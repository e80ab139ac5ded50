package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mossy-p/mesh-signaling/config"
	"github.com/mossy-p/mesh-signaling/internal/broker"
	"github.com/mossy-p/mesh-signaling/internal/models"
	"github.com/mossy-p/mesh-signaling/internal/signal"
)

func newTestServer(t *testing.T, leaveOnDisconnect bool) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := broker.NewHub(broker.HubConfig{})
	router := signal.NewRouter(signal.RouterConfig{Broadcaster: hub})
	srv := NewServer(Config{
		Router: router,
		Hub:    hub,
		Signal: config.SignalConfig{
			Endpoint:             "/ws",
			InboundDestination:   "/app/message",
			BroadcastDestination: "/topic/message",
			MaxMessageBytes:      64 * 1024,
			PollTimeout:          200 * time.Millisecond,
			PollSessionTTL:       time.Minute,
		},
		LeaveOnDisconnect: leaveOnDisconnect,
	})

	engine := gin.New()
	srv.RegisterRoutes(engine)
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, frame string) {
	t.Helper()
	if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func readPresence(t *testing.T, c *websocket.Conn, want models.SignalType) models.PresencePayload {
	t.Helper()
	frame := read(t, c)
	msg, err := models.Decode([]byte(frame))
	if err != nil {
		t.Fatalf("decode %s: %v", frame, err)
	}
	if msg.Type != want {
		t.Fatalf("got %s, want %s message", frame, want)
	}
	p, err := msg.Presence()
	if err != nil {
		t.Fatalf("presence %s: %v", frame, err)
	}
	return p
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
