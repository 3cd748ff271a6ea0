package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub, roadmapID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve("user-1", roadmapID, w, r)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return hub.Subscribers(RoadmapStream(roadmapID)) == 1
	}, time.Second, 10*time.Millisecond)
	return conn
}

func TestRoadmapStream(t *testing.T) {
	require.Equal(t, "roadmap:abc", RoadmapStream(" ABC "))
}

func TestPublishBoardEventReachesSubscribers(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "r1")

	hub.PublishBoardEvent("r2", "feature.created", map[string]string{"id": "other"})
	hub.PublishBoardEvent("r1", "feature.updated", map[string]string{"id": "f1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Stream string            `json:"stream"`
		Event  string            `json:"event"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "roadmap:r1", msg.Stream)
	require.Equal(t, "feature.updated", msg.Event)
	require.Equal(t, "f1", msg.Data["id"])
}

func TestPingControlMessage(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "r1")

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "pong", msg.Event)
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub()
	dial(t, hub, "r1")

	hub.Close()
	require.Equal(t, 0, hub.Subscribers(RoadmapStream("r1")))
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub("https://app.example.com")
	check := hub.upgrader.CheckOrigin

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws", nil)
	require.True(t, check(req))

	req.Header.Set("Origin", "https://app.example.com")
	require.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	require.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	require.False(t, check(req))
}
