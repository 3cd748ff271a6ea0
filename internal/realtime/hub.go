// Package realtime pushes board events to members watching a roadmap over
// WebSockets.
package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	defaultBufferSize = 64
)

// Message is the JSON frame delivered to subscribers.
type Message struct {
	Stream string `json:"stream"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
}

type controlMessage struct {
	Action string `json:"action"`
}

// Hub fans board events out to connected members.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*connection]struct{}
	upgrader      websocket.Upgrader
	log           *zap.Logger
}

// NewHub constructs a hub. allowedOrigins extends the same-origin and
// loopback origins accepted on upgrade.
func NewHub(allowedOrigins ...string) *Hub {
	extra := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if host := hostWithoutPort(origin); host != "" {
			extra[host] = struct{}{}
		}
	}

	return &Hub{
		subscriptions: make(map[string]map[*connection]struct{}),
		log:           logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				if _, ok := extra[originHost]; ok {
					return true
				}
				return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the request and streams events of roadmapID to userID until
// the connection closes. Membership must be checked by the caller.
func (h *Hub) Serve(userID, roadmapID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	client := newConnection(h, conn, userID, RoadmapStream(roadmapID))
	h.subscribe(client)
	metrics.RealtimeConnections.Inc()

	go client.writeLoop()
	client.readLoop()
}

// PublishBoardEvent delivers event to everyone watching roadmapID.
func (h *Hub) PublishBoardEvent(roadmapID, event string, data any) {
	h.Broadcast(RoadmapStream(roadmapID), Message{Event: event, Data: data})
}

// Broadcast delivers message to every subscriber of stream. Subscribers
// whose buffer is full are disconnected.
func (h *Hub) Broadcast(stream string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}
	message.Stream = stream

	var slow []*connection

	h.mu.RLock()
	for client := range h.subscriptions[stream] {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.log.Warn("dropping slow subscriber", zap.String("user_id", client.userID), zap.String("stream", stream))
		client.close()
	}
}

// Subscribers reports how many connections listen on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[normalizeStream(stream)])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*connection
	for _, clients := range h.subscriptions {
		for client := range clients {
			all = append(all, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range all {
		client.close()
	}
}

func (h *Hub) subscribe(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscriptions[client.stream] == nil {
		h.subscriptions[client.stream] = make(map[*connection]struct{})
	}
	h.subscriptions[client.stream][client] = struct{}{}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.subscriptions[client.stream]
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.subscriptions, client.stream)
	}
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	userID string
	stream string

	// sendMu guards send against writes after close.
	sendMu sync.Mutex
	closed bool
	send   chan Message
	once   sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, userID, stream string) *connection {
	return &connection{
		hub:    hub,
		socket: conn,
		userID: userID,
		stream: stream,
		send:   make(chan Message, defaultBufferSize),
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(ctrl.Action), "ping") {
			c.trySend(Message{Stream: c.stream, Event: "pong"})
		}
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) trySend(message Message) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		metrics.RealtimeConnections.Dec()

		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()

		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		if parsed, err := http.NewRequest(http.MethodGet, host, nil); err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
