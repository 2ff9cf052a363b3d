// Package stream pushes flushed opportunity bundles to websocket clients.
package stream

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/bundle"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// MessageTypeBundles tags a payload of flushed bundles.
const MessageTypeBundles = "bundles"

// Message is the envelope written to clients.
type Message struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds hub configuration.
type Config struct {
	Logger *zap.Logger
	Now    func() time.Time

	// CheckOrigin overrides the upgrader's origin check. Nil allows all origins.
	CheckOrigin func(r *http.Request) bool
}

// Hub tracks connected clients and fans messages out to them. A client
// whose buffer is full is disconnected. New clients receive the last
// message on connect.
type Hub struct {
	logger   *zap.Logger
	now      func() time.Time
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// NewHub creates a hub.
func NewHub(cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		logger: cfg.Logger,
		now:    cfg.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish broadcasts a set of flushed bundles.
func (h *Hub) Publish(bundles []bundle.Bundled) {
	if bundles == nil {
		bundles = []bundle.Bundled{}
	}

	err := h.Broadcast(Message{
		Type:      MessageTypeBundles,
		Payload:   bundles,
		Timestamp: h.now(),
	})
	if err != nil {
		h.logger.Error("bundle-broadcast-failed", zap.Error(err))
	}
}

// Broadcast encodes msg and queues it for every client.
func (h *Hub) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	h.mu.Lock()
	h.last = data
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	MessagesTotal.WithLabelValues(msg.Type).Inc()

	for _, c := range slow {
		DroppedClientsTotal.Inc()
		h.logger.Warn("stream-client-too-slow", zap.String("client-id", c.id))
		h.unregister(c)
	}

	return nil
}

// ServeWS upgrades the request and streams messages until the peer leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	count := len(h.clients)
	h.mu.Unlock()

	ConnectedClients.Set(float64(count))
	h.logger.Info("stream-client-connected",
		zap.String("client-id", c.id),
		zap.Int("clients", count))

	go h.writePump(c)
	h.readPump(c)
}

// readPump drains inbound frames so control messages are processed.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	c.closeOnce.Do(func() { close(c.send) })
	ConnectedClients.Set(float64(count))
	h.logger.Info("stream-client-disconnected",
		zap.String("client-id", c.id),
		zap.Int("clients", count))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
