package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"omni_pulse/internal/logger"
	"omni_pulse/internal/state"
)

// Message types pushed to dashboard clients.
const (
	TypeSnapshot = "snapshot"
	TypeClock    = "clock"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope of every push.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ClockPayload is the body of a clock message.
type ClockPayload struct {
	ServerTime time.Time `json:"serverTime"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans board snapshots and clock ticks out to WebSocket clients. A client
// that cannot keep up loses messages rather than slowing the others down.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	clock   *rate.Limiter
	log     *logrus.Entry
}

// NewHub creates a hub. clockRate caps clock pushes per second; zero means
// unlimited.
func NewHub(clockRate float64) *Hub {
	limit := rate.Inf
	if clockRate > 0 {
		limit = rate.Limit(clockRate)
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		clock:   rate.NewLimiter(limit, 1),
		log:     logger.Log.WithField("component", "ws"),
	}
}

// Start subscribes to the board and forwards every publication until ctx is
// done.
func (h *Hub) Start(ctx context.Context, board *state.Board) {
	updates, cancel := board.Subscribe(sendBuffer)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				h.closeAll()
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				h.broadcast(Message{Type: TypeSnapshot, Payload: snap})
			}
		}
	}()
}

// BroadcastClock pushes the server time, throttled to the hub's clock rate.
func (h *Hub) BroadcastClock(now time.Time) {
	if !h.clock.Allow() {
		return
	}
	h.broadcast(Message{Type: TypeClock, Payload: ClockPayload{ServerTime: now}})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the connection and sends the snapshot returned by initial
// as the first message.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial func() state.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	c := h.register(conn, initial)
	go h.writeLoop(c)

	defer h.remove(c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}

// register adds a client and queues its initial snapshot. The snapshot is
// taken after the client joins, so no publication can fall between the two.
func (h *Hub) register(conn *websocket.Conn, initial func() state.Snapshot) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if data, err := json.Marshal(Message{Type: TypeSnapshot, Payload: initial()}); err == nil {
		c.send <- data
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Debugf("WebSocket client connected (total: %d)", total)
	return c
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).Debug("WebSocket write failed")
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal push message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.WithField("type", msg.Type).Debug("Client too slow, message dropped")
		}
	}
}

// remove unregisters c and closes its send channel exactly once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
