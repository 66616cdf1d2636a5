package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_ws_connections_active",
		Help: "Currently registered WebSocket connections.",
	})
	broadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_ws_broadcasts_total",
		Help: "Messages pushed to clients, labeled by delivery scope.",
	}, []string{"scope"})
	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_ws_dropped_messages_total",
		Help: "Messages dropped because a connection was gone or its queue full.",
	})
)

// Hub manages WebSocket connections and delivers messages by scope:
// everyone, moderators only, or a single connection. Delivery is
// best-effort; a client that is offline simply misses the push and
// resynchronizes from a snapshot on reconnect.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection
	moderators  map[uuid.UUID]struct{}
	logger      zerolog.Logger
}

// NewHub creates an empty connection hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		moderators:  make(map[uuid.UUID]struct{}),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a connection under a fresh connection ID.
func (h *Hub) Register(connID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[connID]; exists {
		old.Close()
	}
	h.connections[connID] = conn
	connectionsActive.Inc()
	h.logger.Info().Str("conn_id", connID.String()).Msg("connection registered")
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[connID]; exists {
		conn.Close()
		delete(h.connections, connID)
		delete(h.moderators, connID)
		connectionsActive.Dec()
		h.logger.Info().Str("conn_id", connID.String()).Msg("connection unregistered")
	}
}

// SetModerator marks a connection as belonging to the quizmaster so it
// receives moderator-scoped broadcasts.
func (h *Hub) SetModerator(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.moderators[connID] = struct{}{}
}

// Everyone pushes a message to every connected client, fire-and-forget.
func (h *Hub) Everyone(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	broadcastsTotal.WithLabelValues("everyone").Inc()
	for connID, conn := range h.connections {
		if err := conn.Send(msg); err != nil {
			droppedTotal.Inc()
			h.logger.Warn().Err(err).Str("conn_id", connID.String()).Str("type", msg.Type).Msg("broadcast send failed")
		}
	}
}

// Moderators pushes a message to every moderator connection.
func (h *Hub) Moderators(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	broadcastsTotal.WithLabelValues("moderators").Inc()
	for connID := range h.moderators {
		conn, exists := h.connections[connID]
		if !exists {
			continue
		}
		if err := conn.Send(msg); err != nil {
			droppedTotal.Inc()
			h.logger.Warn().Err(err).Str("conn_id", connID.String()).Str("type", msg.Type).Msg("moderator send failed")
		}
	}
}

// SendTo delivers a message to a single connection.
func (h *Hub) SendTo(connID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[connID]
	h.mu.RUnlock()

	if !exists {
		droppedTotal.Inc()
		return ErrConnectionNotFound
	}
	broadcastsTotal.WithLabelValues("single").Inc()
	return conn.Send(msg)
}

// Connection wraps a WebSocket connection with a buffered send queue so
// one slow client never blocks a broadcast.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a raw WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection and its send queue.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump receives messages and hands them to the handler until the
// connection drops.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Str("type", msg.Type).Msg("message handler error")
		}
	}
}

const readTimeout = 120 * time.Second

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
