package api

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/nightwalk/server/internal/sim"
)

const (
	// Supported WebSocket protocol versions
	ProtocolVersion1 = "nightwalk-v1"

	// Default ping interval (30 seconds)
	defaultPingInterval = 30 * time.Second

	// Pong wait timeout (60 seconds)
	pongWait = 60 * time.Second

	// Write timeout (10 seconds)
	writeTimeout = 10 * time.Second

	sendBuffer = 64
)

// WebSocketConnection is one inspector subscriber
type WebSocketConnection struct {
	conn    *websocket.Conn
	id      string
	version string
	send    chan []byte
	hub     *WebSocketHub
	// closed is set, under hub.mu, when the hub closes send.
	closed bool
}

// WebSocketHub fans world snapshots out to every subscriber. It implements
// sim.Publisher; a slow subscriber is dropped rather than stalling the loop.
type WebSocketHub struct {
	connections map[*WebSocketConnection]bool
	broadcast   chan []byte
	register    chan *WebSocketConnection
	unregister  chan *WebSocketConnection
	done        chan struct{}
	mu          sync.RWMutex

	idMu    sync.Mutex
	entropy *rand.Rand
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WebSocketError represents an error message sent over WebSocket
type WebSocketError struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		connections: make(map[*WebSocketConnection]bool),
		broadcast:   make(chan []byte, 16),
		register:    make(chan *WebSocketConnection),
		unregister:  make(chan *WebSocketConnection),
		done:        make(chan struct{}),
		entropy:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run services the hub until ctx is cancelled, then closes every connection.
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for conn := range h.connections {
				h.closeConnection(conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = true
			h.mu.Unlock()
			log.Printf("[Inspector] subscriber connected: id=%s, version=%s", conn.id, conn.version)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.closeConnection(conn)
			h.mu.Unlock()
			log.Printf("[Inspector] subscriber disconnected: id=%s", conn.id)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.connections {
				select {
				case conn.send <- message:
				default:
					log.Printf("[Inspector] dropping slow subscriber %s", conn.id)
					h.closeConnection(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// closeConnection forgets conn and closes its send channel once.
// The caller must hold h.mu for writing.
func (h *WebSocketHub) closeConnection(conn *WebSocketConnection) {
	delete(h.connections, conn)
	if !conn.closed {
		conn.closed = true
		close(conn.send)
	}
}

// ConnectionCount returns the number of live subscribers
func (h *WebSocketHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish queues a world_tick message for every subscriber. It never blocks:
// when the broadcast queue is full the tick is skipped.
func (h *WebSocketHub) Publish(snapshot *sim.Snapshot) {
	if h.ConnectionCount() == 0 {
		return
	}
	message, err := encodeMessage("world_tick", "", snapshot)
	if err != nil {
		log.Printf("[Inspector] failed to encode tick %d: %v", snapshot.Tick, err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
	}
}

func (h *WebSocketHub) newID() string {
	h.idMu.Lock()
	defer h.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), h.entropy).String()
}

func encodeMessage(msgType, id string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebSocketMessage{Type: msgType, ID: id, Data: data})
}

// SnapshotSource supplies the latest world snapshot
type SnapshotSource interface {
	Snapshot() *sim.Snapshot
}

// WebSocketHandlers upgrades inspector connections
type WebSocketHandlers struct {
	hub      *WebSocketHub
	source   SnapshotSource
	upgrader websocket.Upgrader
}

// NewWebSocketHandlers creates the /ws handler. Requests without an Origin
// header (non-browser tools) are accepted; browser origins must be listed.
func NewWebSocketHandlers(hub *WebSocketHub, source SnapshotSource, allowedOrigins []string) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:    hub,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			Subprotocols:    []string{ProtocolVersion1},
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	requested := r.Header.Get("Sec-WebSocket-Protocol")
	version := negotiateVersion(requested)
	if version == "" {
		log.Printf("[Inspector] version negotiation failed: requested=%s", requested)
		http.Error(w, "Unsupported protocol version", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Inspector] upgrade failed: %v", err)
		return
	}

	wsConn := &WebSocketConnection{
		conn:    conn,
		id:      h.hub.newID(),
		version: version,
		send:    make(chan []byte, sendBuffer),
		hub:     h.hub,
	}

	// Greet with the current state so a subscriber never waits a full tick.
	if snapshot := h.source.Snapshot(); snapshot != nil {
		if message, err := encodeMessage("world_tick", "", snapshot); err == nil {
			wsConn.send <- message
		}
	}

	select {
	case h.hub.register <- wsConn:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go wsConn.writePump()
	go wsConn.readPump(h)
}

// negotiateVersion selects the highest supported protocol version
func negotiateVersion(requested string) string {
	if requested == "" {
		// Default to v1 if no version specified
		return ProtocolVersion1
	}

	supportedVersions := []string{ProtocolVersion1}
	for _, supported := range supportedVersions {
		for _, candidate := range strings.Split(requested, ",") {
			if strings.TrimSpace(candidate) == supported {
				return supported
			}
		}
	}
	return ""
}

// readPump handles incoming messages from the WebSocket connection
func (c *WebSocketConnection) readPump(handlers *WebSocketHandlers) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		if err := c.conn.Close(); err != nil {
			log.Printf("[Inspector] failed to close connection: %v", err)
		}
	}()

	c.conn.SetReadLimit(4096)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[Inspector] failed to set read deadline: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Inspector] websocket error: %v", err)
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.sendError("", "Invalid message format", "InvalidMessageFormat")
			continue
		}

		handlers.handleMessage(c, &msg)
	}
}

// writePump sends one frame per queued message and keeps the connection alive.
func (c *WebSocketConnection) writePump() {
	ticker := time.NewTicker(defaultPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queue sends without blocking; a full buffer drops the message. The hub
// only closes send under its write lock, so holding the read lock here
// keeps the channel open for the send.
func (c *WebSocketConnection) queue(message []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		log.Printf("[Inspector] send buffer full for %s", c.id)
	}
}

// sendError sends an error message to the client
func (c *WebSocketConnection) sendError(id, errorMsg, code string) {
	messageBytes, err := json.Marshal(WebSocketError{
		Type:    "error",
		ID:      id,
		Error:   errorMsg,
		Message: errorMsg,
		Code:    code,
	})
	if err != nil {
		log.Printf("[Inspector] failed to marshal error message: %v", err)
		return
	}
	c.queue(messageBytes)
}

// handleMessage routes messages to appropriate handlers. The feed is
// read-only: only ping and snapshot requests are understood.
func (h *WebSocketHandlers) handleMessage(conn *WebSocketConnection, msg *WebSocketMessage) {
	switch msg.Type {
	case "ping":
		response, err := json.Marshal(WebSocketMessage{Type: "pong", ID: msg.ID})
		if err != nil {
			return
		}
		conn.queue(response)
	case "snapshot":
		message, err := encodeMessage("world_tick", msg.ID, h.source.Snapshot())
		if err != nil {
			conn.sendError(msg.ID, "Failed to encode snapshot", "InternalError")
			return
		}
		conn.queue(message)
	default:
		conn.sendError(msg.ID, "Unknown message type", "UnknownMessageType")
	}
}
