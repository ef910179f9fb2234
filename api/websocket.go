package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// AllChannels subscribes a client to every event type.
	AllChannels = "*"
)

// WebSocketHub fans oracle events out to subscribed clients.
type WebSocketHub struct {
	logger    log.Logger
	clients   map[*WebSocketClient]bool
	broadcast chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
}

// WebSocketClient represents a WebSocket client
type WebSocketClient struct {
	hub           *WebSocketHub
	conn          *websocket.Conn
	send          chan WSMessage
	subscriptions map[string]bool
	mu            sync.RWMutex
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub(logger log.Logger) *WebSocketHub {
	return &WebSocketHub{
		logger:    logger,
		clients:   make(map[*WebSocketClient]bool),
		broadcast: make(chan WSMessage, 256),
		done:      make(chan struct{}),
	}
}

// Run dispatches messages until Close is called.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.subscribed(message.Channel) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// register adds client unless the hub is closed.
func (h *WebSocketHub) register(client *WebSocketClient) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "total", total)
	return true
}

// unregister removes client and closes its send channel.
func (h *WebSocketHub) unregister(client *WebSocketClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client disconnected", "total", total)
}

// Broadcast queues a message for subscribed clients without blocking.
func (h *WebSocketHub) Broadcast(message WSMessage) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		h.logger.Error("websocket broadcast channel is full, dropping message", "channel", message.Channel)
	}
}

// Close stops the hub and disconnects every client.
func (h *WebSocketHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// GetConnectedClients returns the number of connected clients
func (h *WebSocketHub) GetConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket upgrades the connection and registers the client.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	client := &WebSocketClient{
		hub:           s.wsHub,
		conn:          conn,
		send:          make(chan WSMessage, 256),
		subscriptions: make(map[string]bool),
	}

	if !s.wsHub.register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *WebSocketClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[channel] || c.subscriptions[AllChannels]
}

// readPump pumps subscription requests from the WebSocket connection
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", "err", err)
			}
			return
		}

		var msg WSSubscribeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendMessage(WSMessage{Type: "error", Data: "invalid subscription message"})
			continue
		}

		c.handleMessage(msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming WebSocket messages
func (c *WebSocketClient) handleMessage(msg WSSubscribeMessage) {
	switch msg.Type {
	case "subscribe":
		c.mu.Lock()
		c.subscriptions[msg.Channel] = true
		c.mu.Unlock()

		c.sendMessage(WSMessage{
			Type:    "subscribed",
			Channel: msg.Channel,
		})

	case "unsubscribe":
		c.mu.Lock()
		delete(c.subscriptions, msg.Channel)
		c.mu.Unlock()

		c.sendMessage(WSMessage{
			Type:    "unsubscribed",
			Channel: msg.Channel,
		})

	default:
		c.sendMessage(WSMessage{Type: "error", Data: "unknown message type: " + msg.Type})
	}
}

// sendMessage sends a message to this specific client. The hub guards send
// against concurrent close, so the send happens under its read lock.
func (c *WebSocketClient) sendMessage(msg WSMessage) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.hub.logger.Debug("websocket client send channel is full")
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}
