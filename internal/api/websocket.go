package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/MarkdownViewer/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBuffer = 256
)

// Message kinds. Requests use MessageRender and MessageBlocks; the server
// also pushes MessageJob when a render job finishes and MessageError when a
// request cannot be served.
const (
	MessageRender = "render"
	MessageBlocks = "blocks"
	MessageJob    = "job"
	MessageError  = "error"
)

// WSRequest is a client request on the live-preview channel.
type WSRequest struct {
	ID   string `json:"id,omitempty"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// WSMessage is a server message on the live-preview channel. ID echoes the
// request it answers.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Render    *RenderResponse `json:"render,omitempty"`
	Blocks    *BlocksResponse `json:"blocks,omitempty"`
	Job       *Job            `json:"job,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub
	srv  *Server
	conn *websocket.Conn
	send chan []byte
}

type outbound struct {
	client *Client
	data   []byte
}

// Hub maintains active WebSocket connections. All writes to a client's send
// channel happen on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan outbound),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles client registration and message delivery until Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.deliver(client, message)
			}
			h.mu.Unlock()

		case out := <-h.direct:
			h.mu.Lock()
			if h.clients[out.client] {
				h.deliver(out.client, out.data)
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// deliver must be called with the lock held. Slow clients are dropped.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
		logging.WebSocketEvent("client_dropped", len(h.clients), "reason", "send buffer full")
	}
}

// Stop disconnects all clients and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg WSMessage) {
	data, ok := encodeMessage(msg)
	if !ok {
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message", "type", msg.Type)
	}
}

// Send queues a message for one client.
func (h *Hub) Send(client *Client, msg WSMessage) {
	data, ok := encodeMessage(msg)
	if !ok {
		return
	}

	select {
	case h.direct <- outbound{client: client, data: data}:
	case <-h.done:
	}
}

func encodeMessage(msg WSMessage) ([]byte, bool) {
	if msg.Timestamp == "" {
		msg.Timestamp = timestamp()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal websocket message", "error", err)
		return nil, false
	}
	return data, true
}

// handleMessage answers one client request.
func (s *Server) handleMessage(ctx context.Context, data []byte) WSMessage {
	var req WSRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return WSMessage{Type: MessageError, Error: "invalid JSON message"}
	}

	switch req.Kind {
	case MessageRender:
		res, hash, hit := s.render(ctx, req.Text)
		resp := &RenderResponse{
			Hash:       hash,
			Structures: res.Structures,
			Status:     res.Status,
			SVG:        res.SVG,
			Cached:     hit,
		}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		return WSMessage{Type: MessageRender, ID: req.ID, Render: resp}

	case MessageBlocks:
		resp := s.classify(ctx, req.Text)
		return WSMessage{Type: MessageBlocks, ID: req.ID, Blocks: &resp}

	default:
		return WSMessage{Type: MessageError, ID: req.ID, Error: "unknown kind: " + req.Kind}
	}
}

// readPump reads requests from the WebSocket connection and queues replies.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.srv.cfg.MaxBodyBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.Send(c, c.srv.handleMessage(ctx, data))
	}
}

// writePump writes queued messages to the WebSocket connection, one frame
// per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	cors := s.corsConfig()
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if cors.Allows(origin) {
				return true
			}
			logging.SecurityEvent("websocket_origin_rejected", "api",
				"origin", origin,
				"remote_addr", r.RemoteAddr)
			return false
		},
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket and registers clients.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		logging.ErrorContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		srv:  s,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	// Keep the request id for logging without tying replies to the
	// upgrade request's lifetime.
	ctx := logging.WithRequestID(context.Background(), logging.GetRequestID(r.Context()))

	go client.writePump()
	go client.readPump(ctx)
}
