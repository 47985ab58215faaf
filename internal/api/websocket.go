package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/neuroair-core/internal/auth"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/config"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/logging"
)

// Client → server message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypeGetState    = "get_state"
	WSTypePing        = "ping"
)

// Server → client message types.
const (
	WSTypeEvent    = "event"
	WSTypeState    = "state"
	WSTypeResponse = "response"
	WSTypePong     = "pong"
	WSTypeError    = "error"
)

const wsSendBufferSize = 64

// Channels lists the event channels a client may subscribe to.
var Channels = []string{ChannelStateChanged, ChannelDispatch}

// WSRequest is a message sent by a WebSocket client.
type WSRequest struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// WSMessage is a message sent to a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}

// Hub fans out device state and dispatch events to WebSocket clients.
//
// Broadcast never blocks: it runs inside the controller's observer while
// the controller lock is held. A client whose buffer is full misses the
// event and can resynchronise with get_state.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   *logging.Logger
	snapshot func() any
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected WebSocket session.
type WSClient struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	subject string

	mu       sync.RWMutex
	channels map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by corsMiddleware before the upgrade.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates a hub. snapshot returns the payload for state messages
// and may be nil, in which case get_state is answered with an error.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, snapshot func() any) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		snapshot: snapshot,
		now:      time.Now,
		clients:  make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n, "subject", c.subject)
}

// Unregister removes a client. It is safe to call more than once; the
// send channel is closed by whichever call actually removed the client.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("websocket client disconnected", "clients", n, "subject", c.subject)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends payload as an event on channel to every subscriber.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := h.encode(WSMessage{Type: WSTypeEvent, Channel: channel, Payload: payload})
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.subscribed(channel) {
			c.trySend(data)
		}
	}
}

func (h *Hub) encode(msg WSMessage) ([]byte, error) {
	msg.Timestamp = h.now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

// handleWebSocket upgrades the request. authMiddleware has already
// validated the token, so the claims only name the session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &WSClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		channels: make(map[string]struct{}),
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		c.subject = claims.Subject
	}

	s.hub.Register(c)
	go c.writeLoop()
	go c.readLoop()
}

func (c *WSClient) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	idle := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(idle)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend("") //nolint:errcheck // a failed deadline surfaces on the next read
	c.conn.SetPongHandler(extend)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "subject", c.subject, "error", err)
			}
			return
		}
		extend("") //nolint:errcheck // a failed deadline surfaces on the next read
		c.handle(data)
	}
}

func (c *WSClient) writeLoop() {
	cfg := c.hub.cfg
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write reports the failure
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // peer may already be gone
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ping.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *WSClient) handle(data []byte) {
	var req WSRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(WSMessage{Type: WSTypeError, Payload: errorPayload("invalid JSON message")})
		return
	}

	switch req.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.subscribe(req)
	case WSTypeGetState:
		c.sendState(req.ID)
	case WSTypePing:
		c.reply(WSMessage{Type: WSTypePong, ID: req.ID})
	default:
		c.reply(WSMessage{Type: WSTypeError, ID: req.ID, Payload: errorPayload("unknown message type " + req.Type)})
	}
}

// subscribe applies a subscribe or unsubscribe request. Unknown channels
// reject the whole request. A new subscription to the state channel is
// followed by a state message so the client starts from current state.
func (c *WSClient) subscribe(req WSRequest) {
	if len(req.Channels) == 0 {
		c.reply(WSMessage{Type: WSTypeError, ID: req.ID, Payload: errorPayload("channels is required")})
		return
	}
	for _, ch := range req.Channels {
		if !slices.Contains(Channels, ch) {
			c.reply(WSMessage{Type: WSTypeError, ID: req.ID, Payload: errorPayload("unknown channel " + ch)})
			return
		}
	}

	add := req.Type == WSTypeSubscribe
	c.mu.Lock()
	for _, ch := range req.Channels {
		if add {
			c.channels[ch] = struct{}{}
		} else {
			delete(c.channels, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if add {
		key = "subscribed"
	}
	c.reply(WSMessage{Type: WSTypeResponse, ID: req.ID, Payload: map[string][]string{key: req.Channels}})

	if add && slices.Contains(req.Channels, ChannelStateChanged) {
		c.sendState("")
	}
}

func (c *WSClient) sendState(id string) {
	if c.hub.snapshot == nil {
		c.reply(WSMessage{Type: WSTypeError, ID: id, Payload: errorPayload("state is not available")})
		return
	}
	c.reply(WSMessage{Type: WSTypeState, ID: id, Payload: c.hub.snapshot()})
}

func (c *WSClient) reply(msg WSMessage) {
	data, err := c.hub.encode(msg)
	if err != nil {
		c.hub.logger.Error("encoding websocket reply", "type", msg.Type, "error", err)
		return
	}
	c.trySend(data)
}

// trySend queues data without blocking. A full buffer drops the message;
// a send racing Unregister's close is absorbed.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on closed channel after Unregister
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}
