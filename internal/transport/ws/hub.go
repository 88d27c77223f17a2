// Package ws implements the WebSocket charge point transport.
package ws

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/csms/core/internal/transport"
	"github.com/csms/core/internal/transport/framing"
)

const subprotocol = "ocpp1.6"

var upgrader = websocket.Upgrader{
	Subprotocols: []string{subprotocol},
	CheckOrigin:  func(r *http.Request) bool { return true },
}

// client is one live charge point connection.
type client struct {
	hub      *Hub
	chargeID string
	conn     *websocket.Conn
	send     chan []byte
	closed   int32

	writeTimeout time.Duration
	failures     *framing.FailureWindow
}

// Hub manages the set of live WebSocket connections and dispatches their
// lifecycle/inbound events to the Router, generalized from a register
// /unregister channel pair and a read/write pump split.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client

	onInbound      func(chargerID string, frame []byte, receivedAt time.Time)
	onConnected    func(chargerID string, claim transport.AuthClaim)
	onDisconnected func(chargerID string, reason error)

	writeTimeout time.Duration
	sendBuffer   int
}

// New creates a Hub. writeTimeout/sendBuffer default to 5s/64 when <= 0.
func New(logger *zap.Logger, writeTimeout time.Duration, sendBuffer int) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		logger:       logger,
		clients:      make(map[string]*client),
		writeTimeout: writeTimeout,
		sendBuffer:   sendBuffer,
	}
}

func (h *Hub) OnInbound(f func(chargerID string, frame []byte, receivedAt time.Time)) {
	h.onInbound = f
}

func (h *Hub) OnConnected(f func(chargerID string, claim transport.AuthClaim)) {
	h.onConnected = f
}

func (h *Hub) OnDisconnected(f func(chargerID string, reason error)) {
	h.onDisconnected = f
}

// Send queues frame for delivery to chargerID's live connection.
func (h *Hub) Send(ctx context.Context, chargerID string, frame []byte) error {
	h.mu.RLock()
	c, ok := h.clients[chargerID]
	h.mu.RUnlock()
	if !ok {
		return errors.New("ws: charger not connected")
	}

	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.writeTimeout):
		return errors.New("ws: send queue timeout")
	}
}

// Close terminates chargerID's live connection, if any.
func (h *Hub) Close(chargerID string) error {
	h.mu.RLock()
	c, ok := h.clients[chargerID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.conn.Close()
}

// chargerIDFromRequest extracts the identity from either
// /ocpp?id={chargerId} or /ocpp/{chargerId}.
func chargerIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("id"); id != "" {
		return id
	}
	trimmed := strings.TrimPrefix(r.URL.Path, "/ocpp/")
	trimmed = strings.Trim(trimmed, "/")
	unescaped, err := url.PathUnescape(trimmed)
	if err != nil {
		return trimmed
	}
	return unescaped
}

// ServeHTTP upgrades the request to a WebSocket and registers a new client
// for the charger identified in the URL. It rejects the upgrade with 400 if
// the client did not offer the ocpp1.6 subprotocol.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	chargerID := chargerIDFromRequest(r)
	if chargerID == "" {
		http.Error(w, "missing charger id", http.StatusBadRequest)
		return
	}
	if !offersSubprotocol(r, subprotocol) {
		http.Error(w, "missing Sec-WebSocket-Protocol: ocpp1.6", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.String("charger_id", chargerID), zap.Error(err))
		return
	}

	c := &client{
		hub:          h,
		chargeID:     chargerID,
		conn:         conn,
		send:         make(chan []byte, h.sendBuffer),
		writeTimeout: h.writeTimeout,
		failures:     framing.NewFailureWindow(5, 10*time.Second),
	}

	h.register(c)

	go c.writePump()
	c.readPump()
}

func offersSubprotocol(r *http.Request, want string) bool {
	for _, p := range websocket.Subprotocols(r) {
		if p == want {
			return true
		}
	}
	return false
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if old, ok := h.clients[c.chargeID]; ok {
		old.conn.Close()
	}
	h.clients[c.chargeID] = c
	h.mu.Unlock()

	h.logger.Info("ws client connected", zap.String("charger_id", c.chargeID))
	if h.onConnected != nil {
		h.onConnected(c.chargeID, transport.AuthClaim{ChargePointID: c.chargeID})
	}
}

func (h *Hub) unregister(c *client, reason error) {
	h.mu.Lock()
	if cur, ok := h.clients[c.chargeID]; ok && cur == c {
		delete(h.clients, c.chargeID)
		close(c.send)
	}
	h.mu.Unlock()

	h.logger.Info("ws client disconnected", zap.String("charger_id", c.chargeID), zap.Error(reason))
	if h.onDisconnected != nil {
		h.onDisconnected(c.chargeID, reason)
	}
}

func (c *client) readPump() {
	var lastErr error
	defer func() { c.hub.unregister(c, lastErr) }()
	defer c.conn.Close()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			lastErr = err
			return
		}

		receivedAt := time.Now()
		if c.hub.onInbound != nil {
			c.hub.onInbound(c.chargeID, msg, receivedAt)
		}
	}
}

// RecordDecodeFailure feeds the N=5/10s malformed-frame rule for chargerID's
// connection. bootstrap's gateway calls this whenever a Session's
// codec.Decode fails on a frame received from this transport; a tripped
// window closes the socket.
func (h *Hub) RecordDecodeFailure(chargerID string) {
	h.mu.RLock()
	c, ok := h.clients[chargerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if c.failures.RecordFailure(time.Now()) {
		c.conn.Close()
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
