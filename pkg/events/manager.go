// Package events implements the real-time event-stream half of the
// external collaborator API (spec.md §6, SPEC_FULL.md §4.10): a
// WebSocket connection manager that fans feedback, gate-violation,
// ARI-alert, and EDM-detection events out to subscribed plug-ins and the
// dashboard. Grounded directly on tarsy's pkg/events/manager.go
// (ConnectionManager, per-channel subscription sets, connection
// lifecycle) with the Postgres NOTIFY/LISTEN cross-pod fan-out dropped —
// this core has no Postgres in scope (see DESIGN.md) — replaced by a
// bounded in-process replay log per channel so a client that subscribes
// late still gets recent history, the same purpose tarsy's catchup query
// serves.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Channel names. RDI is deliberately absent: spec.md §4.6's hard
// invariant forbids publishing raw, identifiable RDI measurements, and
// SPEC_FULL.md §4.10 is explicit that RDI-private events are never
// published here.
const (
	ChannelFeedback      = "feedback"
	ChannelGateViolation = "gate-violation"
	ChannelARIAlert      = "ari-alert"
	ChannelEDMDetection  = "edm-detection"
)

// replayLimit bounds the in-process catch-up log kept per channel,
// mirroring tarsy's catchupLimit.
const replayLimit = 200

// writeTimeout bounds how long a single WebSocket send may block.
const writeTimeout = 5 * time.Second

// ClientMessage is the JSON shape of client -> server WebSocket frames.
type ClientMessage struct {
	Action  string `json:"action"` // "subscribe", "unsubscribe", "ping"
	Channel string `json:"channel,omitempty"`
}

// Connection is a single WebSocket client and the channels it has
// subscribed to. Subscriptions are read/written only from the
// connection's own read loop, matching tarsy's single-goroutine-owns-it
// comment on the same field.
type Connection struct {
	ID            string
	conn          *websocket.Conn
	subscriptions map[string]bool
	ctx           context.Context
	cancel        context.CancelFunc
}

// Manager fans published events out to subscribed WebSocket connections
// and keeps a short per-channel replay log for late subscribers.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	channels    map[string]map[string]bool // channel -> connection ids

	replayMu sync.Mutex
	replay   map[string][][]byte
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		channels:    make(map[string]map[string]bool),
		replay:      make(map[string][][]byte),
	}
}

// Publish broadcasts v, JSON-encoded, to every connection subscribed to
// channel, and appends it to that channel's replay log.
func (m *Manager) Publish(channel string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("events: failed to marshal payload", "channel", channel, "error", err)
		return
	}

	m.replayMu.Lock()
	log := append(m.replay[channel], data)
	if len(log) > replayLimit {
		log = log[len(log)-replayLimit:]
	}
	m.replay[channel] = log
	m.replayMu.Unlock()

	m.mu.RLock()
	ids, ok := m.channels[channel]
	if !ok {
		m.mu.RUnlock()
		return
	}
	conns := make([]*Connection, 0, len(ids))
	for id := range ids {
		if c, ok := m.connections[id]; ok {
			conns = append(conns, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range conns {
		m.sendRaw(c, data)
	}
}

// ActiveConnections reports how many WebSocket clients are currently
// attached.
func (m *Manager) ActiveConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// HandleConnection manages one WebSocket client's lifecycle: registers
// it, processes subscribe/unsubscribe/ping frames until the socket
// closes, then cleans up. Blocks until the connection ends.
func (m *Manager) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &Connection{
		ID:            uuid.NewString(),
		conn:          conn,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}

	m.register(c)
	defer m.unregister(c)

	m.sendJSON(c, map[string]string{"type": "connection.established", "connection_id": c.ID})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		m.handleClientMessage(c, &msg)
	}
}

func (m *Manager) handleClientMessage(c *Connection, msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if msg.Channel == "" {
			return
		}
		m.subscribe(c, msg.Channel)
		m.sendJSON(c, map[string]string{"type": "subscription.confirmed", "channel": msg.Channel})
		m.replayTo(c, msg.Channel)
	case "unsubscribe":
		if msg.Channel == "" {
			return
		}
		m.unsubscribe(c, msg.Channel)
	case "ping":
		m.sendJSON(c, map[string]string{"type": "pong"})
	}
}

func (m *Manager) subscribe(c *Connection, channel string) {
	c.subscriptions[channel] = true

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[channel]; !ok {
		m.channels[channel] = make(map[string]bool)
	}
	m.channels[channel][c.ID] = true
}

func (m *Manager) unsubscribe(c *Connection, channel string) {
	delete(c.subscriptions, channel)

	m.mu.Lock()
	defer m.mu.Unlock()
	if ids, ok := m.channels[channel]; ok {
		delete(ids, c.ID)
		if len(ids) == 0 {
			delete(m.channels, channel)
		}
	}
}

func (m *Manager) replayTo(c *Connection, channel string) {
	m.replayMu.Lock()
	log := append([][]byte(nil), m.replay[channel]...)
	m.replayMu.Unlock()
	for _, data := range log {
		m.sendRaw(c, data)
	}
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[c.ID] = c
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	for channel, ids := range m.channels {
		delete(ids, c.ID)
		if len(ids) == 0 {
			delete(m.channels, channel)
		}
	}
	delete(m.connections, c.ID)
	m.mu.Unlock()
	c.cancel()
}

func (m *Manager) sendJSON(c *Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.sendRaw(c, data)
}

func (m *Manager) sendRaw(c *Connection, data []byte) {
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Warn("events: failed to write to client", "connection_id", c.ID, "error", err)
	}
}
