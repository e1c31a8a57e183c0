// Package ws maintains the set of connected websocket clients and fans
// slot/booking events out to them.  Every event carries the same payload as
// its broker counterpart, wrapped in a {type, data} envelope.
package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to a peer.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before it is
	// considered dead; pingPeriod must be shorter.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Envelope is the wire frame delivered to websocket clients.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one websocket connection belonging to a member.  A member may
// hold several connections (multiple devices); each registers separately.
type Client struct {
	hub      *Hub
	memberID uint64
	conn     *websocket.Conn
	send     chan []byte
}

// Hub tracks connected clients and routes outbound frames.  All state is
// guarded by mu; Broadcast and SendToMember never block on a slow client,
// one whose send buffer is full is simply dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]map[*Client]struct{}
}

// NewHub returns an empty hub ready for registrations.
func NewHub() *Hub {
	return &Hub{clients: make(map[uint64]map[*Client]struct{})}
}

// Register attaches a new connection for the given member and starts its
// read and write pumps.
func (h *Hub) Register(memberID uint64, conn *websocket.Conn) {
	c := &Client{hub: h, memberID: memberID, conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	if h.clients[memberID] == nil {
		h.clients[memberID] = make(map[*Client]struct{})
	}
	h.clients[memberID][c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.memberID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.clients, c.memberID)
			}
		}
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	frame, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		log.Printf("ws: marshal %s failed: %v", eventType, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			c.enqueue(frame)
		}
	}
}

// SendToMember sends an event to every connection of one member.  Members
// without a connection simply miss the push; delivery is best-effort.
func (h *Hub) SendToMember(memberID uint64, eventType string, data interface{}) {
	frame, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		log.Printf("ws: marshal %s failed: %v", eventType, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[memberID] {
		c.enqueue(frame)
	}
}

func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		// Slow consumer; let the write pump shut it down.
	}
}

// readPump discards inbound frames (clients only listen) and keeps the
// pong deadline fresh until the connection errors out.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
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

// writePump drains the send channel and pings the peer on an interval.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
