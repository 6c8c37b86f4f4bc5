package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"betteruno/internal/protocol"
)

const (
	// sendBuffer is the per-client outbound queue. A client that cannot
	// drain it in time is considered dead and dropped.
	sendBuffer = 64
	// pingInterval keeps the transport liveness check running.
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Client is one connected participant. The hub writes envelopes into the
// send channel; a single writer goroutine drains it in order, which
// preserves per-room FIFO delivery end to end.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	send chan protocol.Envelope

	mu         sync.Mutex
	playerID   string
	playerName string
	roomID     string

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan protocol.Envelope, sendBuffer),
	}
}

func (c *Client) identity() (playerID, playerName, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID, c.playerName, c.roomID
}

func (c *Client) setIdentity(playerID, playerName, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.playerName = playerName
	c.roomID = roomID
}

func (c *Client) clearRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = ""
	c.roomID = ""
}

// enqueue hands an envelope to the writer goroutine. Returns false when the
// client's queue is full, marking it as a dead consumer.
func (c *Client) enqueue(env protocol.Envelope) bool {
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// writePump serializes all writes for this connection and pings on idle.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				return
			}
			data, err := json.Marshal(env)
			if err != nil {
				c.hub.log.WithError(err).Warn("marshal outbound envelope")
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump decodes inbound envelopes and routes them through the hub until
// the connection drops.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.log.WithError(err).Debug("dropping malformed envelope")
			continue
		}
		c.hub.handle(c, env)
	}
}

// close tears the connection down exactly once. The send channel is left
// open; the writer goroutine exits via context cancellation, so a late
// enqueue never panics.
func (c *Client) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		_ = c.conn.Close(code, reason)
	})
}
