// Package hub is the realtime layer: WebSocket connections authenticated by
// session cookie, a command dispatch table over the game service, and
// role-filtered broadcast of state changes.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256

	maxMessageSize = 64 * 1024
)

// Connection is one authenticated WebSocket client. Outgoing messages go
// through a buffered channel; a client that cannot drain it is dropped.
type Connection struct {
	user   session.User
	ws     *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newConnection(user session.User, ws *websocket.Conn, logger *zap.Logger) *Connection {
	return &Connection{
		user:   user,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// User returns the authenticated session user for this connection.
func (c *Connection) User() session.User {
	return c.user
}

// Send marshals msg and queues it. A full send buffer closes the socket;
// the read pump then unregisters the connection.
func (c *Connection) Send(msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("encoding outgoing message", zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- raw:
	default:
		c.logger.Warn("send buffer full, dropping connection",
			zap.String("user", c.user.ID),
		)
		c.ws.Close()
	}
}

// closeSend shuts the outgoing channel exactly once; Send becomes a no-op
// afterwards.
func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads incoming messages and feeds them to the hub until the
// connection drops.
func (c *Connection) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read", zap.Error(err), zap.String("user", c.user.ID))
			}
			return
		}
		h.dispatch(c, raw)
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
