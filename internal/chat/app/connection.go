package app

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"marketplace_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ErrConnClosed the connection is gone or its outbound buffer overflowed
var ErrConnClosed = errors.New("connection closed")

// ClientConn wraps one live websocket session. The transport layer owns it for
// its lifetime; outbound writes go through a bounded buffer so one slow client
// never blocks a broadcaster.
type ClientConn struct {
	ID     string
	UserID string

	ws       *websocket.Conn
	outbox   chan []byte
	closed   chan struct{}
	once     sync.Once
	lastSeen atomic.Int64 // unix nano

	mu     sync.Mutex
	joined map[string]struct{}
}

// NewClientConn create a ClientConn for an authenticated user
func NewClientConn(id, userID string, ws *websocket.Conn, outboxSize int) *ClientConn {
	c := &ClientConn{
		ID:     id,
		UserID: userID,
		ws:     ws,
		outbox: make(chan []byte, outboxSize),
		closed: make(chan struct{}),
		joined: make(map[string]struct{}),
	}
	c.Touch()
	return c
}

// Start launch the write loop. Call exactly once per connection.
func (c *ClientConn) Start() {
	go c.writeLoop()
}

// Send enqueue payload for delivery. A full buffer means the client cannot
// keep up; the connection is dropped instead of blocking the caller.
func (c *ClientConn) Send(payload []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}

	select {
	case c.outbox <- payload:
		return nil
	default:
		logger.Log.Warn("outbound buffer full, dropping connection",
			zap.String("connID", c.ID), zap.String("userID", c.UserID))
		c.Close()
		return ErrConnClosed
	}
}

// Close terminate the connection and stop the write loop. Safe to call from
// any goroutine, any number of times.
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.closed)
		if c.ws != nil {
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = c.ws.Close()
		}
	})
}

// Done closed when the connection is terminated
func (c *ClientConn) Done() <-chan struct{} {
	return c.closed
}

// Touch record activity, consulted by the idle sweeper
func (c *ClientConn) Touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// LastActive time of the most recent inbound frame or pong
func (c *ClientConn) LastActive() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *ClientConn) trackJoin(conversationID string) {
	c.mu.Lock()
	c.joined[conversationID] = struct{}{}
	c.mu.Unlock()
}

func (c *ClientConn) trackLeave(conversationID string) {
	c.mu.Lock()
	delete(c.joined, conversationID)
	c.mu.Unlock()
}

// HasJoined check the connection issued a join for the conversation
func (c *ClientConn) HasJoined(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.joined[conversationID]
	return ok
}

// Joined snapshot of the conversations this connection is in
func (c *ClientConn) Joined() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.joined))
	for id := range c.joined {
		ids = append(ids, id)
	}
	return ids
}

func (c *ClientConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.outbox:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Log.Errorf("write message error:", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Errorf("ping error:", err)
				c.Close()
				return
			}
		}
	}
}
