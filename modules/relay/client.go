package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// sendBufferSize bounds the per-connection outbound queue. When the buffer is
// full the message is dropped for that recipient rather than blocking the
// sender.
const sendBufferSize = 256

// Client is one WebSocket connection. Room membership and username are set at
// join time; the zero values mean the connection has not joined yet.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	username string
	roomID   string
	closed   bool

	closeOnce sync.Once
}

// NewClient wraps a websocket connection with a fresh connection id.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// SetIdentity records the username and room after a successful join.
func (c *Client) SetIdentity(username, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.roomID = roomID
}

// Username returns the client's display name, empty before the first join.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// RoomID returns the room the client most recently joined.
func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// InRoom reports whether the client has joined a room.
func (c *Client) InRoom() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID != ""
}

// Send queues a message for delivery. Returns false if the client is closed
// or its buffer is full; in both cases the message is dropped.
func (c *Client) Send(message []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		slog.Warn("Client send buffer full, dropping message", "client_id", c.ID)
		return false
	}
}

// Close shuts the send channel exactly once. Pending buffered messages are
// still flushed by the write pump before the connection closes.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
	})
}

// WritePump drains the send channel onto the connection and emits protocol
// pings at the given interval. It exits when the send channel is closed or a
// write fails, closing the underlying connection either way.
func (c *Client) WritePump(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
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
