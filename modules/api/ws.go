package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/chat-relay-demo/modules/relay"
	"github.com/gofiber/contrib/websocket"
)

const writeWait = 10 * time.Second

// handleWebSocket runs one WebSocket session at /ws. The write pump runs in
// its own goroutine; this goroutine owns all reads.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	client := relay.NewClient(c)
	limiter := newRateLimiter(burstSize, messagesPerSecond)

	m.relay.Hub().Register(client)
	defer m.relay.Disconnect(client)

	go client.WritePump(m.relay.HeartbeatInterval(), writeWait)

	slog.Info("WebSocket connected", "client_id", client.ID)

	// A pong, like any successful read, buys the peer another timeout window.
	timeout := m.relay.ClientTimeout()
	c.SetReadDeadline(time.Now().Add(timeout))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(timeout))
		return nil
	})

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket read error", "client_id", client.ID, "error", err)
			}
			break
		}
		c.SetReadDeadline(time.Now().Add(timeout))

		if msgType != websocket.TextMessage {
			slog.Warn("Ignoring non-text frame", "client_id", client.ID, "frame_type", msgType)
			continue
		}

		m.dispatch(client, limiter, data)
	}

	slog.Info("WebSocket disconnected", "client_id", client.ID)
}

// dispatch handles one inbound frame. Protocol and validation failures answer
// with an error envelope and keep the connection open.
func (m *APIModule) dispatch(client *relay.Client, limiter *rateLimiter, data []byte) {
	msg, err := relay.ParseClientMessage(data)
	if err != nil {
		m.sendError(client, "Invalid message format")
		return
	}

	ctx := context.Background()

	switch msg.Type {
	case relay.TypeJoin:
		if err := m.relay.Join(ctx, client, msg.RoomID, msg.Username, msg.Password); err != nil {
			if relay.IsJoinRejection(err) {
				m.sendError(client, err.Error())
			} else {
				slog.Error("Join failed", "client_id", client.ID, "error", err)
				m.sendError(client, "Failed to join room")
			}
		}
	case relay.TypeChat:
		if !limiter.allow() {
			m.sendError(client, "Rate limit exceeded, please slow down")
			return
		}
		if err := m.relay.Chat(ctx, client, msg.Content); err != nil {
			m.sendError(client, err.Error())
		}
	case relay.TypePing:
		if data, err := relay.NewPongMessage().Encode(); err == nil {
			client.Send(data)
		}
	}
}

func (m *APIModule) sendError(client *relay.Client, message string) {
	if data, err := relay.NewErrorMessage(message).Encode(); err == nil {
		client.Send(data)
	}
}
