package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/events"
	"github.com/example/chat-relay-demo/modules/directory"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Heartbeat defaults. The client timeout must exceed the ping interval or
// every connection times out between pings.
const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultClientTimeout     = 10 * time.Second
)

// RelayModule owns live connections: join validation, message fan-out, and
// departure notices. All room notifications ride the RoomEvent definition so
// one connection's effects reach every subscriber in publish order.
type RelayModule struct {
	hub       *Hub
	directory directory.DirectoryPort
	eventBus  mono.EventBus

	heartbeatInterval time.Duration
	clientTimeout     time.Duration
}

var _ mono.Module = (*RelayModule)(nil)
var _ mono.DependentModule = (*RelayModule)(nil)
var _ mono.EventBusAwareModule = (*RelayModule)(nil)
var _ mono.EventEmitterModule = (*RelayModule)(nil)
var _ mono.EventConsumerModule = (*RelayModule)(nil)
var _ mono.HealthCheckableModule = (*RelayModule)(nil)

// NewModule creates a new RelayModule with heartbeat timing from the
// environment.
func NewModule() *RelayModule {
	return &RelayModule{
		hub:               NewHub(),
		heartbeatInterval: durationFromEnv("RELAY_HEARTBEAT_INTERVAL", DefaultHeartbeatInterval),
		clientTimeout:     durationFromEnv("RELAY_CLIENT_TIMEOUT", DefaultClientTimeout),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("[relay] Invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

// Name returns the module name.
func (m *RelayModule) Name() string {
	return "relay"
}

// Dependencies declares the modules this module depends on.
func (m *RelayModule) Dependencies() []string {
	return []string{"directory"}
}

// SetDependencyServiceContainer receives dependency service containers.
func (m *RelayModule) SetDependencyServiceContainer(dep string, container mono.ServiceContainer) {
	if dep == "directory" {
		m.SetDirectory(directory.NewAdapter(container))
	}
}

// SetDirectory sets the room lookup source used for join validation.
func (m *RelayModule) SetDirectory(d directory.DirectoryPort) {
	m.directory = d
}

// SetEventBus receives the EventBus from the framework.
func (m *RelayModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *RelayModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomEventV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes to room events. The relay consumes its
// own events: fan-out happens on delivery, not at publish time.
func (m *RelayModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomEventV1, m.handleRoomEvent, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomEvent consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	log.Println("[relay] Registered event consumers: RoomEvent, RoomCreated")
	return nil
}

// Start marks the module ready; connections arrive through the API module.
func (m *RelayModule) Start(_ context.Context) error {
	log.Printf("[relay] Module started (heartbeat: %s, client timeout: %s)",
		m.heartbeatInterval, m.clientTimeout)
	return nil
}

// Stop logs shutdown; in-flight connections are closed by the API server.
func (m *RelayModule) Stop(_ context.Context) error {
	log.Println("[relay] Module stopped")
	return nil
}

// Health reports connection and room counts.
func (m *RelayModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": m.hub.ConnectionCount(),
			"rooms":       m.hub.RoomCount(),
		},
	}
}

// Hub exposes the connection registry to the API module and to the
// directory's member counter.
func (m *RelayModule) Hub() *Hub {
	return m.hub
}

// HeartbeatInterval returns the protocol ping interval.
func (m *RelayModule) HeartbeatInterval() time.Duration {
	return m.heartbeatInterval
}

// ClientTimeout returns the read deadline extension applied on connect and on
// every pong.
func (m *RelayModule) ClientTimeout() time.Duration {
	return m.clientTimeout
}

// ValidateJoin checks a prospective join against the directory without
// mutating any state. Validation order is fixed: unknown room, then missing
// password, then wrong password.
func (m *RelayModule) ValidateJoin(ctx context.Context, roomID string, password *string) (*chat.Room, error) {
	room, err := m.directory.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HasPassword() {
		if password == nil {
			return nil, chat.ErrPasswordRequired
		}
		if !room.VerifyPassword(*password) {
			return nil, chat.ErrWrongPassword
		}
	}
	return room, nil
}

// Join validates and performs a join: the client enters the room's shard,
// receives a join confirmation with the current member list, and the rest of
// the room is notified. Joining a second room does not leave the first.
func (m *RelayModule) Join(ctx context.Context, c *Client, roomID, username string, password *string) error {
	if err := chat.ValidateUsername(username); err != nil {
		return err
	}

	room, err := m.ValidateJoin(ctx, roomID, password)
	if err != nil {
		return err
	}

	members := m.hub.Members(roomID)
	names := make([]string, 0, len(members))
	for _, member := range members {
		names = append(names, member.Username)
	}
	c.SetIdentity(username, roomID)
	m.hub.Join(roomID, c)

	if data, err := NewJoinedMessage(room.ID, room.Name, c.ID, names).Encode(); err == nil {
		c.Send(data)
	}

	m.publishRoomEvent(events.RoomEvent{
		Kind:      events.KindUserJoined,
		RoomID:    roomID,
		UserID:    c.ID,
		Username:  username,
		ExcludeID: c.ID,
		Timestamp: time.Now().UTC(),
	})

	slog.Info("Client joined room", "client_id", c.ID, "room_id", roomID, "username", username)
	return nil
}

// Chat relays a message to the sender's current room, sender included. A
// message from a client that never joined a room is dropped without error.
func (m *RelayModule) Chat(_ context.Context, c *Client, content string) error {
	if !c.InRoom() {
		return nil
	}
	if err := chat.ValidateMessage(content); err != nil {
		return err
	}

	m.publishRoomEvent(events.RoomEvent{
		Kind:      events.KindChat,
		RoomID:    c.RoomID(),
		UserID:    c.ID,
		Username:  c.Username(),
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Disconnect removes a client from its room and the hub, notifying the room.
// Safe to call for clients that never joined.
func (m *RelayModule) Disconnect(c *Client) {
	if roomID := c.RoomID(); roomID != "" {
		m.hub.Leave(roomID, c)
		m.publishRoomEvent(events.RoomEvent{
			Kind:      events.KindUserLeft,
			RoomID:    roomID,
			UserID:    c.ID,
			Username:  c.Username(),
			ExcludeID: c.ID,
			Timestamp: time.Now().UTC(),
		})
	}
	m.hub.Unregister(c)
	c.Close()
	slog.Info("Client disconnected", "client_id", c.ID)
}

func (m *RelayModule) publishRoomEvent(event events.RoomEvent) {
	if m.eventBus == nil {
		// No bus wired (tests); deliver directly to keep semantics intact.
		m.broadcastRoomEvent(event)
		return
	}
	if err := events.RoomEventV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Error("Failed to publish room event", "kind", event.Kind, "error", err)
	}
}

// handleRoomCreated announces a new room to every connection so clients can
// refresh their room listing without polling.
func (m *RelayModule) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	data, err := NewRoomCreatedMessage(event.RoomID, event.RoomName, event.Timestamp).Encode()
	if err != nil {
		return err
	}
	m.hub.BroadcastAll(data)
	return nil
}

// handleRoomEvent fans a room event out to the room's members.
func (m *RelayModule) handleRoomEvent(_ context.Context, event events.RoomEvent, _ *mono.Msg) error {
	m.broadcastRoomEvent(event)
	return nil
}

func (m *RelayModule) broadcastRoomEvent(event events.RoomEvent) {
	msg, err := serverMessageFor(event)
	if err != nil {
		slog.Error("Failed to map room event", "kind", event.Kind, "error", err)
		return
	}
	data, err := msg.Encode()
	if err != nil {
		slog.Error("Failed to encode room event", "kind", event.Kind, "error", err)
		return
	}
	m.hub.Broadcast(event.RoomID, data, event.ExcludeID)
}

func serverMessageFor(event events.RoomEvent) (*ServerMessage, error) {
	switch event.Kind {
	case events.KindChat:
		return NewChatMessage(event.RoomID, event.UserID, event.Username, event.Content, event.Timestamp), nil
	case events.KindUserJoined:
		return NewUserJoinedMessage(event.RoomID, event.UserID, event.Username, event.Timestamp), nil
	case events.KindUserLeft:
		return NewUserLeftMessage(event.RoomID, event.UserID, event.Username, event.Timestamp), nil
	default:
		return nil, fmt.Errorf("unknown room event kind: %s", event.Kind)
	}
}

// IsJoinRejection reports whether an error is one of the join validation
// failures a client should see verbatim.
func IsJoinRejection(err error) bool {
	return errors.Is(err, chat.ErrRoomNotFound) ||
		errors.Is(err, chat.ErrPasswordRequired) ||
		errors.Is(err, chat.ErrWrongPassword) ||
		errors.Is(err, chat.ErrUsernameEmpty) ||
		errors.Is(err, chat.ErrUsernameTooLong)
}
