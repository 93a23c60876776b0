package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemberCounter reports the current number of members in a room. It is
// injected from main.go so that listings carry live counts without the
// directory owning any membership state.
type MemberCounter func(roomID string) int

// DirectoryModule owns room metadata: creation, password updates, and the
// listing consumed by the CRUD surface.
type DirectoryModule struct {
	db       *gorm.DB
	repo     *Repository
	eventBus mono.EventBus
	counter  MemberCounter
	dbPath   string
}

// Compile-time interface checks.
var _ mono.Module = (*DirectoryModule)(nil)
var _ mono.ServiceProviderModule = (*DirectoryModule)(nil)
var _ mono.EventBusAwareModule = (*DirectoryModule)(nil)
var _ mono.EventEmitterModule = (*DirectoryModule)(nil)
var _ mono.HealthCheckableModule = (*DirectoryModule)(nil)

// NewModule creates a new DirectoryModule.
func NewModule() *DirectoryModule {
	dbPath := os.Getenv("CHAT_RELAY_DB_PATH")
	if dbPath == "" {
		dbPath = "chat_relay.db"
	}
	return &DirectoryModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *DirectoryModule) Name() string {
	return "directory"
}

// SetEventBus receives the EventBus from the framework.
func (m *DirectoryModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *DirectoryModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
	}
}

// SetMemberCounter injects the live member count source (called from main.go
// because the relay hub is not exposed via ServiceContainer).
func (m *DirectoryModule) SetMemberCounter(counter MemberCounter) {
	m.counter = counter
}

// Start opens the SQLite database and migrates the room schema.
func (m *DirectoryModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&chat.Room{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.repo = NewRepository(db)

	log.Printf("[directory] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database connection.
func (m *DirectoryModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[directory] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *DirectoryModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *DirectoryModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceCreateRoom,
		json.Unmarshal,
		json.Marshal,
		m.handleCreateRoom,
	); err != nil {
		return fmt.Errorf("failed to register create-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetRoom,
		json.Unmarshal,
		json.Marshal,
		m.handleGetRoom,
	); err != nil {
		return fmt.Errorf("failed to register get-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceUpdatePassword,
		json.Unmarshal,
		json.Marshal,
		m.handleUpdatePassword,
	); err != nil {
		return fmt.Errorf("failed to register update-password service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register list-rooms service: %w", err)
	}

	log.Printf("[directory] Registered services: create-room, get-room, update-password, list-rooms")
	return nil
}

// handleCreateRoom creates a room with a fresh id.
func (m *DirectoryModule) handleCreateRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	if err := chat.ValidateRoomName(req.Name); err != nil {
		return CreateRoomResponse{Status: StatusInvalidInput, Message: err.Error()}, nil
	}

	room := &chat.Room{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Password:  req.Password,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.repo.Create(room); err != nil {
		return CreateRoomResponse{}, err
	}

	if m.eventBus != nil {
		event := events.RoomCreatedEvent{
			RoomID:    room.ID,
			RoomName:  room.Name,
			Timestamp: room.CreatedAt,
		}
		if err := events.RoomCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			slog.Warn("Failed to publish RoomCreated event", "error", err)
		}
	}

	return CreateRoomResponse{Status: StatusOK, Room: room}, nil
}

// handleGetRoom looks up a room, password included, for join validation.
func (m *DirectoryModule) handleGetRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, err := m.repo.FindByID(req.RoomID)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return GetRoomResponse{Found: false}, nil
		}
		return GetRoomResponse{}, err
	}

	return GetRoomResponse{
		Found:     true,
		ID:        room.ID,
		Name:      room.Name,
		Password:  room.Password,
		CreatedAt: room.CreatedAt,
	}, nil
}

// handleUpdatePassword replaces a room's password.
func (m *DirectoryModule) handleUpdatePassword(_ context.Context, req UpdatePasswordRequest, _ *mono.Msg) (UpdatePasswordResponse, error) {
	if err := chat.ValidatePassword(req.NewPassword); err != nil {
		return UpdatePasswordResponse{Status: StatusInvalidInput, Message: err.Error()}, nil
	}

	if err := m.repo.UpdatePassword(req.RoomID, req.NewPassword); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return UpdatePasswordResponse{Status: StatusNotFound, Message: err.Error()}, nil
		}
		return UpdatePasswordResponse{}, err
	}

	return UpdatePasswordResponse{Status: StatusOK}, nil
}

// handleListRooms returns the room listing with live member counts.
func (m *DirectoryModule) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms, err := m.repo.FindAll()
	if err != nil {
		return ListRoomsResponse{}, err
	}

	infos := make([]chat.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		info := chat.RoomInfo{
			ID:          room.ID,
			Name:        room.Name,
			HasPassword: room.HasPassword(),
			CreatedAt:   room.CreatedAt,
		}
		if m.counter != nil {
			info.MemberCount = m.counter(room.ID)
		}
		infos = append(infos, info)
	}

	return ListRoomsResponse{Rooms: infos}, nil
}
