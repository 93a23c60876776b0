package directory

import (
	"context"
	"encoding/json"
	"fmt"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DirectoryPort is the consumer-facing view of the directory. The relay and
// API modules depend on this interface rather than on the module itself.
type DirectoryPort interface {
	CreateRoom(ctx context.Context, name, password string) (*chat.Room, error)
	GetRoom(ctx context.Context, roomID string) (*chat.Room, error)
	UpdatePassword(ctx context.Context, roomID, newPassword string) error
	ListRooms(ctx context.Context) ([]chat.RoomInfo, error)
}

// Adapter calls the directory's request-reply services through a dependency
// service container and maps reply statuses back to domain errors.
type Adapter struct {
	container mono.ServiceContainer
}

var _ DirectoryPort = (*Adapter)(nil)

// NewAdapter creates an adapter around the directory's service container.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	return &Adapter{container: container}
}

// CreateRoom creates a room and returns it.
func (a *Adapter) CreateRoom(ctx context.Context, name, password string) (*chat.Room, error) {
	req := CreateRoomRequest{Name: name, Password: password}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreateRoom,
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-room call failed: %w", err)
	}

	switch resp.Status {
	case StatusOK:
		return resp.Room, nil
	case StatusInvalidInput:
		return nil, mapInvalidInput(resp.Message)
	default:
		return nil, fmt.Errorf("create-room failed: %s", resp.Message)
	}
}

// GetRoom looks up a room by id. The returned room carries the stored
// password for join validation.
func (a *Adapter) GetRoom(ctx context.Context, roomID string) (*chat.Room, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetRoom,
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-room call failed: %w", err)
	}

	if !resp.Found {
		return nil, chat.ErrRoomNotFound
	}

	return &chat.Room{
		ID:        resp.ID,
		Name:      resp.Name,
		Password:  resp.Password,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// UpdatePassword changes a room's password.
func (a *Adapter) UpdatePassword(ctx context.Context, roomID, newPassword string) error {
	req := UpdatePasswordRequest{RoomID: roomID, NewPassword: newPassword}
	var resp UpdatePasswordResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceUpdatePassword,
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return fmt.Errorf("update-password call failed: %w", err)
	}

	switch resp.Status {
	case StatusOK:
		return nil
	case StatusNotFound:
		return chat.ErrRoomNotFound
	case StatusInvalidInput:
		return mapInvalidInput(resp.Message)
	default:
		return fmt.Errorf("update-password failed: %s", resp.Message)
	}
}

// ListRooms returns the room listing.
func (a *Adapter) ListRooms(ctx context.Context) ([]chat.RoomInfo, error) {
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceListRooms,
		json.Marshal, json.Unmarshal,
		&ListRoomsRequest{}, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-rooms call failed: %w", err)
	}
	return resp.Rooms, nil
}

// mapInvalidInput matches validation messages back to their sentinel errors
// so callers can use errors.Is across the bus boundary.
func mapInvalidInput(message string) error {
	for _, sentinel := range []error{
		chat.ErrRoomNameEmpty,
		chat.ErrRoomNameTooLong,
		chat.ErrPasswordEmpty,
	} {
		if sentinel.Error() == message {
			return sentinel
		}
	}
	return fmt.Errorf("invalid input: %s", message)
}
