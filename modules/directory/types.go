package directory

import (
	"time"

	chat "github.com/example/chat-relay-demo/domain/chat"
)

// Service names registered in the service container.
const (
	ServiceCreateRoom     = "create-room"
	ServiceGetRoom        = "get-room"
	ServiceUpdatePassword = "update-password"
	ServiceListRooms      = "list-rooms"
)

// Reply status values. Typed errors do not survive JSON serialization across
// the service container, so replies carry a status string instead.
const (
	StatusOK           = "ok"
	StatusNotFound     = "not_found"
	StatusInvalidInput = "invalid_input"
)

// CreateRoomRequest asks the directory to create a room. An empty password
// creates an open room.
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// CreateRoomResponse carries the created room or a failure status.
type CreateRoomResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message,omitempty"`
	Room    *chat.Room `json:"room,omitempty"`
}

// GetRoomRequest looks up a room by id.
type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

// GetRoomResponse is flat rather than embedding chat.Room because the room
// password must cross the in-process bus for join validation and chat.Room
// never serializes it.
type GetRoomResponse struct {
	Found     bool      `json:"found"`
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Password  string    `json:"password,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// UpdatePasswordRequest changes a room's password.
type UpdatePasswordRequest struct {
	RoomID      string `json:"room_id"`
	NewPassword string `json:"new_password"`
}

// UpdatePasswordResponse reports the outcome of a password update.
type UpdatePasswordResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ListRoomsRequest asks for the room listing.
type ListRoomsRequest struct{}

// ListRoomsResponse carries the listing with live member counts.
type ListRoomsResponse struct {
	Rooms []chat.RoomInfo `json:"rooms"`
}
