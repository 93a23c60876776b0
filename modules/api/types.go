package api

import "time"

// CreateRoomRequest is the API request to create a room.
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// JoinRoomRequest is the API request to pre-check room credentials before
// opening a WebSocket session.
type JoinRoomRequest struct {
	RoomID   string  `json:"room_id"`
	Password *string `json:"password,omitempty"`
}

// UpdatePasswordRequest is the API request to change a room's password.
type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

// RoomResponse is the API response for a room. The password itself never
// appears, only whether one is required.
type RoomResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
	Members     int       `json:"members,omitempty"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
