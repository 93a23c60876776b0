package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// Room event kinds. All room-scoped notifications ride a single event
// definition so that one connection's join, chat, and leave effects reach
// subscribers in the order they were published.
const (
	KindChat       = "chat"
	KindUserJoined = "user_joined"
	KindUserLeft   = "user_left"
)

// RoomEvent is emitted by the relay after a registry mutation or an accepted
// chat message. ExcludeID names a connection that must not receive the
// resulting broadcast (the originator of a join/leave notice).
type RoomEvent struct {
	Kind      string    `json:"kind"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content,omitempty"`
	ExcludeID string    `json:"exclude_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomCreatedEvent is emitted by the directory when a new room is created.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions.
var (
	RoomEventV1 = helper.EventDefinition[RoomEvent](
		"relay",
		"RoomEvent",
		"v1",
	)

	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"directory",
		"RoomCreated",
		"v1",
	)
)
