package relay

import (
	"encoding/json"
	"time"

	chat "github.com/example/chat-relay-demo/domain/chat"
)

// Client-to-server message types.
const (
	TypeJoin = "join"
	TypeChat = "chat"
	TypePing = "ping"
)

// Server-to-client message types.
const (
	TypeJoined      = "joined"
	TypeChatOut     = "chat"
	TypeUserJoined  = "user_joined"
	TypeUserLeft    = "user_left"
	TypeError       = "error"
	TypePong        = "pong"
	TypeRoomCreated = "room_created"
)

// ClientMessage is the inbound frame envelope. Password is a pointer so a
// join with no password field is distinguishable from one with an empty
// password when validating against a protected room.
type ClientMessage struct {
	Type     string  `json:"type"`
	RoomID   string  `json:"room_id,omitempty"`
	Username string  `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Content  string  `json:"content,omitempty"`
}

// ServerMessage is the outbound frame envelope. Fields are omitted when not
// meaningful for the type, so a pong is just {"type":"pong"}.
type ServerMessage struct {
	Type      string     `json:"type"`
	RoomID    string     `json:"room_id,omitempty"`
	RoomName  string     `json:"room_name,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	Content   string     `json:"content,omitempty"`
	Message   string     `json:"message,omitempty"`
	Members   []string   `json:"members,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ParseClientMessage decodes an inbound text frame. It rejects frames whose
// type is unknown so the session loop can answer with a protocol error
// instead of dropping the connection.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TypeJoin, TypeChat, TypePing:
		return &msg, nil
	default:
		return nil, chat.ErrMessageInvalid
	}
}

// Encode serializes the message for the wire.
func (m *ServerMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// NewJoinedMessage confirms a successful join. It tells the client its
// connection id and lists the usernames already present in the room.
func NewJoinedMessage(roomID, roomName, userID string, members []string) *ServerMessage {
	return &ServerMessage{
		Type:     TypeJoined,
		RoomID:   roomID,
		RoomName: roomName,
		UserID:   userID,
		Members:  members,
	}
}

// NewChatMessage carries a relayed chat message.
func NewChatMessage(roomID, userID, username, content string, ts time.Time) *ServerMessage {
	return &ServerMessage{
		Type:      TypeChatOut,
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Content:   content,
		Timestamp: &ts,
	}
}

// NewUserJoinedMessage announces a new member to a room.
func NewUserJoinedMessage(roomID, userID, username string, ts time.Time) *ServerMessage {
	return &ServerMessage{
		Type:      TypeUserJoined,
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Timestamp: &ts,
	}
}

// NewUserLeftMessage announces a departure to a room.
func NewUserLeftMessage(roomID, userID, username string, ts time.Time) *ServerMessage {
	return &ServerMessage{
		Type:      TypeUserLeft,
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Timestamp: &ts,
	}
}

// NewErrorMessage reports a non-fatal protocol or validation error.
func NewErrorMessage(message string) *ServerMessage {
	return &ServerMessage{
		Type:    TypeError,
		Message: message,
	}
}

// NewPongMessage answers an application-level ping.
func NewPongMessage() *ServerMessage {
	return &ServerMessage{Type: TypePong}
}

// NewRoomCreatedMessage announces a newly created room to every connection.
func NewRoomCreatedMessage(roomID, roomName string, ts time.Time) *ServerMessage {
	return &ServerMessage{
		Type:      TypeRoomCreated,
		RoomID:    roomID,
		RoomName:  roomName,
		Timestamp: &ts,
	}
}
