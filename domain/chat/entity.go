package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation constants
const (
	MaxUsernameLength = 50
	MaxRoomNameLength = 100
	MaxMessageLength  = 5000
)

// Validation and lookup errors shared across modules.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPasswordRequired = errors.New("room requires a password")
	ErrWrongPassword    = errors.New("wrong password")
	ErrRoomNameEmpty    = errors.New("room name cannot be empty")
	ErrRoomNameTooLong  = errors.New("room name exceeds maximum length")
	ErrPasswordEmpty    = errors.New("password cannot be empty")
	ErrUsernameEmpty    = errors.New("username cannot be empty")
	ErrUsernameTooLong  = errors.New("username exceeds maximum length")
	ErrMessageEmpty     = errors.New("message content cannot be empty")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
	ErrMessageInvalid   = errors.New("message contains invalid characters")
)

// Room is a named, optionally password-protected channel. The password is
// stored as entered (an empty string means an open room) and never leaves the
// process through JSON.
type Room struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Password  string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Room entity.
func (Room) TableName() string {
	return "rooms"
}

// HasPassword reports whether joining the room requires a password.
func (r *Room) HasPassword() bool {
	return r.Password != ""
}

// VerifyPassword checks a supplied password against the room's. Open rooms
// accept anything; comparison is exact and case-sensitive.
func (r *Room) VerifyPassword(password string) bool {
	if r.Password == "" {
		return true
	}
	return r.Password == password
}

// RoomInfo is the listing view of a room. It carries the live member count
// instead of the password.
type RoomInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasPassword bool      `json:"has_password"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member is a connection currently joined to a room.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	RoomID   string `json:"room_id,omitempty"`
}

// ValidateRoomName validates a room name. Leading and trailing whitespace
// does not count toward the name.
func ValidateRoomName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrRoomNameEmpty
	}
	if len(trimmed) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	return nil
}

// ValidatePassword validates a new room password for an update.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordEmpty
	}
	return nil
}

// ValidateUsername validates a display name supplied at join time.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	return nil
}

// ValidateMessage validates chat message content.
func ValidateMessage(content string) error {
	if content == "" {
		return ErrMessageEmpty
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(content) {
		return ErrMessageInvalid
	}
	return nil
}
