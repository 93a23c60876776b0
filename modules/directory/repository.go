package directory

import (
	"errors"
	"fmt"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"gorm.io/gorm"
)

// Repository provides access to room metadata storage. Rooms are created and
// updated but never deleted; their lifetime is bounded by the database file.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new room repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new room.
func (r *Repository) Create(room *chat.Room) error {
	if err := r.db.Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindByID retrieves a room by its id.
func (r *Repository) FindByID(id string) (*chat.Room, error) {
	var room chat.Room
	if err := r.db.First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// FindAll retrieves all rooms.
func (r *Repository) FindAll() ([]*chat.Room, error) {
	var rooms []*chat.Room
	if err := r.db.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	return rooms, nil
}

// UpdatePassword replaces a room's password.
func (r *Repository) UpdatePassword(id, newPassword string) error {
	result := r.db.Model(&chat.Room{}).Where("id = ?", id).Update("password", newPassword)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update room password: %w", err)
	}
	if result.RowsAffected == 0 {
		return chat.ErrRoomNotFound
	}
	return nil
}
