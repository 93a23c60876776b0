package directory

import (
	"errors"
	"testing"
	"time"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&chat.Room{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestRoom(name, password string) *chat.Room {
	return &chat.Room{
		ID:        uuid.New().String(),
		Name:      name,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRepository_CreateAndFindByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := newTestRoom("general", "")
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(room.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Name != "general" {
		t.Errorf("expected name 'general', got %q", found.Name)
	}
	if found.HasPassword() {
		t.Error("expected open room")
	}
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.FindByID(uuid.New().String())
	if !errors.Is(err, chat.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRepository_FindAll(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := repo.Create(newTestRoom(name, "")); err != nil {
			t.Fatalf("Create(%s) failed: %v", name, err)
		}
	}

	rooms, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(rooms) != 3 {
		t.Errorf("expected 3 rooms, got %d", len(rooms))
	}
}

func TestRepository_UpdatePassword(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := newTestRoom("secret", "old")
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdatePassword(room.ID, "new"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	found, err := repo.FindByID(room.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if !found.VerifyPassword("new") {
		t.Error("expected new password to verify")
	}
	if found.VerifyPassword("old") {
		t.Error("expected old password to be rejected")
	}
}

func TestRepository_UpdatePassword_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.UpdatePassword(uuid.New().String(), "whatever")
	if !errors.Is(err, chat.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}
