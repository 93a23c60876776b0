package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/events"
)

// fakeDirectory serves rooms from a map, standing in for the directory's
// request-reply services.
type fakeDirectory struct {
	rooms map[string]*chat.Room
}

func (f *fakeDirectory) CreateRoom(_ context.Context, name, password string) (*chat.Room, error) {
	room := &chat.Room{ID: name, Name: name, Password: password, CreatedAt: time.Now().UTC()}
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeDirectory) GetRoom(_ context.Context, roomID string) (*chat.Room, error) {
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return room, nil
}

func (f *fakeDirectory) UpdatePassword(_ context.Context, roomID, newPassword string) error {
	room, ok := f.rooms[roomID]
	if !ok {
		return chat.ErrRoomNotFound
	}
	room.Password = newPassword
	return nil
}

func (f *fakeDirectory) ListRooms(_ context.Context) ([]chat.RoomInfo, error) {
	return nil, nil
}

func strptr(s string) *string { return &s }

func newTestRelay(t *testing.T) *RelayModule {
	t.Helper()
	return &RelayModule{
		hub: NewHub(),
		directory: &fakeDirectory{rooms: map[string]*chat.Room{
			"open":   {ID: "open", Name: "Open Room"},
			"locked": {ID: "locked", Name: "Locked Room", Password: "secret"},
		}},
		heartbeatInterval: DefaultHeartbeatInterval,
		clientTimeout:     DefaultClientTimeout,
	}
}

func TestJoin_ValidationOrder(t *testing.T) {
	m := newTestRelay(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		roomID   string
		username string
		password *string
		wantErr  error
	}{
		{"unknown room wins over missing password", "nope", "alice", nil, chat.ErrRoomNotFound},
		{"missing password", "locked", "alice", nil, chat.ErrPasswordRequired},
		{"empty password counts as wrong", "locked", "alice", strptr(""), chat.ErrWrongPassword},
		{"wrong password", "locked", "alice", strptr("nope"), chat.ErrWrongPassword},
		{"empty username", "open", "", nil, chat.ErrUsernameEmpty},
		{"username too long", "open", strings.Repeat("x", chat.MaxUsernameLength+1), nil, chat.ErrUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(nil)
			err := m.Join(ctx, c, tt.roomID, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if c.InRoom() {
				t.Error("client must not be in a room after a rejected join")
			}
		})
	}
}

func TestJoin_OpenRoom(t *testing.T) {
	m := newTestRelay(t)
	c := NewClient(nil)

	if err := m.Join(context.Background(), c, "open", "alice", nil); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if c.RoomID() != "open" {
		t.Errorf("expected room 'open', got %q", c.RoomID())
	}

	msgs := drain(t, c)
	if len(msgs) != 1 || msgs[0].Type != TypeJoined {
		t.Fatalf("expected a single joined message, got %+v", msgs)
	}
	if msgs[0].RoomName != "Open Room" {
		t.Errorf("expected room name in confirmation, got %q", msgs[0].RoomName)
	}
}

func TestJoin_LockedRoomWithCorrectPassword(t *testing.T) {
	m := newTestRelay(t)
	c := NewClient(nil)

	if err := m.Join(context.Background(), c, "locked", "alice", strptr("secret")); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if m.hub.MemberCount("locked") != 1 {
		t.Error("expected client in locked room")
	}
}

func TestJoin_NotifiesRoomExcludingJoiner(t *testing.T) {
	m := newTestRelay(t)
	ctx := context.Background()

	a := NewClient(nil)
	if err := m.Join(ctx, a, "open", "alice", nil); err != nil {
		t.Fatalf("Join(alice) failed: %v", err)
	}
	drain(t, a)

	b := NewClient(nil)
	if err := m.Join(ctx, b, "open", "bob", nil); err != nil {
		t.Fatalf("Join(bob) failed: %v", err)
	}

	aliceMsgs := drain(t, a)
	if len(aliceMsgs) != 1 || aliceMsgs[0].Type != TypeUserJoined || aliceMsgs[0].Username != "bob" {
		t.Errorf("expected alice to see bob join, got %+v", aliceMsgs)
	}

	bobMsgs := drain(t, b)
	if len(bobMsgs) != 1 || bobMsgs[0].Type != TypeJoined {
		t.Fatalf("expected only the joined confirmation for bob, got %+v", bobMsgs)
	}
	if len(bobMsgs[0].Members) != 1 || bobMsgs[0].Members[0] != "alice" {
		t.Errorf("expected member list [alice], got %v", bobMsgs[0].Members)
	}
}

func TestChat_ReachesWholeRoom(t *testing.T) {
	m := newTestRelay(t)
	ctx := context.Background()

	a := NewClient(nil)
	b := NewClient(nil)
	m.Join(ctx, a, "open", "alice", nil)
	m.Join(ctx, b, "open", "bob", nil)
	drain(t, a)
	drain(t, b)

	if err := m.Chat(ctx, a, "hello"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	for name, c := range map[string]*Client{"alice": a, "bob": b} {
		msgs := drain(t, c)
		if len(msgs) != 1 || msgs[0].Type != TypeChatOut || msgs[0].Content != "hello" {
			t.Errorf("%s: expected the chat message, got %+v", name, msgs)
		}
	}
}

func TestChat_WithoutRoomIsDropped(t *testing.T) {
	m := newTestRelay(t)
	c := NewClient(nil)

	if err := m.Chat(context.Background(), c, "hello"); err != nil {
		t.Errorf("expected silent drop, got %v", err)
	}
}

func TestChat_Validation(t *testing.T) {
	m := newTestRelay(t)
	c := NewClient(nil)
	m.Join(context.Background(), c, "open", "alice", nil)
	drain(t, c)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty", "", chat.ErrMessageEmpty},
		{"too long", strings.Repeat("x", chat.MaxMessageLength+1), chat.ErrMessageTooLong},
		{"invalid utf8", string([]byte{0xff, 0xfe}), chat.ErrMessageInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Chat(context.Background(), c, tt.content); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRoomEvent_UnknownKindIgnored(t *testing.T) {
	m := newTestRelay(t)
	c := NewClient(nil)
	m.Join(context.Background(), c, "open", "alice", nil)
	drain(t, c)

	err := m.handleRoomEvent(context.Background(), events.RoomEvent{
		Kind:   "bogus",
		RoomID: "open",
	}, nil)
	if err != nil {
		t.Fatalf("expected unknown kind to be dropped, got %v", err)
	}
	if msgs := drain(t, c); len(msgs) != 0 {
		t.Errorf("unknown kind must not be delivered, got %+v", msgs)
	}
}

func TestDisconnect_NotifiesRoom(t *testing.T) {
	m := newTestRelay(t)
	ctx := context.Background()

	a := NewClient(nil)
	b := NewClient(nil)
	m.Join(ctx, a, "open", "alice", nil)
	m.Join(ctx, b, "open", "bob", nil)
	drain(t, a)
	drain(t, b)

	m.Disconnect(b)

	msgs := drain(t, a)
	if len(msgs) != 1 || msgs[0].Type != TypeUserLeft || msgs[0].Username != "bob" {
		t.Errorf("expected alice to see bob leave, got %+v", msgs)
	}
	if m.hub.MemberCount("open") != 1 {
		t.Errorf("expected 1 member after disconnect, got %d", m.hub.MemberCount("open"))
	}
}

func TestDisconnect_WithoutJoinIsSafe(t *testing.T) {
	m := newTestRelay(t)
	c := NewClient(nil)
	m.hub.Register(c)

	m.Disconnect(c)

	if m.hub.ConnectionCount() != 0 {
		t.Error("expected connection to be unregistered")
	}
}

func TestDurationFromEnv(t *testing.T) {
	t.Setenv("RELAY_TEST_DURATION", "30s")
	if got := durationFromEnv("RELAY_TEST_DURATION", time.Second); got != 30*time.Second {
		t.Errorf("expected 30s, got %s", got)
	}

	t.Setenv("RELAY_TEST_DURATION", "garbage")
	if got := durationFromEnv("RELAY_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("expected fallback, got %s", got)
	}

	if got := durationFromEnv("RELAY_TEST_UNSET", 2*time.Second); got != 2*time.Second {
		t.Errorf("expected fallback for unset, got %s", got)
	}
}
