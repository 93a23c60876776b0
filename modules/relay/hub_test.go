package relay

import (
	"encoding/json"
	"sync"
	"testing"
)

func newTestClient(username string) *Client {
	c := NewClient(nil)
	c.SetIdentity(username, "")
	return c
}

func drain(t *testing.T, c *Client) []ServerMessage {
	t.Helper()
	var msgs []ServerMessage
	for {
		select {
		case data := <-c.send:
			var msg ServerMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("failed to decode queued message: %v", err)
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestHub_JoinAndMemberCount(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")
	b := newTestClient("bob")

	h.Join("room1", a)
	h.Join("room1", b)

	if got := h.MemberCount("room1"); got != 2 {
		t.Errorf("expected 2 members, got %d", got)
	}
	if got := h.MemberCount("nonexistent"); got != 0 {
		t.Errorf("expected 0 members for unknown room, got %d", got)
	}
}

func TestHub_JoinSecondRoomKeepsFirst(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")

	h.Join("room1", a)
	h.Join("room2", a)

	if got := h.MemberCount("room1"); got != 1 {
		t.Errorf("expected client to remain in room1, member count %d", got)
	}
	if got := h.MemberCount("room2"); got != 1 {
		t.Errorf("expected client in room2, member count %d", got)
	}
}

func TestHub_LeaveIsIdempotent(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")
	b := newTestClient("bob")

	h.Join("room1", a)
	h.Join("room1", b)

	h.Leave("room1", a)
	h.Leave("room1", a)
	h.Leave("nonexistent", a)

	if got := h.MemberCount("room1"); got != 1 {
		t.Errorf("expected 1 member after repeated leave, got %d", got)
	}
}

func TestHub_PruneEmptyRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")

	h.Join("room1", a)
	if got := h.RoomCount(); got != 1 {
		t.Fatalf("expected 1 room, got %d", got)
	}

	h.Leave("room1", a)
	if got := h.RoomCount(); got != 0 {
		t.Errorf("expected empty room to be pruned, room count %d", got)
	}
}

func TestHub_BroadcastExcludes(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")
	b := newTestClient("bob")
	c := newTestClient("carol")

	h.Join("room1", a)
	h.Join("room1", b)
	h.Join("room1", c)

	h.Broadcast("room1", []byte(`{"type":"chat"}`), a.ID)

	if msgs := drain(t, a); len(msgs) != 0 {
		t.Errorf("excluded client received %d messages", len(msgs))
	}
	if msgs := drain(t, b); len(msgs) != 1 {
		t.Errorf("expected 1 message for bob, got %d", len(msgs))
	}
	if msgs := drain(t, c); len(msgs) != 1 {
		t.Errorf("expected 1 message for carol, got %d", len(msgs))
	}
}

func TestHub_BroadcastToUnknownRoom(t *testing.T) {
	h := NewHub()
	// Must not panic.
	h.Broadcast("nonexistent", []byte(`{}`), "")
}

func TestHub_Members(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")
	b := newTestClient("bob")

	h.Join("room1", a)
	h.Join("room1", b)

	members := h.Members("room1")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	seen := map[string]string{}
	for _, m := range members {
		if m.ID == "" {
			t.Errorf("member %q has no connection id", m.Username)
		}
		if m.RoomID != "room1" {
			t.Errorf("member %q has room %q", m.Username, m.RoomID)
		}
		seen[m.Username] = m.ID
	}
	if seen["alice"] != a.ID || seen["bob"] != b.ID {
		t.Errorf("unexpected members: %v", members)
	}

	if got := h.Members("nonexistent"); got != nil {
		t.Errorf("expected nil for unknown room, got %v", got)
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")
	b := newTestClient("bob")

	h.Register(a)
	h.Register(b)
	h.Join("room1", a) // only alice is in a room

	h.BroadcastAll([]byte(`{"type":"room_created"}`))

	if msgs := drain(t, a); len(msgs) != 1 {
		t.Errorf("expected 1 message for alice, got %d", len(msgs))
	}
	if msgs := drain(t, b); len(msgs) != 1 {
		t.Errorf("expected 1 message for roomless bob, got %d", len(msgs))
	}
}

func TestHub_ConcurrentJoinLeave(t *testing.T) {
	h := NewHub()
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestClient("user")
			for j := 0; j < 100; j++ {
				h.Join("busy", c)
				h.Leave("busy", c)
			}
		}()
	}
	wg.Wait()

	if got := h.MemberCount("busy"); got != 0 {
		t.Errorf("expected empty room after churn, got %d members", got)
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()
	a := newTestClient("alice")

	h.Register(a)
	if got := h.ConnectionCount(); got != 1 {
		t.Errorf("expected 1 connection, got %d", got)
	}

	h.Unregister(a)
	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("expected 0 connections, got %d", got)
	}
}
