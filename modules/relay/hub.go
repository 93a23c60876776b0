package relay

import (
	"sync"

	chat "github.com/example/chat-relay-demo/domain/chat"
)

// roomShard holds one room's membership under its own lock, so traffic in one
// room never contends with another.
type roomShard struct {
	mu      sync.RWMutex
	clients map[string]*Client
	// gone is set when the shard has been pruned from the hub; a Join that
	// raced the prune must retry against a fresh shard.
	gone bool
}

// Hub tracks connections and room membership. The hub-level lock only guards
// the two maps; per-room operations take the shard lock. Lock order is always
// hub then shard.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*roomShard
	conns map[string]*Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*roomShard),
		conns: make(map[string]*Client),
	}
}

// Register adds a connection to the hub before it has joined any room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.ID)
}

// Join adds the client to a room's shard, creating the shard on first use.
// Joining does not remove the client from rooms it previously joined.
func (h *Hub) Join(roomID string, c *Client) {
	for {
		h.mu.Lock()
		sh, ok := h.rooms[roomID]
		if !ok {
			sh = &roomShard{clients: make(map[string]*Client)}
			h.rooms[roomID] = sh
		}
		h.mu.Unlock()

		sh.mu.Lock()
		if sh.gone {
			// Lost a race with prune; the hub no longer holds this shard.
			sh.mu.Unlock()
			continue
		}
		sh.clients[c.ID] = c
		sh.mu.Unlock()
		return
	}
}

// Leave removes the client from a room and prunes the shard if it became
// empty. Leaving a room the client is not in is a no-op.
func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.RLock()
	sh, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	sh.mu.Lock()
	delete(sh.clients, c.ID)
	empty := len(sh.clients) == 0
	sh.mu.Unlock()

	if empty {
		h.prune(roomID, sh)
	}
}

// prune removes an empty shard, re-checking emptiness under both locks so a
// concurrent Join cannot be stranded.
func (h *Hub) prune(roomID string, sh *roomShard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if len(sh.clients) > 0 {
		return
	}
	if h.rooms[roomID] == sh {
		sh.gone = true
		delete(h.rooms, roomID)
	}
}

// Broadcast sends a message to every member of a room except excludeID.
// Delivery is best-effort: clients with full buffers silently miss the
// message. The recipient set is snapshotted so sends happen outside the lock.
func (h *Hub) Broadcast(roomID string, message []byte, excludeID string) {
	h.mu.RLock()
	sh, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	sh.mu.RLock()
	recipients := make([]*Client, 0, len(sh.clients))
	for id, c := range sh.clients {
		if id == excludeID {
			continue
		}
		recipients = append(recipients, c)
	}
	sh.mu.RUnlock()

	for _, c := range recipients {
		c.Send(message)
	}
}

// BroadcastAll sends a message to every registered connection, joined to a
// room or not.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		recipients = append(recipients, c)
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		c.Send(message)
	}
}

// MemberCount returns the number of clients currently in a room.
func (h *Hub) MemberCount(roomID string) int {
	h.mu.RLock()
	sh, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.clients)
}

// Members returns the clients currently in a room.
func (h *Hub) Members(roomID string) []chat.Member {
	h.mu.RLock()
	sh, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	sh.mu.RLock()
	defer sh.mu.RUnlock()
	members := make([]chat.Member, 0, len(sh.clients))
	for _, c := range sh.clients {
		members = append(members, chat.Member{
			ID:       c.ID,
			Username: c.Username(),
			RoomID:   roomID,
		})
	}
	return members
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
