package websocket

import (
	"fmt"
	"log"
	"sync"

	"github.com/adoptapaw/backend/internal/domain"
)

// PersonalRoomID is the room every authenticated connection joins on accept.
func PersonalRoomID(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// ConversationRoomID is deterministic for a user pair: both participants
// compute the same id regardless of argument order.
func ConversationRoomID(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("conversation:%d:%d", userA, userB)
}

// Hub tracks connections and their room membership. All state is
// process-local: rooms are reconstructed by clients rejoining after a
// reconnect, nothing survives a restart.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// Register adds an authenticated connection and joins its personal room
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.joinLocked(client, PersonalRoomID(client.UserID))
}

// Unregister drops the connection from every room and closes it
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, exists := h.clients[client]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for roomID := range client.rooms {
		h.leaveLocked(client, roomID)
	}
	h.mu.Unlock()

	client.Close()
}

// JoinRoom adds the client to a room, creating it on first join
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(client, roomID)
}

// LeaveRoom removes the client from a room, dropping the room when empty
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, roomID)
}

func (h *Hub) joinLocked(client *Client, roomID string) {
	room, exists := h.rooms[roomID]
	if !exists {
		room = make(map[*Client]bool)
		h.rooms[roomID] = room
	}
	room[client] = true
	client.rooms[roomID] = true
}

func (h *Hub) leaveLocked(client *Client, roomID string) {
	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

// PushToUser delivers an event to every connection in the user's personal
// room. Delivery is at-most-once and best-effort: with no open connection
// the event is dropped, and REST reads are the recovery path.
func (h *Hub) PushToUser(userID int64, event domain.ServerEvent) {
	h.BroadcastToRoom(PersonalRoomID(userID), event, nil)
}

// BroadcastToRoom fans an event out to every room member except the given
// sender. Each delivery runs on its own goroutine so one slow socket does
// not stall the rest; there is no ordering guarantee across members.
func (h *Hub) BroadcastToRoom(roomID string, event domain.ServerEvent, except *Client) {
	data, err := event.Marshal()
	if err != nil {
		log.Printf("[WS] Failed to marshal %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	room := h.rooms[roomID]
	members := make([]*Client, 0, len(room))
	for client := range room {
		if client != except {
			members = append(members, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range members {
		go client.write(data)
	}
}

// BroadcastAll sends an event to every connection except the given one
func (h *Hub) BroadcastAll(event domain.ServerEvent, except *Client) {
	data, err := event.Marshal()
	if err != nil {
		log.Printf("[WS] Failed to marshal %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client != except {
			members = append(members, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range members {
		go client.write(data)
	}
}

// IsUserOnline reports whether the user has at least one open connection
func (h *Hub) IsUserOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[PersonalRoomID(userID)]) > 0
}
