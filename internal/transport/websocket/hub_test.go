package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationRoomIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationRoomID(3, 11), ConversationRoomID(11, 3))
	assert.Equal(t, "conversation:3:11", ConversationRoomID(11, 3))
}

func TestConversationRoomIDsAreDistinctPerPair(t *testing.T) {
	assert.NotEqual(t, ConversationRoomID(1, 2), ConversationRoomID(1, 3))
	assert.NotEqual(t, ConversationRoomID(1, 2), ConversationRoomID(2, 3))
}

func TestPersonalRoomID(t *testing.T) {
	assert.Equal(t, "user:42", PersonalRoomID(42))
}

func newHubClient(userID int64) *Client {
	// conn stays nil: membership bookkeeping never touches the socket.
	return &Client{UserID: userID, rooms: make(map[string]bool)}
}

func (h *Hub) roomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func TestRegisterJoinsPersonalRoom(t *testing.T) {
	hub := NewHub()
	client := newHubClient(7)

	assert.False(t, hub.IsUserOnline(7))
	hub.Register(client)
	assert.True(t, hub.IsUserOnline(7))
	assert.Equal(t, 1, hub.roomSize(PersonalRoomID(7)))
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	laptop := newHubClient(7)
	phone := newHubClient(7)

	hub.Register(laptop)
	hub.Register(phone)
	assert.Equal(t, 2, hub.roomSize(PersonalRoomID(7)))

	hub.unregisterMembership(laptop)
	assert.True(t, hub.IsUserOnline(7))

	hub.unregisterMembership(phone)
	assert.False(t, hub.IsUserOnline(7))
}

func TestJoinAndLeaveRoom(t *testing.T) {
	hub := NewHub()
	client := newHubClient(3)
	peer := newHubClient(11)
	hub.Register(client)
	hub.Register(peer)

	roomID := ConversationRoomID(3, 11)
	hub.JoinRoom(client, roomID)
	hub.JoinRoom(peer, roomID)
	assert.Equal(t, 2, hub.roomSize(roomID))

	hub.LeaveRoom(client, roomID)
	assert.Equal(t, 1, hub.roomSize(roomID))

	// The room itself is dropped once the last member leaves.
	hub.LeaveRoom(peer, roomID)
	hub.mu.RLock()
	_, exists := hub.rooms[roomID]
	hub.mu.RUnlock()
	assert.False(t, exists)
}

func TestUnregisterLeavesEveryRoom(t *testing.T) {
	hub := NewHub()
	client := newHubClient(3)
	peer := newHubClient(11)
	hub.Register(client)
	hub.Register(peer)

	roomID := ConversationRoomID(3, 11)
	hub.JoinRoom(client, roomID)
	hub.JoinRoom(peer, roomID)

	hub.unregisterMembership(client)
	assert.False(t, hub.IsUserOnline(3))
	assert.Equal(t, 1, hub.roomSize(roomID))
	assert.True(t, hub.IsUserOnline(11))
}

// unregisterMembership mirrors Unregister without closing the socket, for
// clients built with no underlying connection.
func (h *Hub) unregisterMembership(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[client]; !exists {
		return
	}
	delete(h.clients, client)
	for roomID := range client.rooms {
		h.leaveLocked(client, roomID)
	}
}
