package domain

import "encoding/json"

// ClientEvent is the envelope for everything a websocket client sends
// after the handshake.
type ClientEvent struct {
	Type        string `json:"type"`
	OtherUserID int64  `json:"other_user_id,omitempty"`
	ReceiverID  int64  `json:"receiver_id,omitempty"`
}

// Client-emitted event types.
const (
	EventUserOnline        = "user:online"
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
	EventTypingStart       = "message:typing"
	EventTypingStop        = "message:stop-typing"
)

// ServerEvent is the envelope for everything the server pushes. Payload is
// event-specific and already JSON-shaped by the caller.
type ServerEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Server-emitted event types.
const (
	EventUserStatus          = "user:status"
	EventMessageNew          = "message:new"
	EventMessageNotification = "message:notification"
	EventMessageTyping       = "message:typing"
	EventNotificationNew     = "notification:new"
	EventNotificationRead    = "notification:read"
	EventNotificationAllRead = "notification:all_read"
	EventNotificationDeleted = "notification:deleted"
	EventError               = "error"
)

type UserStatusPayload struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"` // "online" | "offline"
}

type TypingPayload struct {
	UserID   int64 `json:"user_id"`
	IsTyping bool  `json:"is_typing"`
}

type MessageNotificationPayload struct {
	SenderID       int64  `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	MessagePreview string `json:"message_preview"`
}

// Marshal encodes the event for a socket write. Kept here so hub and tests
// agree on the wire shape.
func (e ServerEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
