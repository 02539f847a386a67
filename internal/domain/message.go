package domain

import "time"

type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation is one row per unordered user pair. User1ID is always the
// smaller id so that (A,B) and (B,A) hit the same row.
type Conversation struct {
	ID                 int64     `json:"id"`
	User1ID            int64     `json:"user1_id"`
	User2ID            int64     `json:"user2_id"`
	LastMessageID      int64     `json:"last_message_id"`
	LastMessageContent string    `json:"last_message_content"`
	LastMessageAt      time.Time `json:"last_message_at"`
	User1UnreadCount   int       `json:"user1_unread_count"`
	User2UnreadCount   int       `json:"user2_unread_count"`
}

// UnreadCountFor returns the unread counter belonging to the given participant.
func (c *Conversation) UnreadCountFor(userID int64) int {
	if userID == c.User1ID {
		return c.User1UnreadCount
	}
	return c.User2UnreadCount
}

// PeerOf returns the other participant of the conversation.
func (c *Conversation) PeerOf(userID int64) int64 {
	if userID == c.User1ID {
		return c.User2ID
	}
	return c.User1ID
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	NotificationTypeMessage       = "message"
	NotificationTypeRequestStatus = "request_status"
	NotificationTypeSystem        = "system"
)
