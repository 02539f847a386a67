package postgres

import (
	"database/sql"
	"fmt"

	"github.com/adoptapaw/backend/internal/domain"
)

type ConversationRepo struct {
	DB *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{DB: db}
}

// orderPair normalizes a user pair so user1 is always the smaller id.
func orderPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// UpsertOnMessage updates (or creates) the conversation row for a new
// message. The receiver's unread counter is incremented inside the
// statement itself, so two concurrent messages both land as +1 each rather
// than clobbering each other through a read-modify-write.
func (r *ConversationRepo) UpsertOnMessage(msg *domain.Message) error {
	user1, user2 := orderPair(msg.SenderID, msg.ReceiverID)

	query := `
	INSERT INTO conversations (user1_id, user2_id, last_message_id, last_message_content, last_message_at, user1_unread_count, user2_unread_count)
	VALUES ($1, $2, $3, $4, $5,
		CASE WHEN $6::bigint = $1 THEN 1 ELSE 0 END,
		CASE WHEN $6::bigint = $2 THEN 1 ELSE 0 END)
	ON CONFLICT (user1_id, user2_id) DO UPDATE SET
		last_message_id      = EXCLUDED.last_message_id,
		last_message_content = EXCLUDED.last_message_content,
		last_message_at      = EXCLUDED.last_message_at,
		user1_unread_count   = conversations.user1_unread_count + (CASE WHEN $6::bigint = $1 THEN 1 ELSE 0 END),
		user2_unread_count   = conversations.user2_unread_count + (CASE WHEN $6::bigint = $2 THEN 1 ELSE 0 END);
	`
	_, err := r.DB.Exec(query, user1, user2, msg.ID, msg.Content, msg.CreatedAt, msg.ReceiverID)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %v", err)
	}
	return nil
}

// GetByPair returns the conversation row for two users, nil if they have
// never exchanged a message.
func (r *ConversationRepo) GetByPair(userA, userB int64) (*domain.Conversation, error) {
	user1, user2 := orderPair(userA, userB)

	query := `
	SELECT id, user1_id, user2_id, last_message_id, last_message_content, last_message_at, user1_unread_count, user2_unread_count
	FROM conversations
	WHERE user1_id = $1 AND user2_id = $2;
	`
	var c domain.Conversation
	err := r.DB.QueryRow(query, user1, user2).Scan(
		&c.ID,
		&c.User1ID,
		&c.User2ID,
		&c.LastMessageID,
		&c.LastMessageContent,
		&c.LastMessageAt,
		&c.User1UnreadCount,
		&c.User2UnreadCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %v", err)
	}
	return &c, nil
}

// ListForUser returns the user's conversations, most recent message first
func (r *ConversationRepo) ListForUser(userID int64) ([]domain.Conversation, error) {
	query := `
	SELECT id, user1_id, user2_id, last_message_id, last_message_content, last_message_at, user1_unread_count, user2_unread_count
	FROM conversations
	WHERE user1_id = $1 OR user2_id = $1
	ORDER BY last_message_at DESC;
	`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %v", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(
			&c.ID,
			&c.User1ID,
			&c.User2ID,
			&c.LastMessageID,
			&c.LastMessageContent,
			&c.LastMessageAt,
			&c.User1UnreadCount,
			&c.User2UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %v", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %v", err)
	}

	return conversations, nil
}

// TotalUnread sums the caller's unread counters across all conversations.
// The REST-reported total must always equal the per-conversation sum.
func (r *ConversationRepo) TotalUnread(userID int64) (int, error) {
	query := `
	SELECT COALESCE(SUM(CASE WHEN user1_id = $1 THEN user1_unread_count ELSE user2_unread_count END), 0)
	FROM conversations
	WHERE user1_id = $1 OR user2_id = $1;
	`
	var total int
	if err := r.DB.QueryRow(query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum unread counts: %v", err)
	}
	return total, nil
}
