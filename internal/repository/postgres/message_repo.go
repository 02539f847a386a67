package postgres

import (
	"database/sql"
	"fmt"

	"github.com/adoptapaw/backend/internal/domain"
)

type MessageRepo struct {
	DB *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{DB: db}
}

// CreateMessage persists a message and returns it with id and timestamp set
func (r *MessageRepo) CreateMessage(senderID, receiverID int64, content string) (*domain.Message, error) {
	query := `
	INSERT INTO messages (sender_id, receiver_id, content)
	VALUES ($1, $2, $3)
	RETURNING id, created_at;
	`
	msg := &domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	err := r.DB.QueryRow(query, senderID, receiverID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %v", err)
	}
	return msg, nil
}

// GetConversationMessages returns the message history between two users,
// oldest first.
func (r *MessageRepo) GetConversationMessages(userA, userB int64, limit int) ([]domain.Message, error) {
	query := `
	SELECT id, sender_id, receiver_id, content, is_read, created_at
	FROM messages
	WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
	ORDER BY created_at ASC
	LIMIT $3;
	`
	rows, err := r.DB.Query(query, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %v", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %v", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %v", err)
	}

	return messages, nil
}

// MarkConversationRead marks every unread message from peer to reader as
// read and resets the reader's unread counter on the conversation row, in a
// single transaction so no partially-reset state is ever visible.
func (r *MessageRepo) MarkConversationRead(readerID, peerID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	UPDATE messages
	SET is_read = TRUE
	WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE;
	`, readerID, peerID)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %v", err)
	}

	_, err = tx.Exec(`
	UPDATE conversations
	SET user1_unread_count = CASE WHEN user1_id = $1 THEN 0 ELSE user1_unread_count END,
	    user2_unread_count = CASE WHEN user2_id = $1 THEN 0 ELSE user2_unread_count END
	WHERE user1_id = LEAST($1::bigint, $2::bigint) AND user2_id = GREATEST($1::bigint, $2::bigint);
	`, readerID, peerID)
	if err != nil {
		return fmt.Errorf("failed to reset unread counter: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mark-read transaction: %v", err)
	}
	return nil
}
