package postgres

import (
	"database/sql"
	"fmt"

	"github.com/adoptapaw/backend/internal/domain"
)

type NotificationRepo struct {
	DB *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{DB: db}
}

// CreateNotification persists a notification row for a user
func (r *NotificationRepo) CreateNotification(userID int64, notifType, title, body string) (*domain.Notification, error) {
	query := `
	INSERT INTO notifications (user_id, type, title, body)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at;
	`
	n := &domain.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}
	err := r.DB.QueryRow(query, userID, notifType, title, body).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %v", err)
	}
	return n, nil
}

// ListForUser returns recent notifications for a user, newest first
func (r *NotificationRepo) ListForUser(userID int64, limit int) ([]domain.Notification, error) {
	query := `
	SELECT id, user_id, type, title, body, is_read, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2;
	`
	rows, err := r.DB.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %v", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %v", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notification rows: %v", err)
	}

	return notifications, nil
}

// MarkRead marks one notification as read, scoped to its owner
func (r *NotificationRepo) MarkRead(notificationID, userID int64) error {
	query := `
	UPDATE notifications
	SET is_read = TRUE
	WHERE id = $1 AND user_id = $2;
	`
	_, err := r.DB.Exec(query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %v", err)
	}
	return nil
}

// MarkAllRead marks every notification for the user as read
func (r *NotificationRepo) MarkAllRead(userID int64) error {
	query := `
	UPDATE notifications
	SET is_read = TRUE
	WHERE user_id = $1 AND is_read = FALSE;
	`
	_, err := r.DB.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %v", err)
	}
	return nil
}

// Delete removes a notification, scoped to its owner
func (r *NotificationRepo) Delete(notificationID, userID int64) error {
	query := `
	DELETE FROM notifications
	WHERE id = $1 AND user_id = $2;
	`
	_, err := r.DB.Exec(query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %v", err)
	}
	return nil
}
