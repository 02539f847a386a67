package chat

import (
	"fmt"
	"log"

	"github.com/adoptapaw/backend/internal/domain"
)

type MessageRepository interface {
	CreateMessage(senderID, receiverID int64, content string) (*domain.Message, error)
	GetConversationMessages(userA, userB int64, limit int) ([]domain.Message, error)
	MarkConversationRead(readerID, peerID int64) error
}

type ConversationRepository interface {
	UpsertOnMessage(msg *domain.Message) error
	GetByPair(userA, userB int64) (*domain.Conversation, error)
	ListForUser(userID int64) ([]domain.Conversation, error)
	TotalUnread(userID int64) (int, error)
}

type NotificationRepository interface {
	CreateNotification(userID int64, notifType, title, body string) (*domain.Notification, error)
	ListForUser(userID int64, limit int) ([]domain.Notification, error)
	MarkRead(notificationID, userID int64) error
	MarkAllRead(userID int64) error
	Delete(notificationID, userID int64) error
}

type UserProvider interface {
	GetUserByID(userID int64) (*domain.User, error)
}

// Pusher delivers an event to a user's personal room. The real-time channel
// is purely additive to REST state: delivery is best-effort and the push
// side never fails the operation that triggered it.
type Pusher interface {
	PushToUser(userID int64, event domain.ServerEvent)
}

// Service owns message, conversation and notification state and keeps the
// unread counters in lockstep with it.
type Service struct {
	messages      MessageRepository
	conversations ConversationRepository
	notifications NotificationRepository
	users         UserProvider
	pusher        Pusher
}

func NewService(messages MessageRepository, conversations ConversationRepository, notifications NotificationRepository, users UserProvider, pusher Pusher) *Service {
	return &Service{
		messages:      messages,
		conversations: conversations,
		notifications: notifications,
		users:         users,
		pusher:        pusher,
	}
}

const previewLength = 50

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

// SendMessage persists a message, bumps the receiver's unread counter,
// records a notification and pushes the events to the receiver's personal
// room. The sender's own connections never receive the push; their client
// already has the message locally.
func (s *Service) SendMessage(senderID, receiverID int64, content string) (*domain.Message, error) {
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, domain.ErrSelfMessage
	}

	sender, err := s.users.GetUserByID(senderID)
	if err != nil {
		return nil, fmt.Errorf("sender lookup failed: %v", err)
	}
	receiver, err := s.users.GetUserByID(receiverID)
	if err != nil {
		return nil, fmt.Errorf("receiver lookup failed: %v", err)
	}
	if sender == nil || receiver == nil {
		return nil, domain.ErrUserNotFound
	}

	msg, err := s.messages.CreateMessage(senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.UpsertOnMessage(msg); err != nil {
		return nil, err
	}

	if _, err := s.notifications.CreateNotification(
		receiverID,
		domain.NotificationTypeMessage,
		fmt.Sprintf("New message from %s", sender.Name),
		preview(content),
	); err != nil {
		// The message is already durable; a missing notification row is
		// recoverable and must not fail the send.
		log.Printf("[CHAT] Warning: failed to create notification: %v", err)
	}

	s.pusher.PushToUser(receiverID, domain.ServerEvent{
		Type: domain.EventMessageNew,
		Payload: map[string]interface{}{
			"message": msg,
			"sender":  sender.UserResponse(),
		},
	})
	s.pusher.PushToUser(receiverID, domain.ServerEvent{
		Type: domain.EventMessageNotification,
		Payload: domain.MessageNotificationPayload{
			SenderID:       senderID,
			SenderName:     sender.Name,
			MessagePreview: preview(content),
		},
	})

	return msg, nil
}

// GetConversation returns the thread with a peer plus its conversation row,
// and marks it read in the same call, so the unread counter a client sees
// after fetching is always 0. The conversation is nil when the pair has
// never exchanged a message.
func (s *Service) GetConversation(readerID, peerID int64, limit int) ([]domain.Message, *domain.Conversation, error) {
	messages, err := s.messages.GetConversationMessages(readerID, peerID, limit)
	if err != nil {
		return nil, nil, err
	}
	if err := s.messages.MarkConversationRead(readerID, peerID); err != nil {
		return nil, nil, err
	}
	conversation, err := s.conversations.GetByPair(readerID, peerID)
	if err != nil {
		return nil, nil, err
	}
	return messages, conversation, nil
}

// MarkConversationRead is the explicit mark-as-read entry point
func (s *Service) MarkConversationRead(readerID, peerID int64) error {
	return s.messages.MarkConversationRead(readerID, peerID)
}

// ListConversations returns the caller's conversations, newest first
func (s *Service) ListConversations(userID int64) ([]domain.Conversation, error) {
	return s.conversations.ListForUser(userID)
}

// UnreadCount reports the total across all conversations. It is derived
// from the same counters the per-conversation view uses, so the two can
// never disagree.
func (s *Service) UnreadCount(userID int64) (int, error) {
	return s.conversations.TotalUnread(userID)
}

// NotifyRequestStatus records a request status change (adoption request
// approved/declined and similar) and pushes it to the affected user.
func (s *Service) NotifyRequestStatus(userID int64, title, body string) error {
	n, err := s.notifications.CreateNotification(userID, domain.NotificationTypeRequestStatus, title, body)
	if err != nil {
		return err
	}
	s.pusher.PushToUser(userID, domain.ServerEvent{
		Type:    domain.EventNotificationNew,
		Payload: n,
	})
	return nil
}

// ListNotifications returns recent notifications for the user
func (s *Service) ListNotifications(userID int64, limit int) ([]domain.Notification, error) {
	return s.notifications.ListForUser(userID, limit)
}

// MarkNotificationRead marks one notification read and mirrors the change
// to the user's other connected devices.
func (s *Service) MarkNotificationRead(notificationID, userID int64) error {
	if err := s.notifications.MarkRead(notificationID, userID); err != nil {
		return err
	}
	s.pusher.PushToUser(userID, domain.ServerEvent{
		Type:    domain.EventNotificationRead,
		Payload: map[string]interface{}{"id": notificationID},
	})
	return nil
}

// MarkAllNotificationsRead marks everything read for the user
func (s *Service) MarkAllNotificationsRead(userID int64) error {
	if err := s.notifications.MarkAllRead(userID); err != nil {
		return err
	}
	s.pusher.PushToUser(userID, domain.ServerEvent{Type: domain.EventNotificationAllRead})
	return nil
}

// DeleteNotification removes a notification owned by the user
func (s *Service) DeleteNotification(notificationID, userID int64) error {
	if err := s.notifications.Delete(notificationID, userID); err != nil {
		return err
	}
	s.pusher.PushToUser(userID, domain.ServerEvent{
		Type:    domain.EventNotificationDeleted,
		Payload: map[string]interface{}{"id": notificationID},
	})
	return nil
}
