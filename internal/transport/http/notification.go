package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adoptapaw/backend/internal/service/chat"
	"github.com/adoptapaw/backend/internal/transport/http/middleware"
)

const defaultNotificationLimit = 50

type NotificationHandler struct {
	Chat *chat.Service
}

func NewNotificationHandler(chatService *chat.Service) *NotificationHandler {
	return &NotificationHandler{Chat: chatService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	notifications, err := h.Chat.ListNotifications(userID, defaultNotificationLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	if err := h.Chat.MarkNotificationRead(notificationID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	if err := h.Chat.MarkAllNotificationsRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read"})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	if err := h.Chat.DeleteNotification(notificationID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
