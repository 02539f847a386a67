package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adoptapaw/backend/internal/domain"
	"github.com/adoptapaw/backend/internal/service/chat"
	"github.com/adoptapaw/backend/internal/transport/http/middleware"
)

const defaultMessageLimit = 100

type ChatHandler struct {
	Chat *chat.Service
}

func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{Chat: chatService}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	var req struct {
		ReceiverID int64  `json:"receiverId"`
		Content    string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)

	msg, err := h.Chat.SendMessage(userID, req.ReceiverID, req.Content)
	if err != nil {
		switch err {
		case domain.ErrEmptyMessage, domain.ErrSelfMessage:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case domain.ErrUserNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetConversation returns the thread with a peer. Fetching marks the thread
// read as a side effect, in the same request.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	peerID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	messages, conversation, err := h.Chat.GetConversation(userID, peerID, defaultMessageLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "conversation": conversation})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	conversations, err := h.Chat.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *ChatHandler) MarkConversationRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	peerID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if err := h.Chat.MarkConversationRead(userID, peerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark conversation read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation marked read"})
}

func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	count, err := h.Chat.UnreadCount(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}
