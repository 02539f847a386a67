package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/adoptapaw/backend/internal/config"
	"github.com/adoptapaw/backend/internal/domain"
	"github.com/adoptapaw/backend/internal/service/session"
)

const (
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	authTimeout  = 5 * time.Second
)

// Handler authenticates websocket handshakes and runs the per-connection
// event loop.
type Handler struct {
	Hub         *Hub
	AuthService *session.AuthService
	Upgrader    websocket.Upgrader
}

func NewHandler(hub *Hub, authService *session.AuthService) *Handler {
	return &Handler{
		Hub:         hub,
		AuthService: authService,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range config.AppConfig.AllowedOrigins {
					if allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWebSocket verifies the handshake token and upgrades the connection.
// The token travels as a query parameter, not a header, because browser
// websocket clients cannot set an Authorization header on the upgrade
// request. A missing, blacklisted or invalid token refuses the connection
// outright with a plain HTTP 401; no socket is ever accepted first.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
	defer cancel()

	claims, err := h.AuthService.VerifyAccess(ctx, tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := NewClient(conn, claims.UserID, claims.Role)
	h.Hub.Register(client)
	log.Printf("[WS] Connection opened for user %d", client.UserID)

	go h.keepAlive(client)
	h.readLoop(client)
}

func (h *Handler) keepAlive(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := client.writeControl(websocket.PingMessage); err != nil {
			return
		}
	}
}

// readLoop processes events in arrival order for one connection.
// Independent connections run fully in parallel.
func (h *Handler) readLoop(client *Client) {
	defer func() {
		h.Hub.Unregister(client)
		h.Hub.BroadcastAll(domain.ServerEvent{
			Type:    domain.EventUserStatus,
			Payload: domain.UserStatusPayload{UserID: client.UserID, Status: "offline"},
		}, client)
		log.Printf("[WS] Connection closed for user %d", client.UserID)
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] User %d disconnected unexpectedly: %v", client.UserID, err)
			}
			return
		}

		var event domain.ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[WS] Invalid event from user %d: %v", client.UserID, err)
			h.sendError(client, "malformed event")
			continue
		}

		h.processEvent(client, event)
	}
}

// sendError tells the offending client what went wrong. Only that
// connection hears about it; the hub never fans out errors.
func (h *Handler) sendError(client *Client, message string) {
	data, err := domain.ServerEvent{Type: domain.EventError, Message: message}.Marshal()
	if err != nil {
		return
	}
	client.write(data)
}

func (h *Handler) processEvent(client *Client, event domain.ClientEvent) {
	switch event.Type {
	case domain.EventUserOnline:
		h.Hub.BroadcastAll(domain.ServerEvent{
			Type:    domain.EventUserStatus,
			Payload: domain.UserStatusPayload{UserID: client.UserID, Status: "online"},
		}, client)

	case domain.EventConversationJoin:
		if event.OtherUserID != 0 {
			h.Hub.JoinRoom(client, ConversationRoomID(client.UserID, event.OtherUserID))
		}

	case domain.EventConversationLeave:
		if event.OtherUserID != 0 {
			h.Hub.LeaveRoom(client, ConversationRoomID(client.UserID, event.OtherUserID))
		}

	case domain.EventTypingStart, domain.EventTypingStop:
		if event.ReceiverID == 0 {
			return
		}
		// Relayed to the conversation room only, never echoed to the typist.
		roomID := ConversationRoomID(client.UserID, event.ReceiverID)
		h.Hub.BroadcastToRoom(roomID, domain.ServerEvent{
			Type: domain.EventMessageTyping,
			Payload: domain.TypingPayload{
				UserID:   client.UserID,
				IsTyping: event.Type == domain.EventTypingStart,
			},
		}, client)

	default:
		log.Printf("[WS] Unknown event type %q from user %d", event.Type, client.UserID)
		h.sendError(client, "unknown event type")
	}
}
