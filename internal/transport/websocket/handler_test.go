package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoptapaw/backend/internal/config"
	"github.com/adoptapaw/backend/internal/domain"
	redisrepo "github.com/adoptapaw/backend/internal/repository/redis"
	"github.com/adoptapaw/backend/internal/service/session"
	"github.com/adoptapaw/backend/pkg/auth"
)

type wsUsers map[int64]*domain.User

func (u wsUsers) GetUserByEmail(email string) (*domain.User, error) {
	for _, user := range u {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (u wsUsers) GetUserByID(userID int64) (*domain.User, error) { return u[userID], nil }

type noopLedger struct{}

func (noopLedger) CreateSession(int64, string, string, string, string, time.Time) error { return nil }
func (noopLedger) RotateSessionToken(int64, string, string, time.Time) error            { return nil }
func (noopLedger) DeactivateSessionByRefreshTokenKey(int64, string) error               { return nil }
func (noopLedger) DeactivateAllUserSessions(int64) error                                { return nil }
func (noopLedger) UpdateSessionActivity(string) error                                   { return nil }
func (noopLedger) GetUserSessionHistory(int64, int) ([]domain.UserSession, error)       { return nil, nil }

func (noopLedger) GetSessionByRefreshTokenKey(int64, string) (*domain.UserSession, error) {
	return nil, nil
}

type wsFixture struct {
	hub       *Hub
	blacklist *redisrepo.Blacklist
	server    *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		TokenIssuer:        "adoptapaw-api",
		TokenAudience:      "adoptapaw-client",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		MaxSessionsPerUser: 5,
	}

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	users := wsUsers{
		1: {ID: 1, Email: "alice@example.com", Name: "Alice", Role: domain.RoleAdopter, IsActive: true},
		2: {ID: 2, Email: "bob@example.com", Name: "Bob", Role: domain.RoleShelter, IsActive: true},
	}
	store := redisrepo.NewCredentialStore(client, config.AppConfig.RefreshTokenTTL, config.AppConfig.MaxSessionsPerUser)
	blacklist := redisrepo.NewBlacklist(client, config.AppConfig.AccessTokenTTL)
	authService := session.NewAuthService(users, store, blacklist, noopLedger{})

	hub := NewHub()
	handler := NewHandler(hub, authService)

	router := gin.New()
	router.GET("/ws", handler.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{hub: hub, blacklist: blacklist, server: server}
}

func (f *wsFixture) wsURL(token string) string {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func (f *wsFixture) dial(t *testing.T, userID int64, email, role string) *gorilla.Conn {
	t.Helper()
	token, err := auth.GenerateAccessToken(userID, email, role, true, "")
	require.NoError(t, err)

	conn, resp, err := gorilla.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	// Registration runs on the server's handler goroutine.
	require.Eventually(t, func() bool { return f.hub.IsUserOnline(userID) }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *gorilla.Conn) domain.ServerEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event domain.ServerEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func expectSilence(t *testing.T, conn *gorilla.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout") || gorilla.IsUnexpectedCloseError(err))
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := gorilla.DefaultDialer.Dial(f.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestHandshakeRejectsGarbageToken(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := gorilla.DefaultDialer.Dial(f.wsURL("not-a-jwt"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestHandshakeRejectsBlacklistedToken(t *testing.T) {
	f := newWSFixture(t)

	token, err := auth.GenerateAccessToken(1, "alice@example.com", domain.RoleAdopter, true, "sess-1")
	require.NoError(t, err)
	require.NoError(t, f.blacklist.Add(context.Background(), token, 10*time.Minute))

	_, resp, err := gorilla.DefaultDialer.Dial(f.wsURL(token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownEventRepliesWithError(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)
	bobConn := f.dial(t, 2, "bob@example.com", domain.RoleShelter)

	require.NoError(t, aliceConn.WriteJSON(domain.ClientEvent{Type: "no:such:event"}))

	// Only the sender hears about its mistake.
	event := readEvent(t, aliceConn)
	assert.Equal(t, domain.EventError, event.Type)
	assert.Equal(t, "unknown event type", event.Message)
	expectSilence(t, bobConn)
}

func TestMalformedFrameRepliesWithError(t *testing.T) {
	f := newWSFixture(t)

	conn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("{not json")))

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventError, event.Type)
	assert.Equal(t, "malformed event", event.Message)
}

func TestPushToUserReachesPersonalRoom(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)
	bobConn := f.dial(t, 2, "bob@example.com", domain.RoleShelter)

	f.hub.PushToUser(2, domain.ServerEvent{
		Type:    domain.EventNotificationNew,
		Payload: map[string]interface{}{"id": 99},
	})

	event := readEvent(t, bobConn)
	assert.Equal(t, domain.EventNotificationNew, event.Type)

	// Alice shares no room with this push and must hear nothing.
	expectSilence(t, aliceConn)
}

func TestTypingRelayedToPeerOnly(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)
	bobConn := f.dial(t, 2, "bob@example.com", domain.RoleShelter)

	join := domain.ClientEvent{Type: domain.EventConversationJoin, OtherUserID: 2}
	require.NoError(t, aliceConn.WriteJSON(join))
	join.OtherUserID = 1
	require.NoError(t, bobConn.WriteJSON(join))

	roomID := ConversationRoomID(1, 2)
	require.Eventually(t, func() bool { return f.hub.roomSize(roomID) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, aliceConn.WriteJSON(domain.ClientEvent{
		Type:       domain.EventTypingStart,
		ReceiverID: 2,
	}))

	event := readEvent(t, bobConn)
	assert.Equal(t, domain.EventMessageTyping, event.Type)

	payload, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var typing domain.TypingPayload
	require.NoError(t, json.Unmarshal(payload, &typing))
	assert.Equal(t, int64(1), typing.UserID)
	assert.True(t, typing.IsTyping)

	// The typist never hears their own typing event back.
	expectSilence(t, aliceConn)
}

func TestOnlineAnnouncementReachesOthersOnly(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)
	bobConn := f.dial(t, 2, "bob@example.com", domain.RoleShelter)

	require.NoError(t, bobConn.WriteJSON(domain.ClientEvent{Type: domain.EventUserOnline}))

	event := readEvent(t, aliceConn)
	assert.Equal(t, domain.EventUserStatus, event.Type)

	payload, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var status domain.UserStatusPayload
	require.NoError(t, json.Unmarshal(payload, &status))
	assert.Equal(t, int64(2), status.UserID)
	assert.Equal(t, "online", status.Status)

	// The announcing connection does not hear its own status.
	expectSilence(t, bobConn)
}

func TestDisconnectBroadcastsOfflineStatus(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)
	bobConn := f.dial(t, 2, "bob@example.com", domain.RoleShelter)

	bobConn.Close()

	event := readEvent(t, aliceConn)
	assert.Equal(t, domain.EventUserStatus, event.Type)

	payload, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var status domain.UserStatusPayload
	require.NoError(t, json.Unmarshal(payload, &status))
	assert.Equal(t, int64(2), status.UserID)
	assert.Equal(t, "offline", status.Status)

	require.Eventually(t, func() bool { return !f.hub.IsUserOnline(2) }, 2*time.Second, 10*time.Millisecond)
}

func TestConversationLeaveStopsRelay(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, 1, "alice@example.com", domain.RoleAdopter)
	bobConn := f.dial(t, 2, "bob@example.com", domain.RoleShelter)

	require.NoError(t, aliceConn.WriteJSON(domain.ClientEvent{Type: domain.EventConversationJoin, OtherUserID: 2}))
	require.NoError(t, bobConn.WriteJSON(domain.ClientEvent{Type: domain.EventConversationJoin, OtherUserID: 1}))

	roomID := ConversationRoomID(1, 2)
	require.Eventually(t, func() bool { return f.hub.roomSize(roomID) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bobConn.WriteJSON(domain.ClientEvent{Type: domain.EventConversationLeave, OtherUserID: 1}))
	require.Eventually(t, func() bool { return f.hub.roomSize(roomID) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, aliceConn.WriteJSON(domain.ClientEvent{
		Type:       domain.EventTypingStart,
		ReceiverID: 2,
	}))

	expectSilence(t, bobConn)
}
