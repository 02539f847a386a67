package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Client is one authenticated websocket connection. A user can hold several
// at once (multiple devices); each maps to its own Client.
type Client struct {
	UserID int64
	Role   string

	conn *websocket.Conn

	// writeMu serializes writes: gorilla connections do not allow
	// concurrent writers, and room fanout delivers from many goroutines.
	writeMu sync.Mutex

	closeOnce sync.Once

	// rooms this client has joined, owned by the hub under its lock
	rooms map[string]bool
}

func NewClient(conn *websocket.Conn, userID int64, role string) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		conn:   conn,
		rooms:  make(map[string]bool),
	}
}

// write sends a pre-marshaled frame. Send errors are logged and swallowed:
// a failed delivery never propagates to whatever triggered the push.
func (c *Client) write(data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[WS] Write to user %d failed: %v", c.UserID, err)
	}
}

func (c *Client) writeControl(messageType int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, nil)
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}
