package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Inbound frame events.
const (
	FrameJoinGroup  = "join-group"
	FrameLeaveGroup = "leave-group"
)

// InboundFrame is what clients may send over the socket.
type InboundFrame struct {
	Event   string `json:"event"`
	GroupID string `json:"groupId"`
}

// Client is one websocket connection owned by a user.
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewClient wraps conn for userID. conn may be nil for clients that are
// only read through their send buffer.
func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// UserID returns the owning user's id.
func (c *Client) UserID() string {
	return c.userID
}

// Send implements Channel.
func (c *Client) Send(env Envelope) bool {
	payload, err := json.Marshal(env)
	if err != nil {
		return false
	}
	ok := c.enqueue(payload)
	if ok {
		observability.IncPush("delivered")
	} else {
		observability.IncPush("dropped")
	}
	return ok
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump consumes inbound frames until the connection fails, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame InboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("userID", c.userID).Warn("WebSocket read error")
			}
			return
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame InboundFrame) {
	if frame.GroupID == "" {
		return
	}
	switch frame.Event {
	case FrameJoinGroup:
		c.hub.Join(c, frame.GroupID)
	case FrameLeaveGroup:
		c.hub.Leave(c, frame.GroupID)
	}
}

// WritePump drains the send buffer to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logrus.WithError(err).WithField("userID", c.userID).Warn("WebSocket write error")
				c.hub.Unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c)
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
