package realtime

import (
	"encoding/json"
	"sync"

	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/sirupsen/logrus"
)

// Event names pushed to clients.
const (
	EventNotification   = "notification"
	EventSystemMessage  = "system-message"
	EventDeleteMessages = "delete-messages"
	EventPrivateMessage = "private-message"
	EventGroupMessage   = "group-message"
)

// Envelope is the frame written to a websocket.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Channel is an open push connection for one user.
type Channel interface {
	Send(env Envelope) bool
}

// Hub tracks the latest connection of every online user and the group rooms
// each connection subscribed to. All delivery is best-effort.
type Hub struct {
	mu     sync.RWMutex
	all    map[*Client]struct{}
	byUser map[string]*Client
	rooms  map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		all:    make(map[*Client]struct{}),
		byUser: make(map[string]*Client),
		rooms:  make(map[string]map[*Client]struct{}),
	}
}

// Register makes c the channel for its user, replacing an older connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.all[c] = struct{}{}
	h.byUser[c.userID] = c
	n := len(h.all)
	h.mu.Unlock()

	observability.SetWSConnections(n)
	logrus.WithField("userID", c.userID).Info("Realtime client registered")
}

// Unregister forgets c and all its room subscriptions.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.all[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.all, c)
	if cur, ok := h.byUser[c.userID]; ok && cur == c {
		delete(h.byUser, c.userID)
	}
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	n := len(h.all)
	h.mu.Unlock()

	c.close()
	observability.SetWSConnections(n)
	logrus.WithField("userID", c.userID).Info("Realtime client unregistered")
}

// Lookup returns the open channel for userID, if any.
func (h *Hub) Lookup(userID string) (Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.byUser[userID]
	if !ok {
		return nil, false
	}
	return c, true
}

// Join subscribes c to room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.all[c]; !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

// Leave unsubscribes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// PublishRoom sends env to every subscriber of room and returns how many
// clients accepted it.
func (h *Hub) PublishRoom(room string, env Envelope) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return deliver(targets, env)
}

// Broadcast sends env to every connected client.
func (h *Hub) Broadcast(env Envelope) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.all))
	for c := range h.all {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return deliver(targets, env)
}

// Online returns the number of connected clients.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func deliver(targets []*Client, env Envelope) int {
	if len(targets) == 0 {
		return 0
	}
	payload, err := json.Marshal(env)
	if err != nil {
		logrus.WithError(err).WithField("event", env.Event).Error("Failed to encode realtime event")
		return 0
	}
	delivered := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			delivered++
			observability.IncPush("delivered")
		} else {
			observability.IncPush("dropped")
		}
	}
	return delivered
}
