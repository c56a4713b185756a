package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/groupchat/internal/events"
	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/realtime"
	"github.com/Dias221467/groupchat/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type passthroughTxn struct{}

func (passthroughTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUsers) add(first, last string) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.users[id] = &models.User{
		ID:          id,
		FirstName:   first,
		LastName:    last,
		Email:       first + "@example.com",
		FollowList:  []primitive.ObjectID{},
		RequestList: []models.ConnectionRequest{},
	}
	return id
}

func (f *fakeUsers) get(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeUsers) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = primitive.NewObjectID()
	cp := *user
	f.users[user.ID] = &cp
	return user, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to find user by email: %w", repository.ErrNotFound)
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to find user by id: %w", repository.ErrNotFound)
	}
	cp := *u
	cp.FollowList = append([]primitive.ObjectID{}, u.FollowList...)
	cp.RequestList = append([]models.ConnectionRequest{}, u.RequestList...)
	return &cp, nil
}

func (f *fakeUsers) GetAllUsers(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeUsers) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to update user: %w", repository.ErrNotFound)
	}
	for k, v := range fields {
		switch k {
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "email":
			u.Email = v.(string)
		case "avatar":
			u.Avatar = v.(string)
		case "hashed_password":
			u.HashedPassword = v.(string)
		}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("failed to delete user: %w", repository.ErrNotFound)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) RemoveUserReferences(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		u.FollowList = without(u.FollowList, id)
		kept := []models.ConnectionRequest{}
		for _, r := range u.RequestList {
			if r.User != id {
				kept = append(kept, r)
			}
		}
		u.RequestList = kept
	}
	return nil
}

func (f *fakeUsers) has(id primitive.ObjectID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok
}

func (f *fakeUsers) PushRequest(ctx context.Context, userID primitive.ObjectID, entry models.ConnectionRequest) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.HasRequestWith(entry.User) || u.Follows(entry.User) {
		return false, nil
	}
	u.RequestList = append(u.RequestList, entry)
	return true, nil
}

func (f *fakeUsers) PullRequest(ctx context.Context, userID, otherID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil
	}
	kept := []models.ConnectionRequest{}
	for _, r := range u.RequestList {
		if r.User != otherID {
			kept = append(kept, r)
		}
	}
	u.RequestList = kept
	return nil
}

func (f *fakeUsers) AddFollow(ctx context.Context, userID, friendID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok && !u.Follows(friendID) {
		u.FollowList = append(u.FollowList, friendID)
	}
	return nil
}

func (f *fakeUsers) RemoveFollow(ctx context.Context, a, b primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[a]; ok {
		u.FollowList = without(u.FollowList, b)
	}
	if u, ok := f.users[b]; ok {
		u.FollowList = without(u.FollowList, a)
	}
	return nil
}

type fakeGroups struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]*models.Group
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{groups: make(map[primitive.ObjectID]*models.Group)}
}

func (f *fakeGroups) put(g models.Group) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	if g.Members == nil {
		g.Members = []primitive.ObjectID{}
	}
	if g.JoinRequests == nil {
		g.JoinRequests = []primitive.ObjectID{}
	}
	f.groups[g.ID] = &g
	return g.ID
}

func (f *fakeGroups) get(id primitive.ObjectID) models.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := *f.groups[id]
	g.Members = append([]primitive.ObjectID{}, g.Members...)
	g.JoinRequests = append([]primitive.ObjectID{}, g.JoinRequests...)
	return g
}

func (f *fakeGroups) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.ID = f.put(*group)
	return group, nil
}

func (f *fakeGroups) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	f.mu.Lock()
	_, ok := f.groups[id]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("failed to find group: %w", repository.ErrNotFound)
	}
	g := f.get(id)
	return &g, nil
}

func (f *fakeGroups) ListGroups(ctx context.Context, userID *primitive.ObjectID) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Group{}
	for _, g := range f.groups {
		if userID == nil || g.Creator == *userID || g.IsMember(*userID) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeGroups) AddJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	if g.IsMember(userID) || g.HasJoinRequest(userID) {
		return false, nil
	}
	g.JoinRequests = append(g.JoinRequests, userID)
	return true, nil
}

func (f *fakeGroups) RemoveJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	if !g.HasJoinRequest(userID) {
		return false, nil
	}
	g.JoinRequests = without(g.JoinRequests, userID)
	return true, nil
}

func (f *fakeGroups) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	if g.IsMember(userID) {
		return false, nil
	}
	g.Members = append(g.Members, userID)
	g.JoinRequests = without(g.JoinRequests, userID)
	return true, nil
}

func (f *fakeGroups) AddMembers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	for _, id := range userIDs {
		if !g.IsMember(id) {
			g.Members = append(g.Members, id)
		}
		g.JoinRequests = without(g.JoinRequests, id)
	}
	return nil
}

func (f *fakeGroups) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	if !g.IsMember(userID) {
		return false, nil
	}
	g.Members = without(g.Members, userID)
	return true, nil
}

type fakeMessages struct {
	mu      sync.Mutex
	private map[primitive.ObjectID]*models.PrivateMessage
	group   map[primitive.ObjectID]*models.GroupMessage
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		private: make(map[primitive.ObjectID]*models.PrivateMessage),
		group:   make(map[primitive.ObjectID]*models.GroupMessage),
	}
}

func (f *fakeMessages) CreatePrivateMessage(ctx context.Context, msg *models.PrivateMessage) (*models.PrivateMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	cp := *msg
	cp.VisibleTo = append([]primitive.ObjectID{}, msg.VisibleTo...)
	f.private[msg.ID] = &cp
	return msg, nil
}

func (f *fakeMessages) CreateGroupMessage(ctx context.Context, msg *models.GroupMessage) (*models.GroupMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	cp := *msg
	cp.VisibleTo = append([]primitive.ObjectID{}, msg.VisibleTo...)
	f.group[msg.ID] = &cp
	return msg, nil
}

func (f *fakeMessages) FindPrivateMessages(ctx context.Context, ids []primitive.ObjectID) ([]models.PrivateMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PrivateMessage{}
	for _, id := range ids {
		if m, ok := f.private[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessages) FindGroupMessages(ctx context.Context, ids []primitive.ObjectID) ([]models.GroupMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.GroupMessage{}
	for _, id := range ids {
		if m, ok := f.group[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessages) DeletePrivateMessages(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.private[id]; ok {
			delete(f.private, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) DeleteGroupMessages(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.group[id]; ok {
			delete(f.group, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) PullPrivateVisibility(ctx context.Context, ids []primitive.ObjectID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if m, ok := f.private[id]; ok {
			m.VisibleTo = without(m.VisibleTo, userID)
		}
	}
	return nil
}

func (f *fakeMessages) PullGroupVisibility(ctx context.Context, ids []primitive.ObjectID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if m, ok := f.group[id]; ok {
			m.VisibleTo = without(m.VisibleTo, userID)
		}
	}
	return nil
}

func (f *fakeMessages) PurgeInvisiblePrivateMessages(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged []primitive.ObjectID
	for id, m := range f.private {
		if len(m.VisibleTo) == 0 && (ids == nil || models.ContainsID(ids, id)) {
			purged = append(purged, id)
			delete(f.private, id)
		}
	}
	return purged, nil
}

func (f *fakeMessages) PurgeInvisibleGroupMessages(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged []primitive.ObjectID
	for id, m := range f.group {
		if len(m.VisibleTo) == 0 && (ids == nil || models.ContainsID(ids, id)) {
			purged = append(purged, id)
			delete(f.group, id)
		}
	}
	return purged, nil
}

func (f *fakeMessages) ListPrivateMessages(ctx context.Context, a, b, viewer primitive.ObjectID) ([]models.PrivateMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PrivateMessage{}
	for _, m := range f.private {
		between := (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
		if between && models.ContainsID(m.VisibleTo, viewer) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeMessages) ListGroupMessages(ctx context.Context, groupID, viewer primitive.ObjectID) ([]models.GroupMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.GroupMessage{}
	for _, m := range f.group {
		if m.GroupID == groupID && models.ContainsID(m.VisibleTo, viewer) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeMessages) LastPrivateMessage(ctx context.Context, a, b primitive.ObjectID) (*models.PrivateMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *models.PrivateMessage
	for _, m := range f.private {
		between := (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
		if between && (last == nil || m.Timestamp.After(last.Timestamp)) {
			cp := *m
			last = &cp
		}
	}
	return last, nil
}

func (f *fakeMessages) hasPrivate(id primitive.ObjectID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.private[id]
	return ok
}

func (f *fakeMessages) groupMessage(id primitive.ObjectID) (models.GroupMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.group[id]
	if !ok {
		return models.GroupMessage{}, false
	}
	return *m, true
}

type fakeNotifications struct {
	mu     sync.Mutex
	stored []*models.Notification
}

func (f *fakeNotifications) CreateNotification(ctx context.Context, notif *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notif.ID = primitive.NewObjectID()
	f.stored = append(f.stored, notif)
	return nil
}

func (f *fakeNotifications) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Notification{}
	for i := len(f.stored) - 1; i >= 0; i-- {
		if models.ContainsID(f.stored[i].VisibleTo, userID) {
			out = append(out, *f.stored[i])
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.stored {
		if n.ID == id {
			if !models.ContainsID(n.IsReadBy, userID) {
				n.IsReadBy = append(n.IsReadBy, userID)
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeNotifications) titled(title string) []*models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.stored {
		if n.Title == title {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNotifications) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

// recordingChannel is a Channel that keeps every envelope it accepts.
type recordingChannel struct {
	mu   sync.Mutex
	envs []realtime.Envelope
}

func (c *recordingChannel) Send(env realtime.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envs = append(c.envs, env)
	return true
}

func (c *recordingChannel) events(name string) []realtime.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []realtime.Envelope
	for _, e := range c.envs {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

type roomEvent struct {
	room string
	env  realtime.Envelope
}

type recordingPusher struct {
	mu         sync.Mutex
	online     map[string]*recordingChannel
	rooms      []roomEvent
	broadcasts []realtime.Envelope
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{online: make(map[string]*recordingChannel)}
}

func (p *recordingPusher) connect(id primitive.ObjectID) *recordingChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := &recordingChannel{}
	p.online[id.Hex()] = ch
	return ch
}

func (p *recordingPusher) Lookup(userID string) (realtime.Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.online[userID]
	if !ok {
		return nil, false
	}
	return ch, true
}

func (p *recordingPusher) PublishRoom(room string, env realtime.Envelope) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms = append(p.rooms, roomEvent{room: room, env: env})
	return 1
}

func (p *recordingPusher) Broadcast(env realtime.Envelope) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, env)
	return len(p.online)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type harness struct {
	users     *fakeUsers
	groups    *fakeGroups
	messages  *fakeMessages
	notifs    *fakeNotifications
	pusher    *recordingPusher
	publisher *recordingPublisher
	notifier  *NotificationService
}

func newHarness() *harness {
	h := &harness{
		users:     newFakeUsers(),
		groups:    newFakeGroups(),
		messages:  newFakeMessages(),
		notifs:    &fakeNotifications{},
		pusher:    newRecordingPusher(),
		publisher: &recordingPublisher{},
	}
	h.notifier = NewNotificationService(h.notifs, h.pusher, h.publisher)
	h.notifier.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return h
}

func (h *harness) membership() *MembershipService {
	return NewMembershipService(h.groups, h.users, passthroughTxn{}, h.notifier, "https://github.com/shadcn.png")
}

func (h *harness) connections() *ConnectionService {
	return NewConnectionService(h.users, passthroughTxn{}, h.notifier)
}

func (h *harness) messageService() *MessageService {
	return NewMessageService(h.messages, h.groups, h.users, passthroughTxn{}, h.notifier)
}
