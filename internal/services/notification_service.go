package services

import (
	"context"
	"time"

	"github.com/Dias221467/groupchat/internal/events"
	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/Dias221467/groupchat/internal/realtime"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is the content of a notification before it gets an audience.
type Notice struct {
	Title       string
	Description string
	Server      string
}

// NotificationService persists notification records and fans them out to
// connected users. Pushes and audit events are best-effort.
type NotificationService struct {
	repo      NotificationStore
	pusher    Pusher
	publisher events.Publisher
	now       func() time.Time
}

func NewNotificationService(repo NotificationStore, pusher Pusher, publisher events.Publisher) *NotificationService {
	return &NotificationService{
		repo:      repo,
		pusher:    pusher,
		publisher: publisher,
		now:       time.Now,
	}
}

// Record persists one notification for audience. Call it with the context
// of the transaction that performs the motivating state change.
func (s *NotificationService) Record(ctx context.Context, audience []primitive.ObjectID, notice Notice) (*models.Notification, error) {
	now := s.now().UTC()
	if audience == nil {
		audience = []primitive.ObjectID{}
	}
	notif := &models.Notification{
		Title:       notice.Title,
		Description: notice.Description,
		Date:        now.Format("2006-01-02"),
		Time:        now.Format("15:04:05"),
		Server:      notice.Server,
		VisibleTo:   audience,
		IsReadBy:    []primitive.ObjectID{},
		CreatedAt:   now,
	}
	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		return nil, err
	}
	observability.IncNotification()
	return notif, nil
}

// Dispatch pushes committed notifications to every reachable audience
// member and publishes them as audit events.
func (s *NotificationService) Dispatch(ctx context.Context, notifs ...*models.Notification) {
	ctx = context.WithoutCancel(ctx)
	for _, n := range notifs {
		if n == nil {
			continue
		}
		for _, uid := range n.VisibleTo {
			s.PushToUser(uid, realtime.Envelope{Event: realtime.EventNotification, Data: n})
		}
		s.publish(ctx, events.RoutingNotificationCreated, n)
	}
}

// PushToUser sends env to userID's open channel. It reports whether the
// event was accepted; an offline user is not an error.
func (s *NotificationService) PushToUser(userID primitive.ObjectID, env realtime.Envelope) bool {
	if s.pusher == nil {
		return false
	}
	ch, ok := s.pusher.Lookup(userID.Hex())
	if !ok {
		observability.IncPush("offline")
		return false
	}
	return ch.Send(env)
}

// PushToRoom sends env to every subscriber of a group room.
func (s *NotificationService) PushToRoom(room string, env realtime.Envelope) int {
	if s.pusher == nil {
		return 0
	}
	return s.pusher.PublishRoom(room, env)
}

// Broadcast sends env to every connected client.
func (s *NotificationService) Broadcast(env realtime.Envelope) int {
	if s.pusher == nil {
		return 0
	}
	return s.pusher.Broadcast(env)
}

func (s *NotificationService) publish(ctx context.Context, routingKey string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, routingKey, events.Envelope{
		EventType:  routingKey,
		Service:    "groupchat",
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		logrus.WithError(err).WithField("routing_key", routingKey).Warn("Failed to publish audit event")
	}
}

// ListForUser returns notifications addressed to userID, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	uid, err := parseID(userID, "Invalid userId")
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserNotifications(ctx, uid)
}

// MarkRead records that userID acknowledged the notification.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	nid, err := parseID(notificationID, "Invalid notification ID")
	if err != nil {
		return err
	}
	uid, err := parseID(userID, "Invalid userId")
	if err != nil {
		return err
	}
	return mapNotFound(s.repo.MarkAsRead(ctx, nid, uid), "Notification not found")
}
