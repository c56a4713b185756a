package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/groupchat/internal/events"
	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/Dias221467/groupchat/internal/realtime"
	"github.com/Dias221467/groupchat/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedMessages is the payload of a delete-messages event.
type DeletedMessages struct {
	IDs []primitive.ObjectID `json:"ids"`
}

// MessageService owns message visibility: a message lives until the last
// user who can see it deletes it, or until someone deletes it for everyone.
type MessageService struct {
	messages MessageStore
	groups   GroupStore
	users    UserStore
	txn      repository.Transactor
	notifier *NotificationService
	now      func() time.Time
}

func NewMessageService(messages MessageStore, groups GroupStore, users UserStore, txn repository.Transactor, notifier *NotificationService) *MessageService {
	return &MessageService{
		messages: messages,
		groups:   groups,
		users:    users,
		txn:      txn,
		notifier: notifier,
		now:      time.Now,
	}
}

// DeleteMultiple hides the messages for userID, or deletes them outright
// when forEveryone is set.
func (s *MessageService) DeleteMultiple(ctx context.Context, messageIDs []string, userID string, forEveryone bool) error {
	ids := make([]primitive.ObjectID, 0, len(messageIDs))
	for _, raw := range messageIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return fmt.Errorf("invalid message id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if forEveryone {
		return s.deleteForEveryone(ctx, ids)
	}

	uid, err := parseID(userID, "Invalid userId")
	if err != nil {
		return err
	}

	var purged []primitive.ObjectID
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		purged = nil
		if err := s.messages.PullPrivateVisibility(ctx, ids, uid); err != nil {
			return err
		}
		if err := s.messages.PullGroupVisibility(ctx, ids, uid); err != nil {
			return err
		}
		groupPurged, err := s.messages.PurgeInvisibleGroupMessages(ctx, ids)
		if err != nil {
			return err
		}
		privatePurged, err := s.messages.PurgeInvisiblePrivateMessages(ctx, ids)
		if err != nil {
			return err
		}
		purged = append(groupPurged, privatePurged...)
		return nil
	})
	if err != nil {
		return err
	}

	observability.IncTransition("message", "hide")
	s.announcePurge(ctx, purged, "last_viewer")
	return nil
}

// announcePurge broadcasts one delete-messages event for ids that no user
// can see any more and records them for audit.
func (s *MessageService) announcePurge(ctx context.Context, ids []primitive.ObjectID, reason string) {
	if len(ids) == 0 {
		return
	}
	payload := DeletedMessages{IDs: ids}
	observability.AddPurged("message", reason, len(ids))
	s.notifier.Broadcast(realtime.Envelope{Event: realtime.EventDeleteMessages, Data: payload})
	s.notifier.publish(context.WithoutCancel(ctx), events.RoutingMessagesPurged, payload)
}

func (s *MessageService) deleteForEveryone(ctx context.Context, ids []primitive.ObjectID) error {
	var private []models.PrivateMessage
	var group []models.GroupMessage
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if private, err = s.messages.FindPrivateMessages(ctx, ids); err != nil {
			return err
		}
		if group, err = s.messages.FindGroupMessages(ctx, ids); err != nil {
			return err
		}
		if _, err := s.messages.DeletePrivateMessages(ctx, ids); err != nil {
			return err
		}
		_, err = s.messages.DeleteGroupMessages(ctx, ids)
		return err
	})
	if err != nil {
		return err
	}

	var rooms []primitive.ObjectID
	byRoom := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, m := range group {
		if _, ok := byRoom[m.GroupID]; !ok {
			rooms = append(rooms, m.GroupID)
		}
		byRoom[m.GroupID] = append(byRoom[m.GroupID], m.ID)
	}
	for _, gid := range rooms {
		s.notifier.PushToRoom(gid.Hex(), realtime.Envelope{Event: realtime.EventDeleteMessages, Data: DeletedMessages{IDs: byRoom[gid]}})
	}

	var participants []primitive.ObjectID
	byUser := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, m := range private {
		for _, uid := range models.Audience(nil, []primitive.ObjectID{m.SenderID, m.ReceiverID}) {
			if _, ok := byUser[uid]; !ok {
				participants = append(participants, uid)
			}
			byUser[uid] = append(byUser[uid], m.ID)
		}
	}
	for _, uid := range participants {
		s.notifier.PushToUser(uid, realtime.Envelope{Event: realtime.EventDeleteMessages, Data: DeletedMessages{IDs: byUser[uid]}})
	}

	observability.IncTransition("message", "delete_for_everyone")
	observability.AddPurged("message", "for_everyone", len(private)+len(group))
	s.notifier.publish(context.WithoutCancel(ctx), events.RoutingMessagesPurged, DeletedMessages{IDs: ids})
	logrus.WithFields(logrus.Fields{
		"private": len(private),
		"group":   len(group),
	}).Info("Messages deleted for everyone")
	return nil
}

// PurgeInvisible removes every message no user can see and announces the
// removed ids. It returns how many were purged.
func (s *MessageService) PurgeInvisible(ctx context.Context) (int, error) {
	groupPurged, err := s.messages.PurgeInvisibleGroupMessages(ctx, nil)
	if err != nil {
		return 0, err
	}
	privatePurged, err := s.messages.PurgeInvisiblePrivateMessages(ctx, nil)
	if err != nil {
		return 0, err
	}
	purged := append(groupPurged, privatePurged...)
	s.announcePurge(ctx, purged, "sweep")
	return len(purged), nil
}

// SendPrivate stores a direct message visible to both users and pushes it
// to each of them.
func (s *MessageService) SendPrivate(ctx context.Context, senderID, receiverID, text string) (*models.PrivateMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("Message text is required")
	}
	sender, receiver, err := parseUsers(senderID, receiverID, "Invalid senderId or receiverId")
	if err != nil {
		return nil, err
	}
	if sender == receiver {
		return nil, validationf("You can't message yourself")
	}
	if _, err := s.users.GetUserByID(ctx, receiver); err != nil {
		return nil, mapNotFound(err, "User not found")
	}

	msg, err := s.messages.CreatePrivateMessage(ctx, &models.PrivateMessage{
		SenderID:   sender,
		ReceiverID: receiver,
		Message:    text,
		Timestamp:  s.now().UTC(),
		VisibleTo:  []primitive.ObjectID{sender, receiver},
	})
	if err != nil {
		return nil, err
	}

	env := realtime.Envelope{Event: realtime.EventPrivateMessage, Data: msg}
	s.notifier.PushToUser(sender, env)
	s.notifier.PushToUser(receiver, env)
	return msg, nil
}

// SendGroup stores a message visible to the creator and every member and
// pushes it to the group room. Only participants may post.
func (s *MessageService) SendGroup(ctx context.Context, groupID, senderID, text string) (*models.GroupMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("Message text is required")
	}
	gid, sender, err := parsePair(groupID, senderID)
	if err != nil {
		return nil, err
	}
	group, err := s.groups.GetGroupByID(ctx, gid)
	if err != nil {
		return nil, mapNotFound(err, "Group not found")
	}
	if group.Creator != sender && !group.IsMember(sender) {
		return nil, validationf("You are not a member of this group.")
	}

	msg, err := s.messages.CreateGroupMessage(ctx, &models.GroupMessage{
		GroupID:   gid,
		SenderID:  sender,
		Message:   text,
		Timestamp: s.now().UTC(),
		VisibleTo: group.Participants(),
	})
	if err != nil {
		return nil, err
	}
	s.notifier.PushToRoom(gid.Hex(), realtime.Envelope{Event: realtime.EventGroupMessage, Data: msg})
	return msg, nil
}

// ListPrivate returns the conversation with peerID that userID can see.
func (s *MessageService) ListPrivate(ctx context.Context, userID, peerID string) ([]models.PrivateMessage, error) {
	uid, peer, err := parseUsers(userID, peerID, "Invalid userId or peerId")
	if err != nil {
		return nil, err
	}
	return s.messages.ListPrivateMessages(ctx, uid, peer, uid)
}

// ListGroup returns the group messages userID can see.
func (s *MessageService) ListGroup(ctx context.Context, groupID, userID string) ([]models.GroupMessage, error) {
	gid, uid, err := parsePair(groupID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.GetGroupByID(ctx, gid); err != nil {
		return nil, mapNotFound(err, "Group not found")
	}
	return s.messages.ListGroupMessages(ctx, gid, uid)
}
