package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/Dias221467/groupchat/internal/realtime"
	"github.com/Dias221467/groupchat/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// systemTimestampLayout is ISO 8601 in UTC with milliseconds.
const systemTimestampLayout = "2006-01-02T15:04:05.000Z"

// SystemMessage is pushed to both users when a connection is accepted.
type SystemMessage struct {
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ConnectionService manages the symmetric follow graph between users.
type ConnectionService struct {
	users    UserStore
	txn      repository.Transactor
	notifier *NotificationService
	locks    *keyLocker
	now      func() time.Time
}

func NewConnectionService(users UserStore, txn repository.Transactor, notifier *NotificationService) *ConnectionService {
	return &ConnectionService{
		users:    users,
		txn:      txn,
		notifier: notifier,
		locks:    newKeyLocker(),
		now:      time.Now,
	}
}

// SendRequest records a paired request: "sent" on fromID, "pending" on toID.
func (s *ConnectionService) SendRequest(ctx context.Context, fromID, toID string) error {
	from, to, err := parseUsers(fromID, toID, "Invalid user IDs")
	if err != nil {
		return err
	}
	if from == to {
		return validationf("You can't invite yourself")
	}
	defer s.locks.lock(userKey(from), userKey(to))()

	var notifs []*models.Notification
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		notifs = nil
		sender, err := s.users.GetUserByID(ctx, from)
		if err != nil {
			return mapNotFound(err, "User not found")
		}
		receiver, err := s.users.GetUserByID(ctx, to)
		if err != nil {
			return mapNotFound(err, "User not found")
		}
		if sender.HasRequestWith(to) || sender.Follows(to) {
			return conflictf("Already invited or followed")
		}

		pushed, err := s.users.PushRequest(ctx, from, models.ConnectionRequest{User: to, Status: models.RequestSent})
		if err != nil {
			return err
		}
		if !pushed {
			return conflictf("Already invited or followed")
		}
		pushed, err = s.users.PushRequest(ctx, to, models.ConnectionRequest{User: from, Status: models.RequestPending})
		if err != nil {
			return err
		}
		if !pushed {
			return conflictf("Already invited or followed")
		}

		n, err := s.notifier.Record(ctx, []primitive.ObjectID{receiver.ID}, Notice{
			Title:       "New Connection Request",
			Description: fmt.Sprintf("%s wants to connect with you.", nameOr(sender, "Someone")),
			Server:      models.ServerUserSystem,
		})
		if err != nil {
			return err
		}
		notifs = append(notifs, n)
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, notifs...)
	observability.IncTransition("connection", "send_request")
	logrus.WithFields(logrus.Fields{"from": fromID, "to": toID}).Info("Connection request sent")
	return nil
}

// RemoveRequest withdraws or declines a request. It succeeds when no entry
// exists on either side.
func (s *ConnectionService) RemoveRequest(ctx context.Context, fromID, toID string) error {
	from, to, err := parseUsers(fromID, toID, "Invalid user IDs")
	if err != nil {
		return err
	}
	defer s.locks.lock(userKey(from), userKey(to))()

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.PullRequest(ctx, from, to); err != nil {
			return err
		}
		return s.users.PullRequest(ctx, to, from)
	})
	if err != nil {
		return err
	}
	observability.IncTransition("connection", "remove_request")
	return nil
}

// AcceptRequest clears the request entries on both sides and connects the
// two users.
func (s *ConnectionService) AcceptRequest(ctx context.Context, fromID, toID string) error {
	from, to, err := parseUsers(fromID, toID, "Invalid user IDs")
	if err != nil {
		return err
	}
	if from == to {
		return validationf("Invalid user IDs")
	}
	defer s.locks.lock(userKey(from), userKey(to))()

	var fromUser, toUser *models.User
	var notifs []*models.Notification
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		notifs = nil
		fromUser, err = s.users.GetUserByID(ctx, from)
		if err != nil {
			return mapNotFound(err, "User not found")
		}
		toUser, err = s.users.GetUserByID(ctx, to)
		if err != nil {
			return mapNotFound(err, "User not found")
		}

		if err := s.users.PullRequest(ctx, from, to); err != nil {
			return err
		}
		if err := s.users.PullRequest(ctx, to, from); err != nil {
			return err
		}
		if err := s.users.AddFollow(ctx, from, to); err != nil {
			return err
		}
		if err := s.users.AddFollow(ctx, to, from); err != nil {
			return err
		}

		toFrom, err := s.notifier.Record(ctx, []primitive.ObjectID{from}, Notice{
			Title:       "Request Accepted",
			Description: fmt.Sprintf("You are now connected with %s", nameOr(toUser, "a new contact")),
			Server:      models.ServerUserSystem,
		})
		if err != nil {
			return err
		}
		toTo, err := s.notifier.Record(ctx, []primitive.ObjectID{to}, Notice{
			Title:       "Request Accepted",
			Description: fmt.Sprintf("You are now connected with %s", nameOr(fromUser, "a new contact")),
			Server:      models.ServerUserSystem,
		})
		if err != nil {
			return err
		}
		notifs = append(notifs, toFrom, toTo)
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, notifs...)
	// Each side sees the other party as fromId.
	ts := s.now().UTC().Format(systemTimestampLayout)
	s.notifier.PushToUser(from, realtime.Envelope{Event: realtime.EventSystemMessage, Data: SystemMessage{
		FromID: toID, ToID: fromID, Type: "system", Timestamp: ts,
		Message: fmt.Sprintf("You are now connected with %s", nameOr(toUser, "a new contact")),
	}})
	s.notifier.PushToUser(to, realtime.Envelope{Event: realtime.EventSystemMessage, Data: SystemMessage{
		FromID: fromID, ToID: toID, Type: "system", Timestamp: ts,
		Message: fmt.Sprintf("You are now connected with %s", nameOr(fromUser, "a new contact")),
	}})
	observability.IncTransition("connection", "accept")
	return nil
}

// RemoveConnection drops the follow edge in both directions.
func (s *ConnectionService) RemoveConnection(ctx context.Context, userID, otherID string) error {
	a, b, err := parseUsers(userID, otherID, "Invalid user IDs")
	if err != nil {
		return err
	}
	defer s.locks.lock(userKey(a), userKey(b))()

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		return s.users.RemoveFollow(ctx, a, b)
	})
	if err != nil {
		return err
	}
	observability.IncTransition("connection", "remove_connection")
	return nil
}

func parseUsers(a, b, msg string) (primitive.ObjectID, primitive.ObjectID, error) {
	first, errA := primitive.ObjectIDFromHex(a)
	second, errB := primitive.ObjectIDFromHex(b)
	if errA != nil || errB != nil {
		return primitive.NilObjectID, primitive.NilObjectID, validationf("%s", msg)
	}
	return first, second, nil
}

func nameOr(u *models.User, fallback string) string {
	if u == nil {
		return fallback
	}
	if name := u.DisplayName(); name != "" {
		return name
	}
	return fallback
}
