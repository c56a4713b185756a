package services

import (
	"context"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/realtime"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the user persistence used by the services.
// *repository.UserRepository implements it.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	RemoveUserReferences(ctx context.Context, id primitive.ObjectID) error
	PushRequest(ctx context.Context, userID primitive.ObjectID, entry models.ConnectionRequest) (bool, error)
	PullRequest(ctx context.Context, userID, otherID primitive.ObjectID) error
	AddFollow(ctx context.Context, userID, friendID primitive.ObjectID) error
	RemoveFollow(ctx context.Context, userID1, userID2 primitive.ObjectID) error
}

// GroupStore is implemented by *repository.GroupRepository.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	ListGroups(ctx context.Context, userID *primitive.ObjectID) ([]models.Group, error)
	AddJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	RemoveJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	AddMembers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) error
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
}

// MessageStore is implemented by *repository.MessageRepository.
type MessageStore interface {
	CreatePrivateMessage(ctx context.Context, msg *models.PrivateMessage) (*models.PrivateMessage, error)
	CreateGroupMessage(ctx context.Context, msg *models.GroupMessage) (*models.GroupMessage, error)
	FindPrivateMessages(ctx context.Context, ids []primitive.ObjectID) ([]models.PrivateMessage, error)
	FindGroupMessages(ctx context.Context, ids []primitive.ObjectID) ([]models.GroupMessage, error)
	DeletePrivateMessages(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	DeleteGroupMessages(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	PullPrivateVisibility(ctx context.Context, ids []primitive.ObjectID, userID primitive.ObjectID) error
	PullGroupVisibility(ctx context.Context, ids []primitive.ObjectID, userID primitive.ObjectID) error
	PurgeInvisiblePrivateMessages(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
	PurgeInvisibleGroupMessages(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
	ListPrivateMessages(ctx context.Context, a, b, viewer primitive.ObjectID) ([]models.PrivateMessage, error)
	ListGroupMessages(ctx context.Context, groupID, viewer primitive.ObjectID) ([]models.GroupMessage, error)
	LastPrivateMessage(ctx context.Context, a, b primitive.ObjectID) (*models.PrivateMessage, error)
}

// NotificationStore is implemented by *repository.NotificationRepository.
type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error
}

// Pusher is the process-wide connection registry. *realtime.Hub implements it.
type Pusher interface {
	Lookup(userID string) (realtime.Channel, bool)
	PublishRoom(room string, env realtime.Envelope) int
	Broadcast(env realtime.Envelope) int
}
