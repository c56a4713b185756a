package handlers

import (
	"context"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The handlers depend on these method sets; the concrete services in
// internal/services implement them.

type MembershipService interface {
	Create(ctx context.Context, in services.CreateGroupInput) (*models.GroupView, error)
	Get(ctx context.Context, groupID string) (*models.GroupView, error)
	List(ctx context.Context, userID string) ([]models.GroupView, error)
	Join(ctx context.Context, groupID, userID string) (string, error)
	AcceptRequest(ctx context.Context, groupID, userID string) error
	RejectRequest(ctx context.Context, groupID, userID string) error
	AddMembers(ctx context.Context, groupID string, userIDs []string) ([]primitive.ObjectID, error)
	Leave(ctx context.Context, groupID, userID string) (*models.GroupView, error)
}

type ConnectionService interface {
	SendRequest(ctx context.Context, fromID, toID string) error
	RemoveRequest(ctx context.Context, fromID, toID string) error
	AcceptRequest(ctx context.Context, fromID, toID string) error
	RemoveConnection(ctx context.Context, userID, otherID string) error
}

type MessageService interface {
	DeleteMultiple(ctx context.Context, ids []string, userID string, forEveryone bool) error
	SendPrivate(ctx context.Context, senderID, receiverID, text string) (*models.PrivateMessage, error)
	SendGroup(ctx context.Context, groupID, senderID, text string) (*models.GroupMessage, error)
	ListPrivate(ctx context.Context, userID, peerID string) ([]models.PrivateMessage, error)
	ListGroup(ctx context.Context, groupID, userID string) ([]models.GroupMessage, error)
}

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Get(ctx context.Context, id string) (*models.UserProfile, error)
	Update(ctx context.Context, id string, in services.UpdateUserInput) (*models.PublicUser, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.PublicUser, error)
	ContactsWithLastMessage(ctx context.Context, id string) ([]models.Contact, error)
}

type NotificationService interface {
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}
