package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/services"
)

type MembershipServiceMock struct {
	mock.Mock
}

func (m *MembershipServiceMock) Create(ctx context.Context, in services.CreateGroupInput) (*models.GroupView, error) {
	args := m.Called(ctx, in)
	var view *models.GroupView
	if val := args.Get(0); val != nil {
		view = val.(*models.GroupView)
	}
	return view, args.Error(1)
}

func (m *MembershipServiceMock) Get(ctx context.Context, groupID string) (*models.GroupView, error) {
	args := m.Called(ctx, groupID)
	var view *models.GroupView
	if val := args.Get(0); val != nil {
		view = val.(*models.GroupView)
	}
	return view, args.Error(1)
}

func (m *MembershipServiceMock) List(ctx context.Context, userID string) ([]models.GroupView, error) {
	args := m.Called(ctx, userID)
	var list []models.GroupView
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupView)
	}
	return list, args.Error(1)
}

func (m *MembershipServiceMock) Join(ctx context.Context, groupID, userID string) (string, error) {
	args := m.Called(ctx, groupID, userID)
	return args.String(0), args.Error(1)
}

func (m *MembershipServiceMock) AcceptRequest(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MembershipServiceMock) RejectRequest(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MembershipServiceMock) AddMembers(ctx context.Context, groupID string, userIDs []string) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, groupID, userIDs)
	var ids []primitive.ObjectID
	if val := args.Get(0); val != nil {
		ids = val.([]primitive.ObjectID)
	}
	return ids, args.Error(1)
}

func (m *MembershipServiceMock) Leave(ctx context.Context, groupID, userID string) (*models.GroupView, error) {
	args := m.Called(ctx, groupID, userID)
	var view *models.GroupView
	if val := args.Get(0); val != nil {
		view = val.(*models.GroupView)
	}
	return view, args.Error(1)
}

type ConnectionServiceMock struct {
	mock.Mock
}

func (m *ConnectionServiceMock) SendRequest(ctx context.Context, fromID, toID string) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *ConnectionServiceMock) RemoveRequest(ctx context.Context, fromID, toID string) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *ConnectionServiceMock) AcceptRequest(ctx context.Context, fromID, toID string) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *ConnectionServiceMock) RemoveConnection(ctx context.Context, userID, otherID string) error {
	args := m.Called(ctx, userID, otherID)
	return args.Error(0)
}

type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) DeleteMultiple(ctx context.Context, ids []string, userID string, forEveryone bool) error {
	args := m.Called(ctx, ids, userID, forEveryone)
	return args.Error(0)
}

func (m *MessageServiceMock) SendPrivate(ctx context.Context, senderID, receiverID, text string) (*models.PrivateMessage, error) {
	args := m.Called(ctx, senderID, receiverID, text)
	var msg *models.PrivateMessage
	if val := args.Get(0); val != nil {
		msg = val.(*models.PrivateMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageServiceMock) SendGroup(ctx context.Context, groupID, senderID, text string) (*models.GroupMessage, error) {
	args := m.Called(ctx, groupID, senderID, text)
	var msg *models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(*models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageServiceMock) ListPrivate(ctx context.Context, userID, peerID string) ([]models.PrivateMessage, error) {
	args := m.Called(ctx, userID, peerID)
	var list []models.PrivateMessage
	if val := args.Get(0); val != nil {
		list = val.([]models.PrivateMessage)
	}
	return list, args.Error(1)
}

func (m *MessageServiceMock) ListGroup(ctx context.Context, groupID, userID string) ([]models.GroupMessage, error) {
	args := m.Called(ctx, groupID, userID)
	var list []models.GroupMessage
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupMessage)
	}
	return list, args.Error(1)
}

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserServiceMock) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, email, password)
	var res *services.LoginResult
	if val := args.Get(0); val != nil {
		res = val.(*services.LoginResult)
	}
	return res, args.Error(1)
}

func (m *UserServiceMock) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	args := m.Called(ctx, id)
	var profile *models.UserProfile
	if val := args.Get(0); val != nil {
		profile = val.(*models.UserProfile)
	}
	return profile, args.Error(1)
}

func (m *UserServiceMock) Update(ctx context.Context, id string, in services.UpdateUserInput) (*models.PublicUser, error) {
	args := m.Called(ctx, id, in)
	var user *models.PublicUser
	if val := args.Get(0); val != nil {
		user = val.(*models.PublicUser)
	}
	return user, args.Error(1)
}

func (m *UserServiceMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserServiceMock) List(ctx context.Context) ([]models.PublicUser, error) {
	args := m.Called(ctx)
	var list []models.PublicUser
	if val := args.Get(0); val != nil {
		list = val.([]models.PublicUser)
	}
	return list, args.Error(1)
}

func (m *UserServiceMock) ContactsWithLastMessage(ctx context.Context, id string) ([]models.Contact, error) {
	args := m.Called(ctx, id)
	var list []models.Contact
	if val := args.Get(0); val != nil {
		list = val.([]models.Contact)
	}
	return list, args.Error(1)
}

type NotificationServiceMock struct {
	mock.Mock
}

func (m *NotificationServiceMock) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationServiceMock) MarkRead(ctx context.Context, notificationID, userID string) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}
