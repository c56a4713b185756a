package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/repository"
	"github.com/Dias221467/groupchat/pkg/jwt"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RegisterInput is the signup payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Avatar    string
}

// LoginResult is returned by a successful login. Token is empty when no
// signing secret is configured.
type LoginResult struct {
	Token string            `json:"token,omitempty"`
	User  models.PublicUser `json:"user"`
}

// UpdateUserInput holds the profile fields to change. Nil fields are left
// as they are.
type UpdateUserInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Avatar    *string `json:"avatar"`
	Password  *string `json:"password"`
}

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo        UserStore
	messages    MessageStore
	txn         repository.Transactor
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, messages MessageStore, txn repository.Transactor, jwtSecret string, tokenExpiry time.Duration) *UserService {
	return &UserService{
		repo:        repo,
		messages:    messages,
		txn:         txn,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

// Register creates an account after hashing its password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	logrus.Info("Registering new user")

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.FirstName == "" || in.LastName == "" || email == "" || in.Password == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, validationf("All fields are required.")
	}
	if !emailRegex.MatchString(email) {
		logrus.WithField("email", email).Warn("Invalid email format during registration")
		return nil, validationf("Invalid email format")
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		logrus.WithField("email", email).Warn("Email already in use")
		return nil, conflictf("Email already in use")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.repo.CreateUser(ctx, &models.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          email,
		HashedPassword: string(hashedPwd),
		Avatar:         in.Avatar,
		FollowList:     []primitive.ObjectID{},
		RequestList:    []models.ConnectionRequest{},
	})
	if err != nil {
		logrus.WithError(err).Error("User registration failed")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logrus.WithField("userID", created.ID.Hex()).Info("User registered successfully")
	return created, nil
}

// Login verifies the credentials and issues a websocket token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logrus.WithField("email", email).Info("Authenticating user")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("email", email).Warn("User not found")
			return nil, &ServiceError{Kind: ErrUnauthorized, Message: "Invalid credentials"}
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, &ServiceError{Kind: ErrUnauthorized, Message: "Invalid credentials"}
	}

	result := &LoginResult{User: user.Public()}
	if s.jwtSecret != "" {
		token, err := jwt.GenerateToken(user.ID.Hex(), user.Email, s.jwtSecret, s.tokenExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		result.Token = token
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return result, nil
}

// Get returns a user with the follow and request lists populated.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	uid, err := parseID(id, "Invalid user ID")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		return nil, mapNotFound(err, "User not found")
	}

	refs := models.Audience(nil, user.FollowList)
	for _, r := range user.RequestList {
		refs = models.Audience(nil, refs, []primitive.ObjectID{r.User})
	}
	related, err := s.repo.GetUsersByIDs(ctx, refs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.PublicUser, len(related))
	for _, u := range related {
		byID[u.ID] = u.Public()
	}

	profile := &models.UserProfile{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		Avatar:      user.Avatar,
		FollowList:  make([]models.PublicUser, 0, len(user.FollowList)),
		RequestList: make([]models.PopulatedRequest, 0, len(user.RequestList)),
	}
	for _, f := range user.FollowList {
		if u, ok := byID[f]; ok {
			profile.FollowList = append(profile.FollowList, u)
		}
	}
	for _, r := range user.RequestList {
		if u, ok := byID[r.User]; ok {
			profile.RequestList = append(profile.RequestList, models.PopulatedRequest{User: u, Status: r.Status})
		}
	}
	return profile, nil
}

// Update changes the profile fields set in in. The connection lists are
// never touched here.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.PublicUser, error) {
	logrus.WithField("userID", id).Info("Updating user")

	uid, err := parseID(id, "Invalid user ID")
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	for key, val := range map[string]*string{"first_name": in.FirstName, "last_name": in.LastName} {
		if val == nil {
			continue
		}
		if strings.TrimSpace(*val) == "" {
			return nil, validationf("Name fields cannot be empty")
		}
		fields[key] = strings.TrimSpace(*val)
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !emailRegex.MatchString(email) {
			return nil, validationf("Invalid email format")
		}
		existing, err := s.repo.GetUserByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != uid {
			logrus.WithField("email", email).Warn("Email already in use")
			return nil, conflictf("Email already in use")
		}
		fields["email"] = email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, validationf("Password cannot be empty")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		fields["hashed_password"] = string(hashed)
	}
	if len(fields) == 0 {
		return nil, validationf("Nothing to update")
	}

	user, err := s.repo.UpdateUser(ctx, uid, fields)
	if err != nil {
		return nil, mapNotFound(err, "User not found")
	}
	public := user.Public()
	logrus.WithField("userID", id).Info("User updated successfully in service")
	return &public, nil
}

// Delete removes the account and drops it from every other user's follow
// and request lists.
func (s *UserService) Delete(ctx context.Context, id string) error {
	logrus.WithField("userID", id).Info("Deleting user")

	uid, err := parseID(id, "Invalid user ID")
	if err != nil {
		return err
	}
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteUser(ctx, uid); err != nil {
			return mapNotFound(err, "User not found")
		}
		return s.repo.RemoveUserReferences(ctx, uid)
	})
	if err != nil {
		return err
	}
	logrus.WithField("userID", id).Info("User deleted successfully")
	return nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// ContactsWithLastMessage returns the users id follows, each with the
// newest private message they exchanged.
func (s *UserService) ContactsWithLastMessage(ctx context.Context, id string) ([]models.Contact, error) {
	uid, err := parseID(id, "Invalid user ID")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		return nil, mapNotFound(err, "User not found")
	}
	follows, err := s.repo.GetUsersByIDs(ctx, user.FollowList)
	if err != nil {
		return nil, err
	}

	contacts := make([]models.Contact, 0, len(follows))
	for _, f := range follows {
		c := models.Contact{ID: f.ID, FirstName: f.FirstName, LastName: f.LastName, Email: f.Email}
		last, err := s.messages.LastPrivateMessage(ctx, uid, f.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			c.LastMessage = &models.LastMessage{Message: last.Message, Timestamp: last.Timestamp.UnixMilli()}
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}
