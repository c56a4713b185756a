package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.FollowList == nil {
		user.FollowList = []primitive.ObjectID{}
	}
	if user.RequestList == nil {
		user.RequestList = []models.ConnectionRequest{}
	}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", notFound(err))
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Warn("Failed to find user by ID")
		return nil, fmt.Errorf("failed to find user by id: %w", notFound(err))
	}
	return &user, nil
}

// UpdateUser sets the given profile fields and returns the updated user.
func (r *UserRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Error("Failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", notFound(err))
	}

	logrus.WithField("userID", id.Hex()).Info("User updated successfully")
	return &user, nil
}

// DeleteUser deletes a user from the database.
func (r *UserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Error("Failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("failed to delete user: %w", ErrNotFound)
	}

	logrus.WithField("userID", id.Hex()).Info("User deleted successfully")
	return nil
}

// RemoveUserReferences pulls id from every other user's follow and
// request lists.
func (r *UserRepository) RemoveUserReferences(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"follow_list": id},
			bson.M{"request_list.user": id},
		}},
		bson.M{"$pull": bson.M{
			"follow_list":  id,
			"request_list": bson.M{"user": id},
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove references to user %s: %w", id.Hex(), err)
	}
	return nil
}

// GetAllUsers returns every user.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// GetUsersByIDs fetches user details for a list of ObjectIDs.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by IDs: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// PushRequest appends entry to the user's request list unless the user
// already has an entry for, or follows, entry.User. It reports whether the
// entry was added.
func (r *UserRepository) PushRequest(ctx context.Context, userID primitive.ObjectID, entry models.ConnectionRequest) (bool, error) {
	filter := bson.M{
		"_id":               userID,
		"request_list.user": bson.M{"$ne": entry.User},
		"follow_list":       bson.M{"$ne": entry.User},
	}
	update := bson.M{
		"$push": bson.M{"request_list": entry},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to push request for user %s: %w", userID.Hex(), err)
	}
	return result.ModifiedCount > 0, nil
}

// PullRequest removes every request entry for otherID from the user's list.
func (r *UserRepository) PullRequest(ctx context.Context, userID, otherID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"request_list": bson.M{"user": otherID}}},
	)
	if err != nil {
		return fmt.Errorf("failed to pull request from user %s: %w", userID.Hex(), err)
	}
	return nil
}

// AddFollow adds friendID to the user's follow list.
func (r *UserRepository) AddFollow(ctx context.Context, userID, friendID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"follow_list": friendID}}, // avoid duplicates
	)
	if err != nil {
		return fmt.Errorf("failed to add follow: %w", err)
	}
	return nil
}

// RemoveFollow removes each user from the other's follow list.
func (r *UserRepository) RemoveFollow(ctx context.Context, userID1, userID2 primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID1},
		bson.M{"$pull": bson.M{"follow_list": userID2}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove follow from user %s: %w", userID1.Hex(), err)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": userID2},
		bson.M{"$pull": bson.M{"follow_list": userID1}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove follow from user %s: %w", userID2.Hex(), err)
	}
	return nil
}
