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

// GroupRepository stores groups. Roster changes are conditional updates so
// that members and join_requests never share an id.
type GroupRepository struct {
	collection *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{collection: db.Collection("groups")}
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	if group.Members == nil {
		group.Members = []primitive.ObjectID{}
	}
	if group.JoinRequests == nil {
		group.JoinRequests = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert group")
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	group.ID = insertedID
	return group, nil
}

func (r *GroupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var group models.Group
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group); err != nil {
		return nil, fmt.Errorf("failed to find group: %w", notFound(err))
	}
	return &group, nil
}

// ListGroups returns groups created by or containing userID, or all groups
// when userID is nil.
func (r *GroupRepository) ListGroups(ctx context.Context, userID *primitive.ObjectID) ([]models.Group, error) {
	filter := bson.M{}
	if userID != nil {
		filter = bson.M{"$or": []bson.M{
			{"creator": *userID},
			{"members": *userID},
		}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	return groups, nil
}

// AddJoinRequest records a pending request unless userID is already a
// member or already requested. It reports whether the request was added.
func (r *GroupRepository) AddJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":           groupID,
		"members":       bson.M{"$ne": userID},
		"join_requests": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$push": bson.M{"join_requests": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	return r.modify(ctx, groupID, filter, update, "add join request")
}

// RemoveJoinRequest drops a pending request. It reports false when userID
// had no pending request.
func (r *GroupRepository) RemoveJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": groupID, "join_requests": userID}
	update := bson.M{
		"$pull": bson.M{"join_requests": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	return r.modify(ctx, groupID, filter, update, "remove join request")
}

// AddMember appends userID to the roster and clears any pending request
// for it. It reports false when userID was already a member.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": groupID, "members": bson.M{"$ne": userID}}
	update := bson.M{
		"$push": bson.M{"members": userID},
		"$pull": bson.M{"join_requests": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	return r.modify(ctx, groupID, filter, update, "add member")
}

// AddMembers adds every id not yet in the roster and clears their pending
// requests.
func (r *GroupRepository) AddMembers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	update := bson.M{
		"$addToSet": bson.M{"members": bson.M{"$each": userIDs}},
		"$pull":     bson.M{"join_requests": bson.M{"$in": userIDs}},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	_, err := r.modify(ctx, groupID, bson.M{"_id": groupID}, update, "add members")
	return err
}

// RemoveMember drops userID from the roster. It reports false when userID
// was not a member.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": groupID, "members": userID}
	update := bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	return r.modify(ctx, groupID, filter, update, "remove member")
}

func (r *GroupRepository) modify(ctx context.Context, groupID primitive.ObjectID, filter, update bson.M, op string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"groupID": groupID.Hex(),
			"op":      op,
			"error":   err,
		}).Error("Failed to update group")
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return result.ModifiedCount > 0, nil
}
