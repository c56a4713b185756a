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

// MessageRepository stores private and group messages in two collections.
type MessageRepository struct {
	private *mongo.Collection
	group   *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		private: db.Collection("private_messages"),
		group:   db.Collection("group_messages"),
	}
}

func (r *MessageRepository) CreatePrivateMessage(ctx context.Context, msg *models.PrivateMessage) (*models.PrivateMessage, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	result, err := r.private.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to insert private message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

func (r *MessageRepository) CreateGroupMessage(ctx context.Context, msg *models.GroupMessage) (*models.GroupMessage, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	result, err := r.group.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to insert group message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

func (r *MessageRepository) FindPrivateMessages(ctx context.Context, ids []primitive.ObjectID) ([]models.PrivateMessage, error) {
	var msgs []models.PrivateMessage
	if err := r.findAll(ctx, r.private, bson.M{"_id": bson.M{"$in": ids}}, nil, &msgs); err != nil {
		return nil, fmt.Errorf("failed to find private messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) FindGroupMessages(ctx context.Context, ids []primitive.ObjectID) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	if err := r.findAll(ctx, r.group, bson.M{"_id": bson.M{"$in": ids}}, nil, &msgs); err != nil {
		return nil, fmt.Errorf("failed to find group messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) DeletePrivateMessages(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	result, err := r.private.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete private messages: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MessageRepository) DeleteGroupMessages(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	result, err := r.group.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete group messages: %w", err)
	}
	return result.DeletedCount, nil
}

// PullPrivateVisibility removes userID from visible_to of the given private messages.
func (r *MessageRepository) PullPrivateVisibility(ctx context.Context, ids []primitive.ObjectID, userID primitive.ObjectID) error {
	_, err := r.private.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"visible_to": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to hide private messages: %w", err)
	}
	return nil
}

// PullGroupVisibility removes userID from visible_to of the given group messages.
func (r *MessageRepository) PullGroupVisibility(ctx context.Context, ids []primitive.ObjectID, userID primitive.ObjectID) error {
	_, err := r.group.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"visible_to": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to hide group messages: %w", err)
	}
	return nil
}

// PurgeInvisiblePrivateMessages hard-deletes private messages nobody can
// see any more, restricted to ids unless ids is nil. It returns the purged ids.
func (r *MessageRepository) PurgeInvisiblePrivateMessages(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.purgeInvisible(ctx, r.private, ids)
}

// PurgeInvisibleGroupMessages is PurgeInvisiblePrivateMessages for group messages.
func (r *MessageRepository) PurgeInvisibleGroupMessages(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.purgeInvisible(ctx, r.group, ids)
}

func (r *MessageRepository) purgeInvisible(ctx context.Context, coll *mongo.Collection, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"visible_to": bson.M{"$size": 0}}
	if ids != nil {
		filter["_id"] = bson.M{"$in": ids}
	}

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	if err := r.findAll(ctx, coll, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to find invisible messages in %s: %w", coll.Name(), err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	purged := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		purged = append(purged, d.ID)
	}
	// Re-check emptiness so a message that regained a viewer is kept.
	result, err := coll.DeleteMany(ctx, bson.M{
		"_id":        bson.M{"$in": purged},
		"visible_to": bson.M{"$size": 0},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to purge messages in %s: %w", coll.Name(), err)
	}

	logrus.WithFields(logrus.Fields{
		"collection": coll.Name(),
		"purged":     result.DeletedCount,
	}).Info("Purged invisible messages")
	return purged, nil
}

// ListPrivateMessages returns the conversation between a and b that viewer
// can still see, oldest first.
func (r *MessageRepository) ListPrivateMessages(ctx context.Context, a, b, viewer primitive.ObjectID) ([]models.PrivateMessage, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
		"visible_to": viewer,
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	msgs := []models.PrivateMessage{}
	if err := r.findAll(ctx, r.private, filter, opts, &msgs); err != nil {
		return nil, fmt.Errorf("failed to list private messages: %w", err)
	}
	return msgs, nil
}

// ListGroupMessages returns the group's messages that viewer can still see.
func (r *MessageRepository) ListGroupMessages(ctx context.Context, groupID, viewer primitive.ObjectID) ([]models.GroupMessage, error) {
	filter := bson.M{"group_id": groupID, "visible_to": viewer}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	msgs := []models.GroupMessage{}
	if err := r.findAll(ctx, r.group, filter, opts, &msgs); err != nil {
		return nil, fmt.Errorf("failed to list group messages: %w", err)
	}
	return msgs, nil
}

// LastPrivateMessage returns the newest message exchanged by a and b, or nil.
func (r *MessageRepository) LastPrivateMessage(ctx context.Context, a, b primitive.ObjectID) (*models.PrivateMessage, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var msg models.PrivateMessage
	err := r.private.FindOne(ctx, filter, opts).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last message: %w", err)
	}
	return &msg, nil
}

func (r *MessageRepository) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, out interface{}) error {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = coll.Find(ctx, filter, opts)
	} else {
		cursor, err = coll.Find(ctx, filter)
	}
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
