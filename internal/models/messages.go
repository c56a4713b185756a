package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrivateMessage is a direct message between two users. VisibleTo holds the
// users who have not deleted it for themselves.
type PrivateMessage struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	SenderID   primitive.ObjectID   `bson:"sender_id" json:"senderId"`
	ReceiverID primitive.ObjectID   `bson:"receiver_id" json:"receiverId"`
	Message    string               `bson:"message" json:"message"`
	Timestamp  time.Time            `bson:"timestamp" json:"timestamp"`
	VisibleTo  []primitive.ObjectID `bson:"visible_to" json:"visibleTo"`
}

// GroupMessage is a message posted to a group.
type GroupMessage struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID   `bson:"group_id" json:"groupId"`
	SenderID  primitive.ObjectID   `bson:"sender_id" json:"senderId"`
	Message   string               `bson:"message" json:"message"`
	Timestamp time.Time            `bson:"timestamp" json:"timestamp"`
	VisibleTo []primitive.ObjectID `bson:"visible_to" json:"visibleTo"`
}
