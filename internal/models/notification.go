package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Origin tags stored in Notification.Server.
const (
	ServerGroupSystem = "Group System"
	ServerUserSystem  = "User System"
)

// Notification is the durable record of a state transition, addressed to
// every id in VisibleTo. Only IsReadBy changes after creation.
type Notification struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Date        string               `bson:"date" json:"date"` // YYYY-MM-DD
	Time        string               `bson:"time" json:"time"` // HH:MM:SS
	Server      string               `bson:"server" json:"server"`
	VisibleTo   []primitive.ObjectID `bson:"visible_to" json:"visibleTo"`
	IsReadBy    []primitive.ObjectID `bson:"is_read_by" json:"isReadBy"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
}
