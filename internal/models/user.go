package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connection request states. Every invite creates one entry on each side:
// the inviter holds RequestSent, the invitee holds RequestPending.
const (
	RequestSent    = "sent"
	RequestPending = "pending"
)

// ConnectionRequest is one side of a pending follow request.
type ConnectionRequest struct {
	User   primitive.ObjectID `bson:"user" json:"user"`
	Status string             `bson:"status" json:"status"`
}

// User represents an account and its connection graph.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName      string               `bson:"first_name" json:"firstName"`
	LastName       string               `bson:"last_name" json:"lastName"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Avatar         string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	FollowList     []primitive.ObjectID `bson:"follow_list" json:"followList"`
	RequestList    []ConnectionRequest  `bson:"request_list" json:"requestList"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updatedAt"`
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Follows reports whether id is in the user's follow list.
func (u *User) Follows(id primitive.ObjectID) bool {
	return ContainsID(u.FollowList, id)
}

// HasRequestWith reports whether a request entry for id exists, in either status.
func (u *User) HasRequestWith(id primitive.ObjectID) bool {
	for _, r := range u.RequestList {
		if r.User == id {
			return true
		}
	}
	return false
}

// PublicUser is the subset of a user exposed when populating references.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
}

// Public strips private fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// PopulatedRequest is a ConnectionRequest with its user resolved.
type PopulatedRequest struct {
	User   PublicUser `json:"user"`
	Status string     `json:"status"`
}

// UserProfile is a user with requestList and followList populated.
type UserProfile struct {
	ID          primitive.ObjectID `json:"id"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	Email       string             `json:"email"`
	Avatar      string             `json:"avatar,omitempty"`
	FollowList  []PublicUser       `json:"followList"`
	RequestList []PopulatedRequest `json:"requestList"`
}

// LastMessage is the preview shown next to a contact.
type LastMessage struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Contact is a followed user with the latest private message exchanged.
type Contact struct {
	ID          primitive.ObjectID `json:"id"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	Email       string             `json:"email"`
	LastMessage *LastMessage       `json:"lastMessage"`
}

// ContainsID reports whether id is in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Audience builds an ordered, duplicate-free id list from the given groups
// of ids, dropping every id in exclude.
func Audience(exclude []primitive.ObjectID, groups ...[]primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0)
	for _, ids := range groups {
		for _, id := range ids {
			if id.IsZero() || ContainsID(exclude, id) || ContainsID(out, id) {
				continue
			}
			out = append(out, id)
		}
	}
	return out
}
