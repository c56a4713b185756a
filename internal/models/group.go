package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a collaboration group. The creator owns it and is never a
// generic member; members and join requests are disjoint.
type Group struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name              string               `bson:"name" json:"name"`
	Description       string               `bson:"description" json:"description"`
	Category          string               `bson:"category" json:"category"`
	Creator           primitive.ObjectID   `bson:"creator" json:"creator"`
	Members           []primitive.ObjectID `bson:"members" json:"members"`
	JoinRequests      []primitive.ObjectID `bson:"join_requests" json:"joinRequests"`
	IsPrivate         bool                 `bson:"is_private" json:"isPrivate"`
	Progress          int                  `bson:"progress" json:"progress"`
	NextMeeting       string               `bson:"next_meeting,omitempty" json:"nextMeeting,omitempty"`
	ActiveDiscussions int                  `bson:"active_discussions" json:"activeDiscussions"`
	CreatedAt         time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time            `bson:"updated_at" json:"updatedAt"`
}

// IsMember reports whether id is in the member roster.
func (g *Group) IsMember(id primitive.ObjectID) bool {
	return ContainsID(g.Members, id)
}

// HasJoinRequest reports whether id is awaiting the creator's decision.
func (g *Group) HasJoinRequest(id primitive.ObjectID) bool {
	return ContainsID(g.JoinRequests, id)
}

// Participants is the creator followed by every member.
func (g *Group) Participants() []primitive.ObjectID {
	return Audience(nil, []primitive.ObjectID{g.Creator}, g.Members)
}

// GroupView is a group with its user references populated. MemberAvatars
// is derived from Members when the view is built, one entry per member.
type GroupView struct {
	ID                primitive.ObjectID `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Category          string             `json:"category"`
	Creator           *PublicUser        `json:"creator"`
	Members           []PublicUser       `json:"members"`
	MemberAvatars     []string           `json:"memberAvatars"`
	JoinRequests      []PublicUser       `json:"joinRequests"`
	IsPrivate         bool               `json:"isPrivate"`
	Progress          int                `json:"progress"`
	NextMeeting       string             `json:"nextMeeting,omitempty"`
	ActiveDiscussions int                `json:"activeDiscussions"`
	CreatedAt         time.Time          `json:"createdAt"`
}
