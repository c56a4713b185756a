package handlers

import (
	"net/http"

	"github.com/Dias221467/groupchat/internal/services"
	"github.com/Dias221467/groupchat/pkg/logger"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupHandler serves the membership routes.
type GroupHandler struct {
	Service  MembershipService
	Messages MessageService
}

func NewGroupHandler(service MembershipService, messages MessageService) *GroupHandler {
	return &GroupHandler{Service: service, Messages: messages}
}

type createGroupRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	CreatorID         string   `json:"creatorId"`
	Members           []string `json:"members"`
	Progress          int      `json:"progress"`
	NextMeeting       string   `json:"nextMeeting"`
	ActiveDiscussions int      `json:"activeDiscussions"`
	IsPrivate         bool     `json:"isPrivate"`
}

type userIDRequest struct {
	UserID string `json:"userId"`
}

// GET /api/groups?userId=
func (h *GroupHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err, "Failed to fetch groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// GET /api/groups/{groupId}
func (h *GroupHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	group, err := h.Service.Get(r.Context(), mux.Vars(r)["groupId"])
	if err != nil {
		writeError(w, err, "Failed to fetch group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// POST /api/groups/create
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decode(w, r, &req) {
		return
	}
	group, err := h.Service.Create(r.Context(), services.CreateGroupInput{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		CreatorID:         req.CreatorID,
		Members:           req.Members,
		Progress:          req.Progress,
		NextMeeting:       req.NextMeeting,
		ActiveDiscussions: req.ActiveDiscussions,
		IsPrivate:         req.IsPrivate,
	})
	if err != nil {
		writeError(w, err, "Failed to create group")
		return
	}
	logger.Log.Infof("User %s created group %s", req.CreatorID, group.ID.Hex())
	writeJSON(w, http.StatusCreated, group)
}

// POST /api/groups/{groupId}/add-members
func (h *GroupHandler) AddMembersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIDs []string `json:"userIds"`
	}
	if !decode(w, r, &req) {
		return
	}
	groupID := mux.Vars(r)["groupId"]
	added, err := h.Service.AddMembers(r.Context(), groupID, req.UserIDs)
	if err != nil {
		writeError(w, err, "Failed to add members")
		return
	}
	logger.Log.Infof("Added %d members to group %s", len(added), groupID)
	if added == nil {
		added = []primitive.ObjectID{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Members added successfully",
		"added":   added,
	})
}

// POST /api/groups/{groupId}/join
func (h *GroupHandler) JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !decode(w, r, &req) {
		return
	}
	groupID := mux.Vars(r)["groupId"]
	status, err := h.Service.Join(r.Context(), groupID, req.UserID)
	if err != nil {
		writeError(w, err, "Failed to join group")
		return
	}
	logger.Log.Infof("User %s join on group %s is %s", req.UserID, groupID, status)
	msg := "Successfully joined the public group."
	if status == services.JoinStatusPending {
		msg = "Join request sent for private group. Awaiting creator approval."
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg, "status": status})
}

// POST /api/groups/{groupId}/accept-request
func (h *GroupHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !decode(w, r, &req) {
		return
	}
	groupID := mux.Vars(r)["groupId"]
	if err := h.Service.AcceptRequest(r.Context(), groupID, req.UserID); err != nil {
		writeError(w, err, "Failed to accept request")
		return
	}
	logger.Log.Infof("User %s accepted into group %s", req.UserID, groupID)
	writeMessage(w, http.StatusOK, "User added to group and request accepted")
}

// POST /api/groups/{groupId}/reject-request
func (h *GroupHandler) RejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !decode(w, r, &req) {
		return
	}
	groupID := mux.Vars(r)["groupId"]
	if err := h.Service.RejectRequest(r.Context(), groupID, req.UserID); err != nil {
		writeError(w, err, "Failed to reject request")
		return
	}
	logger.Log.Infof("Join request of user %s rejected for group %s", req.UserID, groupID)
	writeMessage(w, http.StatusOK, "Request rejected successfully")
}

// POST /api/groups/leave-group
func (h *GroupHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string `json:"groupId"`
		UserID  string `json:"userId"`
	}
	if !decode(w, r, &req) {
		return
	}
	group, err := h.Service.Leave(r.Context(), req.GroupID, req.UserID)
	if err != nil {
		writeError(w, err, "Server error")
		return
	}
	logger.Log.Infof("User %s left group %s", req.UserID, req.GroupID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully left the group",
		"group":   group,
	})
}

// GET /api/groups/{groupId}/messages?userId=
func (h *GroupHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Messages.ListGroup(r.Context(), mux.Vars(r)["groupId"], r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err, "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// POST /api/groups/{groupId}/messages
func (h *GroupHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID string `json:"senderId"`
		Message  string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.Messages.SendGroup(r.Context(), mux.Vars(r)["groupId"], req.SenderID, req.Message)
	if err != nil {
		writeError(w, err, "Failed to send message")
		return
	}
	logger.Log.Infof("User %s posted message %s", req.SenderID, msg.ID.Hex())
	writeJSON(w, http.StatusCreated, msg)
}
