package handlers

import (
	"net/http"

	"github.com/Dias221467/groupchat/internal/services"
	"github.com/Dias221467/groupchat/pkg/logger"
	"github.com/gorilla/mux"
)

// UserHandler handles HTTP requests related to user operations.
type UserHandler struct {
	Service     UserService
	Connections ConnectionService
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service UserService, connections ConnectionService) *UserHandler {
	return &UserHandler{
		Service:     service,
		Connections: connections,
	}
}

type pairRequest struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	logger.Log.Info("RegisterUserHandler called")
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Avatar    string `json:"avatar"`
	}
	if !decode(w, r, &req) {
		return
	}

	user, err := h.Service.Register(r.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Avatar:    req.Avatar,
	})
	if err != nil {
		writeError(w, err, "Failed to register user")
		return
	}
	logger.Log.Infof("User %s registered", user.ID.Hex())
	writeJSON(w, http.StatusCreated, user)
}

// LoginUserHandler handles user login.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	logger.Log.Info("LoginUserHandler called")
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &credentials) {
		return
	}

	result, err := h.Service.Login(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		logger.Log.WithField("email", credentials.Email).Warn("Authentication failed")
		writeError(w, err, "Failed to log in")
		return
	}
	logger.Log.Infof("User %s logged in", result.User.ID.Hex())
	writeJSON(w, http.StatusOK, result)
}

// GET /api/users
func (h *UserHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GET /api/users/{id}
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateUserHandler handles PUT /api/users/{id}.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req services.UpdateUserInput
	if !decode(w, r, &req) {
		return
	}

	user, err := h.Service.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "Failed to update user")
		return
	}
	logger.Log.Infof("User %s updated", id)
	writeJSON(w, http.StatusOK, user)
}

// DeleteUserHandler handles DELETE /api/users/{id}.
func (h *UserHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete user")
		return
	}
	logger.Log.Infof("User %s deleted", id)
	writeMessage(w, http.StatusOK, "User deleted")
}

// GET /api/users/{id}/contacts-with-last-message
func (h *UserHandler) ContactsHandler(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Service.ContactsWithLastMessage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// POST|PATCH /api/users/{id}/request
func (h *UserHandler) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvitedUserID string `json:"invitedUserId"`
	}
	if !decode(w, r, &req) {
		return
	}
	fromID := mux.Vars(r)["id"]
	if err := h.Connections.SendRequest(r.Context(), fromID, req.InvitedUserID); err != nil {
		writeError(w, err, "Failed to send request")
		return
	}
	logger.Log.Infof("User %s sent a connection request to %s", fromID, req.InvitedUserID)
	writeMessage(w, http.StatusOK, "Request sent")
}

// POST /api/users/accept-request
func (h *UserHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Connections.AcceptRequest(r.Context(), req.FromID, req.ToID); err != nil {
		writeError(w, err, "Server error accepting request")
		return
	}
	logger.Log.Infof("Users %s and %s are now connected", req.FromID, req.ToID)
	writeMessage(w, http.StatusOK, "Request accepted")
}

// POST /api/users/remove-request
func (h *UserHandler) RemoveRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Connections.RemoveRequest(r.Context(), req.FromID, req.ToID); err != nil {
		writeError(w, err, "Server error removing request")
		return
	}
	logger.Log.Infof("Request between %s and %s removed", req.FromID, req.ToID)
	writeMessage(w, http.StatusOK, "Request removed")
}

// POST /api/users/remove-connection
func (h *UserHandler) RemoveConnectionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		OtherID string `json:"otherId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Connections.RemoveConnection(r.Context(), req.UserID, req.OtherID); err != nil {
		writeError(w, err, "Server error removing connection")
		return
	}
	logger.Log.Infof("Connection between %s and %s removed", req.UserID, req.OtherID)
	writeMessage(w, http.StatusOK, "Connection removed")
}
