package handlers

import (
	"net/http"

	"github.com/Dias221467/groupchat/pkg/logger"
)

// MessageHandler serves private messages and visibility-scoped deletion.
type MessageHandler struct {
	Service MessageService
}

func NewMessageHandler(service MessageService) *MessageHandler {
	return &MessageHandler{Service: service}
}

// POST /api/users/delete-multiple
func (h *MessageHandler) DeleteMultipleHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs         []string `json:"ids"`
		UserID      string   `json:"userId"`
		ForEveryone bool     `json:"forEveryone"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.DeleteMultiple(r.Context(), req.IDs, req.UserID, req.ForEveryone); err != nil {
		writeError(w, err, "Failed to delete messages")
		return
	}
	logger.Log.Infof("Deleted %d messages (forEveryone=%t)", len(req.IDs), req.ForEveryone)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /api/messages/private?userId=&peerId=
func (h *MessageHandler) ListPrivateHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	msgs, err := h.Service.ListPrivate(r.Context(), q.Get("userId"), q.Get("peerId"))
	if err != nil {
		writeError(w, err, "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// POST /api/messages/private
func (h *MessageHandler) SendPrivateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Message    string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.Service.SendPrivate(r.Context(), req.SenderID, req.ReceiverID, req.Message)
	if err != nil {
		writeError(w, err, "Failed to send message")
		return
	}
	logger.Log.Infof("User %s sent message %s to %s", req.SenderID, msg.ID.Hex(), req.ReceiverID)
	writeJSON(w, http.StatusCreated, msg)
}
