package handlers

import (
	"net/http"

	"github.com/Dias221467/groupchat/pkg/logger"
	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	Service NotificationService
}

func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /api/notifications?userId=
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Service.ListForUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err, "Failed to get notifications")
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !decode(w, r, &req) {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.Service.MarkRead(r.Context(), id, req.UserID); err != nil {
		writeError(w, err, "Failed to mark as read")
		return
	}
	logger.Log.Infof("Notification %s marked read by %s", id, req.UserID)
	writeMessage(w, http.StatusOK, "Notification marked as read")
}
