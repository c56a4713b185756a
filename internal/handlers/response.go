package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/groupchat/internal/services"
	"github.com/Dias221467/groupchat/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps a service error to its status code. Precondition
// failures carry their own message; anything else is logged and reported
// with fallback.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		logger.Log.Warnf("Request rejected: %s", services.Message(err))
		writeMessage(w, http.StatusBadRequest, services.Message(err))
	case errors.Is(err, services.ErrNotFound):
		logger.Log.Warnf("Not found: %s", services.Message(err))
		writeMessage(w, http.StatusNotFound, services.Message(err))
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, services.Message(err))
	default:
		logger.Log.WithError(err).Error(fallback)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
