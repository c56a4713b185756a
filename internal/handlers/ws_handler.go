package handlers

import (
	"net/http"

	"github.com/Dias221467/groupchat/internal/realtime"
	jwtutil "github.com/Dias221467/groupchat/pkg/jwt"
	"github.com/Dias221467/groupchat/pkg/logger"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WSHandler upgrades push connections and registers them with the hub.
type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
	upgrader  websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, jwtSecret string, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		Hub:       hub,
		JWTSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// GET /ws?token= or /ws?userId= when no secret is configured
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, status, msg := h.identify(r)
	if status != http.StatusOK {
		writeMessage(w, status, msg)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := realtime.NewClient(h.Hub, userID, conn)
	h.Hub.Register(client)
	logger.Log.Infof("WebSocket connected for user %s", userID)
	go client.WritePump()
	go client.ReadPump()
}

func (h *WSHandler) identify(r *http.Request) (string, int, string) {
	if h.JWTSecret == "" {
		userID := r.URL.Query().Get("userId")
		if _, err := primitive.ObjectIDFromHex(userID); err != nil {
			return "", http.StatusBadRequest, "Invalid userId"
		}
		return userID, http.StatusOK, ""
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		return "", http.StatusUnauthorized, "Missing token"
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		return "", http.StatusUnauthorized, "Invalid token"
	}
	return claims.UserID, http.StatusOK, ""
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
