package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/groupchat/internal/config"
	"github.com/Dias221467/groupchat/internal/database"
	"github.com/Dias221467/groupchat/internal/events"
	"github.com/Dias221467/groupchat/internal/handlers"
	"github.com/Dias221467/groupchat/internal/jobs"
	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/Dias221467/groupchat/internal/realtime"
	"github.com/Dias221467/groupchat/internal/repository"
	cronjobs "github.com/Dias221467/groupchat/internal/scheduler"
	"github.com/Dias221467/groupchat/internal/services"
	"github.com/Dias221467/groupchat/pkg/logger"
	"github.com/Dias221467/groupchat/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	logger.Log.WithField("mode", events.PublisherMode(publisher)).Info("Audit publisher ready")

	hub := realtime.NewHub()

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txn := repository.NewTransactor(db)

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, hub, publisher)
	membershipService := services.NewMembershipService(groupRepo, userRepo, txn, notificationService, cfg.DefaultAvatar)
	connectionService := services.NewConnectionService(userRepo, txn, notificationService)
	messageService := services.NewMessageService(messageRepo, groupRepo, userRepo, txn, notificationService)
	userService := services.NewUserService(userRepo, messageRepo, txn, cfg.JWTSecret, cfg.TokenExpiry)

	// --- Handlers ---
	groupHandler := handlers.NewGroupHandler(membershipService, messageService)
	userHandler := handlers.NewUserHandler(userService, connectionService)
	messageHandler := handlers.NewMessageHandler(messageService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWSHandler(hub, cfg.JWTSecret, cfg.AllowedOrigins)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	// Group routes
	api.HandleFunc("/groups", groupHandler.ListGroupsHandler).Methods("GET")
	api.HandleFunc("/groups/create", groupHandler.CreateGroupHandler).Methods("POST")
	api.HandleFunc("/groups/leave-group", groupHandler.LeaveGroupHandler).Methods("POST")
	api.HandleFunc("/groups/{groupId}", groupHandler.GetGroupHandler).Methods("GET")
	api.HandleFunc("/groups/{groupId}/add-members", groupHandler.AddMembersHandler).Methods("POST")
	api.HandleFunc("/groups/{groupId}/join", groupHandler.JoinGroupHandler).Methods("POST")
	api.HandleFunc("/groups/{groupId}/accept-request", groupHandler.AcceptRequestHandler).Methods("POST")
	api.HandleFunc("/groups/{groupId}/reject-request", groupHandler.RejectRequestHandler).Methods("POST")
	api.HandleFunc("/groups/{groupId}/messages", groupHandler.ListMessagesHandler).Methods("GET")
	api.HandleFunc("/groups/{groupId}/messages", groupHandler.SendMessageHandler).Methods("POST")

	// User and connection routes
	api.HandleFunc("/users", userHandler.RegisterUserHandler).Methods("POST")
	api.HandleFunc("/users", userHandler.ListUsersHandler).Methods("GET")
	api.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")
	api.HandleFunc("/users/accept-request", userHandler.AcceptRequestHandler).Methods("POST")
	api.HandleFunc("/users/remove-request", userHandler.RemoveRequestHandler).Methods("POST")
	api.HandleFunc("/users/remove-connection", userHandler.RemoveConnectionHandler).Methods("POST")
	api.HandleFunc("/users/delete-multiple", messageHandler.DeleteMultipleHandler).Methods("POST")
	api.HandleFunc("/users/{id}", userHandler.GetUserHandler).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.UpdateUserHandler).Methods("PUT")
	api.HandleFunc("/users/{id}", userHandler.DeleteUserHandler).Methods("DELETE")
	api.HandleFunc("/users/{id}/contacts-with-last-message", userHandler.ContactsHandler).Methods("GET")
	api.HandleFunc("/users/{id}/request", userHandler.SendRequestHandler).Methods("POST", "PATCH")

	// Message routes
	api.HandleFunc("/messages/delete-multiple", messageHandler.DeleteMultipleHandler).Methods("POST")
	api.HandleFunc("/messages/private", messageHandler.ListPrivateHandler).Methods("GET")
	api.HandleFunc("/messages/private", messageHandler.SendPrivateHandler).Methods("POST")

	// Notification routes
	api.HandleFunc("/notifications", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")

	router.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")
	router.Handle("/metrics", observability.Handler()).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	sweeper := jobs.NewVisibilitySweeper(messageService)
	scheduler, err := cronjobs.StartCronJobs(sweeper, cfg.SweepSchedule)
	if err != nil {
		log.Fatalf("Invalid sweep schedule %q: %v", cfg.SweepSchedule, err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("Server running on port %s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Log.Info("Shutting down")

	<-scheduler.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := db.Client().Disconnect(ctx); err != nil {
		logger.Log.WithError(err).Warn("Mongo disconnect failed")
	}
}
