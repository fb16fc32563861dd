package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/auth"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/config"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/db"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/handlers"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/membership"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/messaging"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/middleware"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/observability"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/rabbitmq"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/telemetry"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/ws"
)

const serviceName = "chat-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.EventExchange); err != nil {
		log.Printf("event publisher disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.chat", serviceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(userRepo, tokens)

	hub := ws.NewHub()
	membershipSvc := membership.NewService(chatRepo, userRepo, hub)
	messagingSvc := messaging.NewService(chatRepo, messageRepo, hub)

	authHandler := handlers.NewAuthHandler(authSvc, audit)
	userHandler := handlers.NewUserHandler(userRepo, messagingSvc, audit)
	chatHandler := handlers.NewChatHandler(membershipSvc, audit)
	messageHandler := handlers.NewMessageHandler(messagingSvc, audit)
	wsHandler := ws.NewHandler(hub, chatRepo, authSvc)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authSvc)
	adminMiddleware := middleware.RequireAdmin()

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	router.GET("/users", authMiddleware, userHandler.ListUsers)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats", authMiddleware, chatHandler.CreateChat)
	router.GET("/chats/:chat_id", authMiddleware, chatHandler.GetChat)
	router.PATCH("/chats/:chat_id", authMiddleware, chatHandler.RenameChat)
	router.DELETE("/chats/:chat_id", authMiddleware, chatHandler.DeleteChat)
	router.POST("/chats/:chat_id/participants", authMiddleware, chatHandler.AddParticipant)
	router.DELETE("/chats/:chat_id/participants", authMiddleware, chatHandler.RemoveParticipant)
	router.POST("/chats/:chat_id/leave", authMiddleware, chatHandler.LeaveChat)

	router.GET("/chats/:chat_id/messages", authMiddleware, messageHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, messageHandler.PostChatMessage)
	router.PATCH("/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.PATCH("/admin/users/:user_id", authMiddleware, adminMiddleware, userHandler.UpdateUserModeration)
	router.PATCH("/admin/messages/:message_id/status", authMiddleware, adminMiddleware, userHandler.ModerateMessage)

	router.GET("/ws/chats/:chat_id", wsHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
