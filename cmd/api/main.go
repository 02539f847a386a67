package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/adoptapaw/backend/internal/config"
	"github.com/adoptapaw/backend/internal/repository/postgres"
	"github.com/adoptapaw/backend/internal/repository/redis"
	"github.com/adoptapaw/backend/internal/service/chat"
	"github.com/adoptapaw/backend/internal/service/cleanup"
	"github.com/adoptapaw/backend/internal/service/session"
	transportHttp "github.com/adoptapaw/backend/internal/transport/http"
	"github.com/adoptapaw/backend/internal/transport/http/middleware"
	"github.com/adoptapaw/backend/internal/transport/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()

	db, err := postgres.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Redis holds the credential store and blacklist; auth fails closed
	// without it, so it is a hard startup dependency.
	if err := redis.InitRedis(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.CloseRedis()

	// Repositories (Persistence Layer)
	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	messageRepo := postgres.NewMessageRepo(db)
	conversationRepo := postgres.NewConversationRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	credentialStore := redis.NewCredentialStore(redis.RedisClient, cfg.RefreshTokenTTL, cfg.MaxSessionsPerUser)
	blacklist := redis.NewBlacklist(redis.RedisClient, cfg.AccessTokenTTL)

	// Services (Business Logic Layer)
	authService := session.NewAuthService(userRepo, credentialStore, blacklist, sessionRepo)

	// The hub is constructed here and handed to everything that pushes
	// events; there is no lazily-created global gateway handle.
	hub := websocket.NewHub()
	chatService := chat.NewService(messageRepo, conversationRepo, notificationRepo, userRepo, hub)

	// Background workers
	cleanupWorker := cleanup.NewWorker(sessionRepo)
	cleanupWorker.Start()

	// HTTP Handlers (API Layer)
	authHandler := transportHttp.NewAuthHandler(userRepo, authService)
	chatHandler := transportHttp.NewChatHandler(chatService)
	notificationHandler := transportHttp.NewNotificationHandler(chatService)
	wsHandler := websocket.NewHandler(hub, authService)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware())

	authMW := middleware.AuthMiddleware(authService)

	// Public Auth Routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/refresh", authHandler.Refresh)

	// Protected Routes
	protected := router.Group("/")
	protected.Use(authMW)
	{
		protected.POST("/api/auth/logout", authHandler.Logout)
		protected.GET("/api/auth/verify", authHandler.Verify)
		protected.GET("/api/auth/sessions", authHandler.GetSessionHistory)

		protected.POST("/api/messages", chatHandler.SendMessage)
		protected.GET("/api/messages/conversations", chatHandler.ListConversations)
		protected.GET("/api/messages/conversation/:userId", chatHandler.GetConversation)
		protected.PUT("/api/messages/read/:userId", chatHandler.MarkConversationRead)
		protected.GET("/api/messages/unread-count", chatHandler.GetUnreadCount)

		protected.GET("/api/notifications", notificationHandler.List)
		protected.PUT("/api/notifications/:id/read", notificationHandler.MarkRead)
		protected.PUT("/api/notifications/read-all", notificationHandler.MarkAllRead)
		protected.DELETE("/api/notifications/:id", notificationHandler.Delete)
	}

	// WebSocket Route (auth handled inside the handler, before upgrade)
	router.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
