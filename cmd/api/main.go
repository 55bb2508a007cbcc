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

	"estateline/internal/auth"
	"estateline/internal/commands"
	"estateline/internal/config"
	"estateline/internal/domain/conversation"
	"estateline/internal/domain/message"
	"estateline/internal/domain/notification"
	"estateline/internal/domain/outbox"
	"estateline/internal/domain/property"
	"estateline/internal/domain/user"
	"estateline/internal/handler"
	"estateline/internal/middleware"
	"estateline/internal/proxy"
	appredis "estateline/internal/redis"
	"estateline/internal/repository"
	"estateline/internal/services"
	"estateline/internal/storage"
	"estateline/internal/websocket"
	"estateline/pkg/database"
	"estateline/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&user.User{},
		&property.Property{},
		&conversation.Conversation{},
		&conversation.Participant{},
		&conversation.ConversationSequence{},
		&message.Message{},
		&message.MessageReceipt{},
		&message.Attachment{},
		&message.MessageAttachment{},
		&notification.Notification{},
		&outbox.OutboxEvent{},
	); err != nil {
		l.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := appredis.NewClient(cfg.Redis)
	publisher := appredis.NewPublisher(redisClient)
	subscriber := appredis.NewSubscriber(redisClient)
	presence := appredis.NewPresenceStore(redisClient, 2*time.Minute)
	limiter := appredis.NewRateLimiter(redisClient, appredis.DefaultRateLimitConfig())

	var s3Client *storage.Client
	if cfg.S3.Bucket != "" {
		s3Client, err = storage.NewClient(context.Background(), storage.S3Config{
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			PublicBase: cfg.S3.PublicBase,
			PresignTTL: cfg.S3.PresignTTL,
		})
		if err != nil {
			l.Fatalf("Failed to initialize object storage: %v", err)
		}
	} else {
		l.Warnf("S3_BUCKET not set, attachment uploads disabled")
	}

	tokenParser := auth.NewTokenParser(cfg.Auth.AccessTokenSecret)

	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	userRepo := repository.NewUserRepository(db)

	access := proxy.NewAccessControl(conversationRepo)
	bus := commands.NewBus()

	conversationSvc := services.NewConversationService(db, conversationRepo, messageRepo, outboxRepo, userRepo, access, bus, l)
	notificationSvc := services.NewNotificationService(notificationRepo, propertyRepo, conversationRepo, outboxRepo, l)
	readStateSvc := services.NewReadStateService(messageRepo, notificationRepo, access, cfg.Sync.PollIntervalSeconds)
	attachmentSvc := services.NewAttachmentService(messageRepo, s3Client)

	worker := services.NewOutboxWorker(outboxRepo, notificationSvc, publisher, l,
		cfg.Dispatch.PollInterval, cfg.Dispatch.BatchSize, cfg.Dispatch.MaxRetries)
	worker.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(subscriber, hub, l)
	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Errorf("Redis bridge stopped: %v", err)
		}
	}()

	wsHandler := websocket.NewHandler(tokenParser, hub, presence)
	threadHandler := handler.NewThreadHandler(conversationSvc, readStateSvc)
	messageHandler := handler.NewMessageHandler(conversationSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	syncHandler := handler.NewSyncHandler(readStateSvc)
	eventHandler := handler.NewEventHandler(notificationSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(l))
	r.Use(middleware.ErrorHandler(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", wsHandler.Connect)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(tokenParser))
	{
		api.POST("/threads", threadHandler.Ensure)
		api.GET("/threads", threadHandler.List)
		api.GET("/threads/:id/messages", threadHandler.Messages)
		api.POST("/threads/:id/read", threadHandler.MarkRead)

		api.POST("/messages", middleware.MessageRateLimitMiddleware(limiter), messageHandler.Send)
		api.PATCH("/messages/:id", messageHandler.Edit)
		api.DELETE("/messages/:id", messageHandler.Delete)

		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		api.DELETE("/notifications/:id", notificationHandler.Delete)

		api.GET("/sync", syncHandler.Sync)

		api.POST("/events/:type", middleware.EventRateLimitMiddleware(limiter), eventHandler.Submit)

		api.POST("/attachments/presign", attachmentHandler.Presign)
		api.GET("/attachments/:id/url", attachmentHandler.DownloadURL)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		l.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Infof("Shutting down")
	cancel()
	worker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf("Server shutdown: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		l.Errorf("Redis close: %v", err)
	}
}
