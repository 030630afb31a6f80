// Package main runs the event invitation HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/convivo/backend/config"
	"github.com/convivo/backend/internal/auth"
	"github.com/convivo/backend/internal/dashboard"
	"github.com/convivo/backend/internal/dispatch"
	"github.com/convivo/backend/internal/events"
	"github.com/convivo/backend/internal/evolution"
	"github.com/convivo/backend/internal/guests"
	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/internal/messages"
	"github.com/convivo/backend/internal/middleware"
	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/internal/rsvp"
	"github.com/convivo/backend/internal/templates"
	"github.com/convivo/backend/internal/webhooks"
	"github.com/convivo/backend/pkg/database"
	"github.com/convivo/backend/pkg/queue"
	"github.com/convivo/backend/pkg/redis"
	"github.com/convivo/backend/pkg/response"
	"github.com/convivo/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	var provider evolution.Client
	if cfg.Evolution.BaseURL != "" {
		provider = evolution.NewHTTPClient(evolution.Config{
			BaseURL:       cfg.Evolution.BaseURL,
			Token:         cfg.Evolution.Token,
			WebhookSecret: cfg.Evolution.WebhookSecret,
			WebhookBase:   cfg.Evolution.WebhookBase,
		}, logger)
	} else {
		logger.Warn("evolution provider not configured, instance provisioning and dispatch disabled")
	}

	// Repositories
	authRepo := auth.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	registry := instances.NewRegistry(pool, logger)
	eventRepo := events.NewRepository(pool)
	guestRepo := guests.NewRepository(pool)
	templateRepo := templates.NewRepository(pool)
	messageRepo := messages.NewRepository(pool)
	rsvpRepo := rsvp.NewRepository(pool)
	dashboardRepo := dashboard.NewRepository(pool)

	jobQueue := queue.NewQueue(rdb.Client, logger)

	orchestrator := dispatch.NewOrchestrator(guestRepo, registry, provider, dispatch.Config{
		Workers:       cfg.Dispatch.Workers,
		SendTimeout:   time.Duration(cfg.Dispatch.SendTimeoutSec) * time.Second,
		PublicBaseURL: cfg.Server.PublicBaseURL,
	}, logger)

	// Handlers
	authHandler := auth.NewHandler(authRepo, orgRepo, registry, provider, jwtService, logger)
	eventHandler := events.NewHandler(eventRepo, s3Client, logger)
	guestHandler := guests.NewHandler(guestRepo, eventRepo, logger)
	templateHandler := templates.NewHandler(templateRepo, logger)
	messageHandler := messages.NewHandler(messageRepo, eventRepo, templateRepo, orchestrator, jobQueue, logger)
	rsvpHandler := rsvp.NewHandler(rsvpRepo, eventRepo, logger)
	dashboardHandler := dashboard.NewHandler(dashboardRepo, logger)
	webhookHandler := webhooks.NewHandler(cfg.Evolution.WebhookSecret, registry, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Provider webhook (no JWT; shared secret + org scoping in handler)
	router.POST("/webhooks/evolution", webhookHandler.Receive)

	// Public RSVP
	router.GET("/public/rsvp/:token", rsvpHandler.Show)
	router.POST("/public/rsvp/confirm", rsvpHandler.Confirm)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	jwtValidate := func(token string) (uuid.UUID, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return claims.UserID, claims.Email, nil
	}

	// Protected API (JWT + org scoping)
	api := router.Group("")
	api.Use(middleware.JWT(jwtValidate))
	api.GET("/me", authHandler.Me)
	api.Use(organizations.RequireOrg(orgRepo))
	{
		api.GET("/dashboard", dashboardHandler.Get)

		// Events
		api.POST("/events", eventHandler.Create)
		api.GET("/events", eventHandler.List)
		api.GET("/events/:id", eventHandler.Get)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/cover", eventHandler.UploadCover)

		// Guests
		api.POST("/guests", guestHandler.Create)
		api.GET("/events/:id/guests", guestHandler.ListByEvent)
		api.DELETE("/guests/:id", guestHandler.Delete)

		// Templates
		api.POST("/templates", templateHandler.Create)
		api.GET("/templates", templateHandler.List)
		api.GET("/templates/:id", templateHandler.Get)
		api.PATCH("/templates/:id", templateHandler.Update)
		api.DELETE("/templates/:id", templateHandler.Delete)

		// Messaging
		api.POST("/messages/send", messageHandler.Send)
		api.GET("/events/:id/messages", messageHandler.ListByEvent)
		api.POST("/events/:id/reminders", messageHandler.Remind)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
