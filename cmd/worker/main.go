// Package main runs the background job worker (RSVP reminder dispatch).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/convivo/backend/config"
	"github.com/convivo/backend/internal/dispatch"
	"github.com/convivo/backend/internal/events"
	"github.com/convivo/backend/internal/evolution"
	"github.com/convivo/backend/internal/guests"
	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/internal/messages"
	"github.com/convivo/backend/internal/templates"
	"github.com/convivo/backend/internal/worker"
	"github.com/convivo/backend/pkg/database"
	"github.com/convivo/backend/pkg/queue"
	"github.com/convivo/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	if cfg.Evolution.BaseURL == "" {
		logger.Fatal("EVOLUTION_BASE_URL is required for the reminder worker")
	}
	provider := evolution.NewHTTPClient(evolution.Config{
		BaseURL:       cfg.Evolution.BaseURL,
		Token:         cfg.Evolution.Token,
		WebhookSecret: cfg.Evolution.WebhookSecret,
		WebhookBase:   cfg.Evolution.WebhookBase,
	}, logger)

	eventRepo := events.NewRepository(pool)
	guestRepo := guests.NewRepository(pool)
	templateRepo := templates.NewRepository(pool)
	messageRepo := messages.NewRepository(pool)
	registry := instances.NewRegistry(pool, logger)

	orchestrator := dispatch.NewOrchestrator(guestRepo, registry, provider, dispatch.Config{
		Workers:       cfg.Dispatch.Workers,
		SendTimeout:   time.Duration(cfg.Dispatch.SendTimeoutSec) * time.Second,
		PublicBaseURL: cfg.Server.PublicBaseURL,
	}, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewReminderProcessor(jobQueue, eventRepo, templateRepo, guestRepo, messageRepo, orchestrator, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
