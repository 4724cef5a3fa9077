// Package main runs the background workers (periodic cleanup of unverified
// registrations and the confirmation email resend consumer) as a standalone
// process.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/summercamp/backend/config"
	"github.com/summercamp/backend/internal/cleanup"
	"github.com/summercamp/backend/internal/email"
	"github.com/summercamp/backend/internal/emaillogs"
	"github.com/summercamp/backend/internal/inscriptions"
	"github.com/summercamp/backend/internal/worker"
	"github.com/summercamp/backend/pkg/database"
	"github.com/summercamp/backend/pkg/queue"
	"github.com/summercamp/backend/pkg/redis"
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

	sender := email.NewSender(email.Config{
		BaseURL:    cfg.EmailJS.BaseURL,
		ServiceID:  cfg.EmailJS.ServiceID,
		TemplateID: cfg.EmailJS.TemplateID,
		PublicKey:  cfg.EmailJS.PublicKey,
		FromName:   cfg.EmailJS.FromName,
		FromEmail:  cfg.EmailJS.FromEmail,
	}, &http.Client{Timeout: 15 * time.Second}, logger)

	cleanupSvc := cleanup.NewService(cleanup.NewRepository(pool), cfg.Cleanup.Interval(), logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(jobQueue, inscriptions.NewRepository(pool), sender,
		emaillogs.NewRepository(pool), cfg.Server.PublicBaseURL, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleanupSvc.Run(workerCtx)
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
