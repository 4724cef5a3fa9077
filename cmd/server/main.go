// Package main runs the summer camp registration HTTP server with graceful
// shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/summercamp/backend/config"
	"github.com/summercamp/backend/internal/ateliers"
	"github.com/summercamp/backend/internal/auth"
	"github.com/summercamp/backend/internal/cleanup"
	"github.com/summercamp/backend/internal/confirmation"
	"github.com/summercamp/backend/internal/email"
	"github.com/summercamp/backend/internal/emaillogs"
	"github.com/summercamp/backend/internal/inscriptions"
	"github.com/summercamp/backend/internal/middleware"
	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/internal/worker"
	"github.com/summercamp/backend/pkg/database"
	"github.com/summercamp/backend/pkg/queue"
	"github.com/summercamp/backend/pkg/redis"
	"github.com/summercamp/backend/pkg/response"
	"github.com/summercamp/backend/pkg/storage"
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

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		PreuvesBucket:   cfg.AWS.PreuvesBucket,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth (admin back office)
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	if err := auth.EnsureAdmin(ctx, authRepo, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName, logger); err != nil {
		logger.Fatal("admin bootstrap", zap.Error(err))
	}

	// Email delivery
	sender := email.NewSender(email.Config{
		BaseURL:    cfg.EmailJS.BaseURL,
		ServiceID:  cfg.EmailJS.ServiceID,
		TemplateID: cfg.EmailJS.TemplateID,
		PublicKey:  cfg.EmailJS.PublicKey,
		FromName:   cfg.EmailJS.FromName,
		FromEmail:  cfg.EmailJS.FromEmail,
	}, &http.Client{Timeout: 15 * time.Second}, logger)

	emailLogsRepo := emaillogs.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, jobQueue, logger)

	// Cleanup of stale unverified registrations
	cleanupRepo := cleanup.NewRepository(pool)
	cleanupSvc := cleanup.NewService(cleanupRepo, cfg.Cleanup.Interval(), logger)

	// Registrations
	inscriptionRepo := inscriptions.NewRepository(pool)
	inscriptionHandler := inscriptions.NewHandler(inscriptions.Deps{
		Store:   inscriptionRepo,
		Storage: s3Client,
		Sender:  sender,
		Cleaner: cleanupSvc,
		Journal: emailLogsRepo,
		BaseURL: cfg.Server.PublicBaseURL,
		Logger:  logger,
	})
	confirmationHandler := confirmation.NewHandler(inscriptionRepo, logger)
	ateliersHandler := ateliers.NewHandler()

	// Email resend worker
	emailProcessor := worker.NewEmailProcessor(jobQueue, inscriptionRepo, sender, emailLogsRepo, cfg.Server.PublicBaseURL, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public
	router.GET("/ateliers", ateliersHandler.List)
	router.POST("/inscriptions",
		middleware.RateLimit(rdb.Client, cfg.Cleanup.RateLimitPerMin, time.Minute, logger),
		inscriptionHandler.Register)
	router.GET(inscriptions.ConfirmationPath, confirmationHandler.Confirm)
	router.GET("/confirm", confirmationHandler.Confirm)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Protected API (admin JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService), middleware.RequireRole(models.RoleAdmin))
	{
		api.GET("/inscriptions", inscriptionHandler.List)
		api.GET("/inscriptions/unverified-count", inscriptionHandler.UnverifiedCount)
		api.GET("/inscriptions/:id", inscriptionHandler.GetByID)
		api.GET("/emails", emailLogsHandler.List)
		api.POST("/emails/resend", emailLogsHandler.Resend)
		api.POST("/cleanup/run", func(c *gin.Context) {
			deleted, err := cleanupSvc.Cleanup(c.Request.Context())
			if err != nil {
				response.Internal(c, "cleanup failed")
				return
			}
			response.OK(c, gin.H{"deleted_count": deleted})
		})
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background loops: periodic cleanup and email resend consumer
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go cleanupSvc.Run(workerCtx)
	go emailProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
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
