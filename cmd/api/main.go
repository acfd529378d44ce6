package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unishare/unishare-api/api/swagger"
	"github.com/unishare/unishare-api/internal/handler"
	"github.com/unishare/unishare-api/internal/middleware"
	"github.com/unishare/unishare-api/internal/repository"
	"github.com/unishare/unishare-api/internal/service"
	"github.com/unishare/unishare-api/pkg/cache"
	"github.com/unishare/unishare-api/pkg/config"
	"github.com/unishare/unishare-api/pkg/database"
	"github.com/unishare/unishare-api/pkg/jobs"
	"github.com/unishare/unishare-api/pkg/logger"
	"github.com/unishare/unishare-api/pkg/mailer"
	corsmiddleware "github.com/unishare/unishare-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unishare/unishare-api/pkg/middleware/requestid"
	"github.com/unishare/unishare-api/pkg/storage"
)

// @title UniShare API
// @version 1.0.0
// @description University resource-sharing platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	}

	blobs, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	exportBlobs, err := storage.NewLocalStorage(cfg.Uploads.StorageDir + "/exports")
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	// Repositories.
	users := repository.NewUserRepository(db)
	documents := repository.NewDocumentRepository(db)
	universities := repository.NewUniversityRepository(db)
	approvals := repository.NewApprovalRepository(db)
	ratings := repository.NewRatingRepository(db)
	comments := repository.NewCommentRepository(db)
	follows := repository.NewFollowRepository(db)
	grades := repository.NewGradeRepository(db)
	notifications := repository.NewNotificationRepository(db)
	dashboards := repository.NewDashboardRepository(db)

	// Shared infrastructure.
	metricsService := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	docSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	exportSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, 24*time.Hour)

	mail := mailer.New(mailer.Config{
		FromName:    cfg.Email.FromName,
		FromAddress: cfg.Email.FromAddress,
		SendgridKey: cfg.Email.SendgridKey,
	}, logr)

	guard := service.NewGuard(users, logr)
	gamification := service.NewGamificationService(users, cfg.Gamification, logr)

	notificationService := service.NewNotificationService(notifications, users, mail, jobs.QueueConfig{
		Workers:    cfg.Outbox.Workers,
		MaxRetries: cfg.Outbox.MaxRetries,
		RetryDelay: cfg.Outbox.RetryDelay,
	}, cfg.Email.Enabled, logr)

	authService := service.NewAuthService(users, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "unishare-api",
	})

	documentService := service.NewDocumentService(documents, users, universities, approvals, grades,
		blobs, docSigner, guard, notificationService, gamification, cacheService, nil,
		cfg.Uploads, cfg.APIPrefix, logr)
	approvalService := service.NewApprovalService(approvals, users, universities, documents,
		guard, notificationService, gamification, cacheService, nil, logr)
	ratingService := service.NewRatingService(ratings, documents, guard, gamification, nil, logr)
	commentService := service.NewCommentService(comments, documents, guard, notificationService, nil, logr)
	followService := service.NewFollowService(follows, users, guard, notificationService, gamification, logr)
	gradeService := service.NewGradeService(grades, guard, logr)
	userService := service.NewUserService(users, universities, guard, gamification, nil, logr)
	universityService := service.NewUniversityService(universities, users, guard, nil, logr)
	dashboardService := service.NewDashboardService(dashboards, universities, approvals, grades,
		documents, users, guard, gamification, cacheService, cfg.Dashboard, logr)
	exportService := service.NewExportService(documents, users, exportBlobs, exportSigner, guard,
		service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr, nil, nil)

	// Outbox workers: recover rows left pending by a previous crash, then start.
	notificationService.Start(ctx)
	defer notificationService.Stop()
	if err := notificationService.RecoverPending(ctx); err != nil {
		logr.Sugar().Warnw("failed to recover pending outbox entries", "error", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	metricsHandler := handler.NewMetricsHandler(metricsService)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Users:         handler.NewUserHandler(userService, gamification),
		Documents:     handler.NewDocumentHandler(documentService),
		Interactions:  handler.NewInteractionHandler(ratingService, commentService, followService),
		Grades:        handler.NewGradeHandler(gradeService),
		Approvals:     handler.NewApprovalHandler(approvalService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Universities:  handler.NewUniversityHandler(universityService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Exports:       handler.NewExportHandler(exportService),
		Metrics:       metricsHandler,
	}, authService, users)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
