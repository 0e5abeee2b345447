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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/handler"
	"github.com/hshinosa/kompetensia-api/internal/middleware"
	"github.com/hshinosa/kompetensia-api/internal/repository"
	"github.com/hshinosa/kompetensia-api/internal/service"
	"github.com/hshinosa/kompetensia-api/pkg/cache"
	"github.com/hshinosa/kompetensia-api/pkg/config"
	"github.com/hshinosa/kompetensia-api/pkg/database"
	"github.com/hshinosa/kompetensia-api/pkg/export"
	"github.com/hshinosa/kompetensia-api/pkg/logger"
	"github.com/hshinosa/kompetensia-api/pkg/mailer"
	corsmiddleware "github.com/hshinosa/kompetensia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hshinosa/kompetensia-api/pkg/middleware/requestid"
	"github.com/hshinosa/kompetensia-api/pkg/storage"
)

// @title Kompetensia API
// @version 1.0.0
// @description Enrollment, submission, grading and certification lifecycle for certification and internship programs.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Profiles.CacheEnabled {
		var client *redis.Client
		client, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, profile cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, "kompetensia")
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Profiles.CacheTTL, logr, cacheRepo != nil)

	notifications := newNotificationService(cfg, metrics, logr)
	notifications.Start(ctx)
	defer notifications.Stop()

	docStore, err := storage.NewLocalStorage(cfg.Submissions.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Submissions.SignedURLSecret, cfg.Submissions.SignedURLTTL)

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	programRepo := repository.NewProgramRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	validate := service.NewValidator()
	progressSvc := service.NewProgressService(enrollmentRepo, submissionRepo, assessmentRepo, cfg.Location(), logr)
	profileSvc := service.NewProfileService(participantRepo, cacheSvc, cfg.Profiles.CacheTTL, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, programRepo, auditRepo, validate, logr,
		service.WithEnrollmentDetailSources(profileSvc, progressSvc),
		service.WithEnrollmentNotifier(notifications),
		service.WithEnrollmentMetrics(metrics),
	)
	submissionSvc := service.NewSubmissionService(submissionRepo, enrollmentRepo, auditRepo, metrics, validate, logr)
	gradingSvc := service.NewGradingService(submissionRepo, enrollmentRepo, auditRepo, notifications, metrics, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, enrollmentRepo, auditRepo, validate, logr)
	certificateSvc := service.NewCertificateService(certificateRepo, enrollmentRepo, progressSvc, auditRepo, notifications, metrics, validate, logr)
	documentSvc := service.NewDocumentService(docStore, signer, submissionRepo, enrollmentRepo, logr, service.DocumentServiceConfig{
		MaxFileSize:  cfg.Submissions.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Submissions.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})
	recapSvc := service.NewRecapService(progressSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	auditSvc := service.NewAuditService(auditRepo, logr)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	registerRoutes(r, cfg, routeHandlers{
		auth:         middleware.JWT(authSvc),
		metrics:      handler.NewMetricsHandler(metrics, db),
		enrollments:  handler.NewEnrollmentHandler(enrollmentSvc, progressSvc, recapSvc),
		submissions:  handler.NewSubmissionHandler(submissionSvc, gradingSvc, documentSvc),
		certificates: handler.NewCertificateHandler(assessmentSvc, certificateSvc),
		audit:        handler.NewAuditHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newNotificationService(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.NotificationService {
	workerCfg := service.NotificationServiceConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: 2 * time.Second,
	}
	if !cfg.Notifications.Enabled {
		return service.NewNotificationService(nil, metrics, logr, workerCfg)
	}
	smtp, err := mailer.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logr.Warn("notifications enabled but smtp is not configured", zap.Error(err))
		return service.NewNotificationService(nil, metrics, logr, workerCfg)
	}
	return service.NewNotificationService(smtp, metrics, logr, workerCfg)
}
