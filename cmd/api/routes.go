package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hshinosa/kompetensia-api/api/swagger"
	"github.com/hshinosa/kompetensia-api/internal/handler"
	"github.com/hshinosa/kompetensia-api/internal/middleware"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/pkg/config"
)

type routeHandlers struct {
	auth         gin.HandlerFunc
	metrics      *handler.MetricsHandler
	enrollments  *handler.EnrollmentHandler
	submissions  *handler.SubmissionHandler
	certificates *handler.CertificateHandler
	audit        *handler.AuditHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Signed download links carry their own token.
	api.GET("/submissions/:id/document", h.submissions.Download)

	secured := api.Group("")
	secured.Use(h.auth)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleMentor)
	everyone := middleware.RequireRoles(models.RoleAdmin, models.RoleMentor, models.RoleParticipant)
	applicants := middleware.RequireRoles(models.RoleAdmin, models.RoleParticipant)

	enrollments := secured.Group("/enrollments")
	enrollments.POST("", applicants, h.enrollments.Apply)
	enrollments.GET("", staff, h.enrollments.List)
	enrollments.GET("/:id", everyone, h.enrollments.Get)
	enrollments.POST("/:id/decision", admin, h.enrollments.Decide)
	enrollments.PUT("/:id/schedule", admin, h.enrollments.Schedule)
	enrollments.GET("/:id/progress", everyone, h.enrollments.Progress)
	enrollments.GET("/:id/recap", staff, h.enrollments.Recap)
	enrollments.GET("/:id/history", admin, h.audit.EnrollmentHistory)
	enrollments.POST("/:id/submissions", middleware.RequireRoles(models.RoleParticipant), h.submissions.Submit)
	enrollments.GET("/:id/submissions", everyone, h.submissions.List)
	enrollments.PUT("/:id/assessment", admin, h.certificates.RecordAssessment)
	enrollments.GET("/:id/assessment", staff, h.certificates.GetAssessment)
	enrollments.POST("/:id/certificate", admin, h.certificates.Issue)
	enrollments.GET("/:id/certificate", everyone, h.certificates.GetCertificate)

	submissions := secured.Group("/submissions")
	submissions.POST("/documents", applicants, h.submissions.UploadDocument)
	submissions.DELETE("/documents", applicants, h.submissions.DiscardDocument)
	submissions.GET("/:id/document-url", everyone, h.submissions.DocumentURL)
	submissions.POST("/:id/grade", staff, h.submissions.Grade)
	submissions.GET("/:id/history", admin, h.audit.SubmissionHistory)
}
