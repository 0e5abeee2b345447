package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/pkg/response"
)

const defaultHistoryLimit = 50

type auditService interface {
	History(ctx context.Context, actor models.Actor, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail of enrollments and submissions.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// EnrollmentHistory godoc
// @Summary Audit trail of an enrollment
// @Tags Audit
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/history [get]
func (h *AuditHandler) EnrollmentHistory(c *gin.Context) {
	h.history(c, models.AuditResourceEnrollment)
}

// SubmissionHistory godoc
// @Summary Audit trail of a submission
// @Tags Audit
// @Produce json
// @Param id path string true "Submission ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/history [get]
func (h *AuditHandler) SubmissionHistory(c *gin.Context) {
	h.history(c, models.AuditResourceSubmission)
}

func (h *AuditHandler) history(c *gin.Context, resource string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	logs, err := h.service.History(c.Request.Context(), actor, resource, c.Param("id"), queryLimit(c, defaultHistoryLimit))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
