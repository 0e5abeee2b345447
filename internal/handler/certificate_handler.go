package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hshinosa/kompetensia-api/internal/dto"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/pkg/response"
)

type assessmentService interface {
	Record(ctx context.Context, actor models.Actor, enrollmentID string, req dto.AssessmentRequest) (*models.Assessment, error)
	Get(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Assessment, error)
}

type certificateService interface {
	Issue(ctx context.Context, actor models.Actor, enrollmentID string, req dto.IssueCertificateRequest) (*models.Certificate, error)
	Get(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Certificate, error)
}

// CertificateHandler serves the overall assessment and certificate of an
// enrollment.
type CertificateHandler struct {
	assessments  assessmentService
	certificates certificateService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(assessments assessmentService, certificates certificateService) *CertificateHandler {
	return &CertificateHandler{assessments: assessments, certificates: certificates}
}

// RecordAssessment godoc
// @Summary Record the overall assessment of an enrollment
// @Tags Certificates
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.AssessmentRequest true "Assessment"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/assessment [put]
func (h *CertificateHandler) RecordAssessment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AssessmentRequest
	if !bindJSON(c, &req, "invalid assessment payload") {
		return
	}
	assessment, err := h.assessments.Record(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// GetAssessment godoc
// @Summary Get the overall assessment of an enrollment
// @Tags Certificates
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/assessment [get]
func (h *CertificateHandler) GetAssessment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	assessment, err := h.assessments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Issue godoc
// @Summary Issue the certificate of a completed enrollment
// @Tags Certificates
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.IssueCertificateRequest true "Certificate"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/certificate [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.IssueCertificateRequest
	if !bindJSON(c, &req, "invalid certificate payload") {
		return
	}
	certificate, err := h.certificates.Issue(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, certificate)
}

// GetCertificate godoc
// @Summary Get the certificate of an enrollment
// @Tags Certificates
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/certificate [get]
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	certificate, err := h.certificates.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}
