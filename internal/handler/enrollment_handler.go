package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hshinosa/kompetensia-api/internal/dto"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/service"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
	"github.com/hshinosa/kompetensia-api/pkg/response"
)

type enrollmentService interface {
	Apply(ctx context.Context, actor models.Actor, req dto.ApplyRequest) (*models.Enrollment, error)
	Decide(ctx context.Context, actor models.Actor, id string, req dto.DecideRequest) (*models.Enrollment, error)
	Schedule(ctx context.Context, actor models.Actor, id string, req dto.ScheduleRequest) (*models.Enrollment, error)
	Detail(ctx context.Context, actor models.Actor, id string) (*models.EnrollmentDetail, error)
	List(ctx context.Context, actor models.Actor, query dto.EnrollmentQuery) ([]models.Enrollment, *models.Pagination, error)
}

type progressService interface {
	ProjectFor(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Projection, error)
}

type recapService interface {
	Recap(ctx context.Context, actor models.Actor, enrollmentID, format string) (*service.RecapFile, error)
}

// EnrollmentHandler exposes the enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	progress    progressService
	recaps      recapService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(enrollments enrollmentService, progress progressService, recaps recapService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, progress: progress, recaps: recaps}
}

// Apply godoc
// @Summary Apply to a program
// @Description Participants apply for themselves. Admins must pass participant_id.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.ApplyRequest true "Application form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Apply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ApplyRequest
	if !bindJSON(c, &req, "invalid application payload") {
		return
	}
	enrollment, err := h.enrollments.Apply(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param participant_id query string false "Participant filter"
// @Param program_id query string false "Program filter"
// @Param track query string false "CERTIFICATION or INTERNSHIP"
// @Param status query string false "APPLIED, APPROVED or REJECTED"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.EnrollmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	items, pagination, err := h.enrollments.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get enrollment with participant profile and progress
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	detail, err := h.enrollments.Detail(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Decide godoc
// @Summary Approve or reject an application
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.DecideRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id}/decision [post]
func (h *EnrollmentHandler) Decide(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.DecideRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	enrollment, err := h.enrollments.Decide(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Schedule godoc
// @Summary Set the internship date window
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.ScheduleRequest true "Window"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/schedule [put]
func (h *EnrollmentHandler) Schedule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	enrollment, err := h.enrollments.Schedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Progress godoc
// @Summary Project the current phase of an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/progress [get]
func (h *EnrollmentHandler) Progress(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	projection, err := h.progress.ProjectFor(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projection, nil)
}

// Recap godoc
// @Summary Export the progress recap of an enrollment
// @Tags Enrollments
// @Produce octet-stream
// @Param id path string true "Enrollment ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /enrollments/{id}/recap [get]
func (h *EnrollmentHandler) Recap(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if h.recaps == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "recap export not configured"))
		return
	}
	file, err := h.recaps.Recap(c.Request.Context(), actor, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
