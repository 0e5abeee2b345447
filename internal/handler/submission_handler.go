package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hshinosa/kompetensia-api/internal/dto"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/service"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
	"github.com/hshinosa/kompetensia-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, actor models.Actor, enrollmentID string, req dto.SubmitRequest) (*models.Submission, error)
	List(ctx context.Context, actor models.Actor, enrollmentID string) ([]models.Submission, error)
}

type gradingService interface {
	Grade(ctx context.Context, actor models.Actor, submissionID string, req dto.GradeRequest) (*models.Submission, error)
}

type documentService interface {
	Upload(ctx context.Context, actor models.Actor, upload service.DocumentUpload) (*models.DocumentRef, error)
	SignedURL(ctx context.Context, actor models.Actor, submissionID string) (string, time.Time, error)
	Download(ctx context.Context, submissionID, token string) (*service.DocumentDownload, error)
	Discard(ctx context.Context, actor models.Actor, relPath string) error
}

// SubmissionHandler manages task submissions and their documents.
type SubmissionHandler struct {
	submissions submissionService
	grading     gradingService
	documents   documentService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions submissionService, grading gradingService, documents documentService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, grading: grading, documents: documents}
}

// Submit godoc
// @Summary Submit a task artifact
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.SubmitRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id}/submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	submission, err := h.submissions.Submit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary List submissions of an enrollment
// @Tags Submissions
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.submissions.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Description Re-grading overwrites the previous verdict.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.GradeRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/grade [post]
func (h *SubmissionHandler) Grade(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.GradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	submission, err := h.grading.Grade(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// UploadDocument godoc
// @Summary Upload a submission document
// @Description Returns the document reference to pass in the submission payload.
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Param participant_id formData string false "Owner, admins only"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /submissions/documents [post]
func (h *SubmissionHandler) UploadDocument(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if h.documents == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "document storage not configured"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, "file is required", map[string]string{"file": "required"}))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close() //nolint:errcheck

	ref, err := h.documents.Upload(c.Request.Context(), actor, service.DocumentUpload{
		Filename:      fileHeader.Filename,
		ParticipantID: strings.TrimSpace(c.PostForm("participant_id")),
		Content:       src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ref)
}

// DiscardDocument godoc
// @Summary Discard an uploaded document
// @Description Only documents not yet referenced by a submission can be discarded.
// @Tags Submissions
// @Param path query string true "Document reference path"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /submissions/documents [delete]
func (h *SubmissionHandler) DiscardDocument(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if h.documents == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "document storage not configured"))
		return
	}
	relPath := strings.TrimSpace(c.Query("path"))
	if relPath == "" {
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, "path is required", map[string]string{"path": "required"}))
		return
	}
	if err := h.documents.Discard(c.Request.Context(), actor, relPath); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DocumentURL godoc
// @Summary Get a signed download link for a submission document
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/document-url [get]
func (h *SubmissionHandler) DocumentURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if h.documents == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "document storage not configured"))
		return
	}
	url, expiresAt, err := h.documents.SignedURL(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DocumentURLResponse{URL: url, ExpiresAt: expiresAt.UTC().Format(time.RFC3339)}, nil)
}

// Download godoc
// @Summary Download a submission document via signed token
// @Tags Submissions
// @Produce octet-stream
// @Param id path string true "Submission ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /submissions/{id}/document [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	if h.documents == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "document storage not configured"))
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.documents.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.Size, result.MIME, result.File, nil)
}
