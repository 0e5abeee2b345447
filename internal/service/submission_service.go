package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/dto"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/repository"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

type submissionRepository interface {
	submissionLister
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Grade(ctx context.Context, params repository.GradeParams) (*models.Submission, error)
}

// SubmissionService records task artifacts against approved enrollments.
type SubmissionService struct {
	repo        submissionRepository
	enrollments enrollmentReader
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the service with defaults.
func NewSubmissionService(repo submissionRepository, enrollments enrollmentReader, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:        repo,
		enrollments: enrollments,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit appends a PENDING submission. The enrollment must be APPROVED and,
// for participants, their own.
func (s *SubmissionService) Submit(ctx context.Context, actor models.Actor, enrollmentID string, req dto.SubmitRequest) (*models.Submission, error) {
	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleParticipant && !actor.Role.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if enrollment.Status != models.EnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submissions require an approved enrollment")
	}

	req.ContentKind = normalizeEnum(req.ContentKind)
	req.Category = strings.TrimSpace(req.Category)
	req.LinkURL = trimmedPtr(req.LinkURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid submission")
	}
	kind := models.ContentKind(req.ContentKind)
	if err := checkContent(kind, req.Document, req.LinkURL); err != nil {
		return nil, err
	}
	if req.Document != nil && !ownsDocument(enrollment.ParticipantID, req.Document.Path) {
		return nil, fieldError("document was not uploaded for this participant", map[string]string{"document": "owner"})
	}

	submission := &models.Submission{
		EnrollmentID: enrollment.ID,
		Category:     req.Category,
		Title:        trimmedPtr(req.Title),
		Description:  trimmedPtr(req.Description),
		ContentKind:  kind,
		LinkURL:      req.LinkURL,
		SubmittedAt:  s.now().UTC(),
	}
	if req.Document != nil {
		path := strings.TrimSpace(req.Document.Path)
		size := req.Document.Size
		submission.DocumentPath = &path
		submission.DocumentSize = &size
		submission.DocumentMIME = trimmedPtr(&req.Document.MIME)
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submissions require an approved enrollment")
		}
		return nil, storageError(err, "failed to record submission")
	}

	s.metrics.RecordSubmission(kind)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionSubmissionCreate, models.AuditResourceSubmission, submission.ID, nil,
		map[string]interface{}{"enrollment_id": submission.EnrollmentID, "sequence": submission.Sequence, "category": submission.Category})
	return submission, nil
}

// List returns the submissions of an enrollment ordered by submission time.
func (s *SubmissionService) List(ctx context.Context, actor models.Actor, enrollmentID string) ([]models.Submission, error) {
	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.repo.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, storageError(err, "failed to list submissions")
	}
	return submissions, nil
}

// Get returns a single submission visible to the actor.
func (s *SubmissionService) Get(ctx context.Context, actor models.Actor, id string) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, storageError(err, "failed to load submission")
	}
	if _, err := loadEnrollment(ctx, s.enrollments, actor, submission.EnrollmentID); err != nil {
		return nil, err
	}
	return submission, nil
}

func checkContent(kind models.ContentKind, document *dto.DocumentRefRequest, link *string) error {
	details := map[string]string{}
	hasDocument := document != nil && strings.TrimSpace(document.Path) != ""
	hasLink := link != nil
	switch {
	case kind.RequiresDocument() && !hasDocument:
		details["document"] = "required"
	case !kind.RequiresDocument() && document != nil:
		details["document"] = "excluded"
	}
	switch {
	case kind.RequiresLink() && !hasLink:
		details["link_url"] = "required"
	case !kind.RequiresLink() && hasLink:
		details["link_url"] = "excluded"
	}
	if len(details) > 0 {
		return fieldError("content does not match content kind "+string(kind), details)
	}
	return nil
}
