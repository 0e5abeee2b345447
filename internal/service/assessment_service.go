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
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

type assessmentRepository interface {
	assessmentReader
	Upsert(ctx context.Context, assessment *models.Assessment) error
}

// AssessmentService manages the legacy overall assessment of an enrollment.
type AssessmentService struct {
	repo        assessmentRepository
	enrollments enrollmentReader
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssessmentService constructs the service with defaults.
func NewAssessmentService(repo assessmentRepository, enrollments enrollmentReader, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, enrollments: enrollments, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// Record writes the assessment verdict, replacing any earlier one. Labels are
// normalized at this boundary; unknown labels are rejected.
func (s *AssessmentService) Record(ctx context.Context, actor models.Actor, enrollmentID string, req dto.AssessmentRequest) (*models.Assessment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assessment")
	}
	verdict, err := models.ParseAssessmentVerdict(req.Verdict)
	if err != nil {
		return nil, fieldError("unknown assessment verdict", map[string]string{"verdict": "assessment_label"})
	}

	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "assessments require an approved enrollment")
	}

	previous, err := s.repo.FindByEnrollment(ctx, enrollment.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storageError(err, "failed to load assessment")
	}

	assessedBy := actor.ID
	assessment := &models.Assessment{
		EnrollmentID: enrollment.ID,
		RawVerdict:   strings.TrimSpace(req.Verdict),
		Note:         trimmedPtr(req.Note),
		AssessedAt:   s.now().UTC(),
		AssessedBy:   &assessedBy,
	}
	if err := s.repo.Upsert(ctx, assessment); err != nil {
		return nil, storageError(err, "failed to record assessment")
	}

	var oldValues interface{}
	if previous != nil {
		oldValues = map[string]interface{}{"verdict": previous.Verdict(), "raw_verdict": previous.RawVerdict}
	}
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionAssessmentRecord, models.AuditResourceEnrollment, enrollment.ID,
		oldValues, map[string]interface{}{"verdict": verdict, "raw_verdict": assessment.RawVerdict, "assessment_id": assessment.ID})
	return assessment, nil
}

// Get returns the assessment of an enrollment.
func (s *AssessmentService) Get(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Assessment, error) {
	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.repo.FindByEnrollment(ctx, enrollment.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, storageError(err, "failed to load assessment")
	}
	return assessment, nil
}
