package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/dto"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/repository"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

type gradingNotifier interface {
	SubmissionGraded(ctx context.Context, enrollment models.Enrollment, submission models.Submission)
}

var verdictAliases = map[string]string{
	"APPROVE": string(models.VerdictApproved),
	"REJECT":  string(models.VerdictRejected),
}

// GradingService assigns verdicts to individual submissions. Re-grading
// overwrites the previous verdict and is recorded as a regrade in the audit trail.
type GradingService struct {
	submissions submissionRepository
	enrollments enrollmentReader
	audit       auditLogger
	notifier    gradingNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewGradingService constructs the service with defaults.
func NewGradingService(submissions submissionRepository, enrollments enrollmentReader, audit auditLogger, notifier gradingNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{
		submissions: submissions,
		enrollments: enrollments,
		audit:       audit,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Grade sets verdict, feedback, grader and grading time of one submission.
func (s *GradingService) Grade(ctx context.Context, actor models.Actor, submissionID string, req dto.GradeRequest) (*models.Submission, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	req.Verdict = normalizeEnum(req.Verdict)
	if alias, ok := verdictAliases[req.Verdict]; ok {
		req.Verdict = alias
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade")
	}

	current, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, storageError(err, "failed to load submission")
	}
	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, current.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "grading requires an approved enrollment")
	}

	graded, err := s.submissions.Grade(ctx, repository.GradeParams{
		ID:       current.ID,
		Verdict:  models.Verdict(req.Verdict),
		Feedback: trimmedPtr(req.Feedback),
		GradedBy: actor.ID,
		GradedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, storageError(err, "failed to grade submission")
	}

	action := models.AuditActionSubmissionGrade
	if current.GradedAt != nil {
		action = models.AuditActionSubmissionRegrade
	}
	emitAudit(ctx, s.audit, s.logger, actor, action, models.AuditResourceSubmission, graded.ID,
		map[string]interface{}{"verdict": current.Verdict, "feedback": current.Feedback, "graded_by": current.GradedBy},
		map[string]interface{}{"verdict": graded.Verdict, "feedback": graded.Feedback, "graded_by": graded.GradedBy})
	s.metrics.RecordGrading(graded.Verdict)
	if s.notifier != nil {
		s.notifier.SubmissionGraded(ctx, *enrollment, *graded)
	}
	return graded, nil
}
