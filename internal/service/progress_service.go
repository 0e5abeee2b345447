package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

type submissionLister interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Submission, error)
}

type assessmentReader interface {
	FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Assessment, error)
}

// ProjectPhase derives the lifecycle phase of an enrollment. The first
// matching rule wins:
//
//  1. not approved                          -> NOT_STARTED
//  2. legacy assessment passes              -> COMPLETED
//  3. submissions exist and all approved    -> COMPLETED
//  4. today before the start date           -> NOT_STARTED
//  5. today after the end date              -> UNGRADED
//  6. inside the window, or no window with a pending submission -> IN_PROGRESS
//  7. no submissions                        -> UNGRADED
//  8. otherwise                             -> IN_PROGRESS
//
// today is compared by calendar day against the stored window.
func ProjectPhase(enrollment models.Enrollment, assessment *models.Assessment, submissions []models.Submission, today time.Time) models.Projection {
	counts := countVerdicts(submissions)
	phase := phaseOf(enrollment, assessment, counts, civilDate(today))
	return models.Projection{
		EnrollmentID: enrollment.ID,
		Phase:        phase,
		PhaseLabel:   phase.Label(),
		PassEligible: phase == models.PhaseCompleted,
		Submissions:  counts,
	}
}

func phaseOf(enrollment models.Enrollment, assessment *models.Assessment, counts models.VerdictCounts, today time.Time) models.Phase {
	if enrollment.Status != models.EnrollmentStatusApproved {
		return models.PhaseNotStarted
	}
	if assessment != nil && assessment.Verdict() == models.AssessmentPass {
		return models.PhaseCompleted
	}
	if counts.Total > 0 && counts.Approved == counts.Total {
		return models.PhaseCompleted
	}
	window := enrollment.Window()
	if window.Start != nil && today.Before(civilDate(*window.Start)) {
		return models.PhaseNotStarted
	}
	if window.End != nil && today.After(civilDate(*window.End)) {
		return models.PhaseUngraded
	}
	if !window.Empty() || counts.Pending > 0 {
		return models.PhaseInProgress
	}
	if counts.Total == 0 {
		return models.PhaseUngraded
	}
	return models.PhaseInProgress
}

func countVerdicts(submissions []models.Submission) models.VerdictCounts {
	counts := models.VerdictCounts{Total: len(submissions)}
	for _, submission := range submissions {
		switch submission.Verdict {
		case models.VerdictApproved:
			counts.Approved++
		case models.VerdictRejected:
			counts.Rejected++
		default:
			counts.Pending++
		}
	}
	return counts
}

// ProgressSnapshot bundles the records a projection was computed from.
type ProgressSnapshot struct {
	Enrollment  models.Enrollment
	Assessment  *models.Assessment
	Submissions []models.Submission
	Projection  models.Projection
}

// ProgressService recomputes enrollment progress on every read.
type ProgressService struct {
	enrollments enrollmentReader
	submissions submissionLister
	assessments assessmentReader
	location    *time.Location
	now         func() time.Time
	logger      *zap.Logger
}

// NewProgressService constructs the service. Calendar days are evaluated in location.
func NewProgressService(enrollments enrollmentReader, submissions submissionLister, assessments assessmentReader, location *time.Location, logger *zap.Logger) *ProgressService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		enrollments: enrollments,
		submissions: submissions,
		assessments: assessments,
		location:    location,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock returns a copy of the service reading the current time from now.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	clone := *s
	clone.now = now
	return &clone
}

// Project computes the progress of an enrollment without access checks.
func (s *ProgressService) Project(ctx context.Context, enrollmentID string) (*models.Projection, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, storageError(err, "failed to load enrollment")
	}
	snapshot, err := s.snapshot(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	return &snapshot.Projection, nil
}

// ProjectFor computes the progress of an enrollment visible to the actor.
func (s *ProgressService) ProjectFor(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Projection, error) {
	snapshot, err := s.Snapshot(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	return &snapshot.Projection, nil
}

// Snapshot loads the enrollment records and their projection.
func (s *ProgressService) Snapshot(ctx context.Context, actor models.Actor, enrollmentID string) (*ProgressSnapshot, error) {
	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, enrollment)
}

func (s *ProgressService) snapshot(ctx context.Context, enrollment *models.Enrollment) (*ProgressSnapshot, error) {
	assessment, err := s.assessments.FindByEnrollment(ctx, enrollment.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, storageError(err, "failed to load assessment")
		}
		assessment = nil
	}
	submissions, err := s.submissions.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, storageError(err, "failed to load submissions")
	}
	today := s.now().In(s.location)
	return &ProgressSnapshot{
		Enrollment:  *enrollment,
		Assessment:  assessment,
		Submissions: submissions,
		Projection:  ProjectPhase(*enrollment, assessment, submissions, today),
	}, nil
}
