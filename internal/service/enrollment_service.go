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

type enrollmentRepository interface {
	enrollmentReader
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ExistsActive(ctx context.Context, participantID, programID string) (bool, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	Decide(ctx context.Context, params repository.DecideParams) error
	UpdateWindow(ctx context.Context, id string, window models.DateWindow) error
}

type programRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, participantID string) (*models.ParticipantProfile, error)
	Invalidate(ctx context.Context, participantID string)
}

type progressProjector interface {
	Project(ctx context.Context, enrollmentID string) (*models.Projection, error)
}

type decisionNotifier interface {
	EnrollmentDecided(ctx context.Context, enrollment models.Enrollment)
}

// EnrollmentService owns the application and approval workflow.
type EnrollmentService struct {
	repo      enrollmentRepository
	programs  programRepository
	audit     auditLogger
	profiles  profileResolver
	progress  progressProjector
	notifier  decisionNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// EnrollmentServiceOption configures the service.
type EnrollmentServiceOption func(*EnrollmentService)

// WithEnrollmentDetailSources enables profile and progress enrichment in Detail.
func WithEnrollmentDetailSources(profiles profileResolver, progress progressProjector) EnrollmentServiceOption {
	return func(s *EnrollmentService) {
		s.profiles = profiles
		s.progress = progress
	}
}

// WithEnrollmentNotifier sets the decision notifier.
func WithEnrollmentNotifier(notifier decisionNotifier) EnrollmentServiceOption {
	return func(s *EnrollmentService) {
		s.notifier = notifier
	}
}

// WithEnrollmentMetrics sets the metrics sink.
func WithEnrollmentMetrics(metrics *MetricsService) EnrollmentServiceOption {
	return func(s *EnrollmentService) {
		s.metrics = metrics
	}
}

// WithEnrollmentClock overrides the clock used for decision timestamps.
func WithEnrollmentClock(now func() time.Time) EnrollmentServiceOption {
	return func(s *EnrollmentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewEnrollmentService constructs the service with defaults.
func NewEnrollmentService(repo enrollmentRepository, programs programRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...EnrollmentServiceOption) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EnrollmentService{
		repo:      repo,
		programs:  programs,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Apply creates an APPLIED enrollment for the participant and program.
func (s *EnrollmentService) Apply(ctx context.Context, actor models.Actor, req dto.ApplyRequest) (*models.Enrollment, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid application")
	}

	participantID := strings.TrimSpace(req.ParticipantID)
	switch {
	case actor.Role == models.RoleParticipant:
		if participantID != "" && participantID != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "participants can only apply for themselves")
		}
		participantID = actor.ID
	case actor.Role.IsAdmin():
		if participantID == "" {
			return nil, fieldError("invalid application", map[string]string{"participant_id": "required"})
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, storageError(err, "failed to load program")
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "program is not accepting applications")
	}

	exists, err := s.repo.ExistsActive(ctx, participantID, program.ID)
	if err != nil {
		return nil, storageError(err, "failed to check existing enrollments")
	}
	if exists {
		return nil, appErrors.ErrDuplicateEnrollment
	}

	enrollment := &models.Enrollment{
		ParticipantID: participantID,
		ProgramID:     program.ID,
		Track:         program.Track,
		BatchID:       trimmedPtr(req.BatchID),
		Status:        models.EnrollmentStatusApplied,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Institution:   trimmedPtr(req.Institution),
		Motivation:    trimmedPtr(req.Motivation),
		CVRef:         trimmedPtr(req.CVRef),
		AppliedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, storageError(err, "failed to create enrollment")
	}

	// Reviewers read the applicant's profile next; drop any cached copy.
	if s.profiles != nil {
		s.profiles.Invalidate(ctx, participantID)
	}
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionEnrollmentApply, models.AuditResourceEnrollment, enrollment.ID, nil,
		map[string]interface{}{"program_id": enrollment.ProgramID, "participant_id": enrollment.ParticipantID})
	return enrollment, nil
}

// Decide moves an APPLIED enrollment to APPROVED or REJECTED exactly once.
func (s *EnrollmentService) Decide(ctx context.Context, actor models.Actor, id string, req dto.DecideRequest) (*models.Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Decision = normalizeEnum(req.Decision)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid decision")
	}
	decision := models.Decision(req.Decision)
	window, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	enrollment, err := loadEnrollment(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusApplied {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment has already been decided")
	}
	if !window.Empty() {
		if decision == models.DecisionReject {
			return nil, fieldError("date window only applies to approvals", map[string]string{"start_date": "excluded_with_reject"})
		}
		if enrollment.Track != models.TrackInternship {
			return nil, fieldError("date window only applies to internships", map[string]string{"start_date": "internship_only"})
		}
	}

	decidedAt := s.now().UTC()
	note := trimmedPtr(req.Note)
	params := repository.DecideParams{
		ID:        enrollment.ID,
		Status:    decision.Status(),
		DecidedBy: actor.ID,
		DecidedAt: decidedAt,
		Note:      note,
		StartDate: window.Start,
		EndDate:   window.End,
	}
	if err := s.repo.Decide(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment has already been decided")
		}
		return nil, storageError(err, "failed to record decision")
	}

	previous := enrollment.Status
	enrollment.Status = params.Status
	enrollment.DecidedAt = &decidedAt
	enrollment.DecidedBy = &params.DecidedBy
	enrollment.AdminNote = note
	enrollment.StartDate = window.Start
	enrollment.EndDate = window.End
	enrollment.UpdatedAt = decidedAt

	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionEnrollmentDecide, models.AuditResourceEnrollment, enrollment.ID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": enrollment.Status, "note": note, "start_date": window.Start, "end_date": window.End})
	s.metrics.RecordDecision(decision)
	if s.notifier != nil {
		s.notifier.EnrollmentDecided(ctx, *enrollment)
	}
	return enrollment, nil
}

// Schedule sets or replaces the date window of an approved internship.
func (s *EnrollmentService) Schedule(ctx context.Context, actor models.Actor, id string, req dto.ScheduleRequest) (*models.Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid schedule")
	}
	window, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if window.Empty() {
		return nil, fieldError("invalid schedule", map[string]string{"start_date": "required_without=end_date"})
	}

	enrollment, err := loadEnrollment(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only approved enrollments can be scheduled")
	}
	if enrollment.Track != models.TrackInternship {
		return nil, fieldError("date window only applies to internships", map[string]string{"start_date": "internship_only"})
	}

	if err := s.repo.UpdateWindow(ctx, enrollment.ID, window); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only approved enrollments can be scheduled")
		}
		return nil, storageError(err, "failed to update schedule")
	}

	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionEnrollmentSchedule, models.AuditResourceEnrollment, enrollment.ID,
		enrollment.Window(), window)
	enrollment.StartDate = window.Start
	enrollment.EndDate = window.End
	return enrollment, nil
}

// Get returns an enrollment visible to the actor.
func (s *EnrollmentService) Get(ctx context.Context, actor models.Actor, id string) (*models.Enrollment, error) {
	return loadEnrollment(ctx, s.repo, actor, id)
}

// Detail returns the enrollment with its program title, participant profile
// and current progress.
func (s *EnrollmentService) Detail(ctx context.Context, actor models.Actor, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := loadEnrollment(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	detail := &models.EnrollmentDetail{Enrollment: *enrollment}

	program, err := s.programs.FindByID(ctx, enrollment.ProgramID)
	switch {
	case err == nil:
		detail.ProgramTitle = program.Title
	case !errors.Is(err, sql.ErrNoRows):
		return nil, storageError(err, "failed to load program")
	}

	if s.profiles != nil {
		profile, err := s.profiles.Resolve(ctx, enrollment.ParticipantID)
		if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		detail.Profile = profile
	}
	if s.progress != nil {
		projection, err := s.progress.Project(ctx, enrollment.ID)
		if err != nil {
			return nil, err
		}
		detail.Progress = projection
	}
	return detail, nil
}

// List returns enrollments matching the query. Participants only see their own.
func (s *EnrollmentService) List(ctx context.Context, actor models.Actor, query dto.EnrollmentQuery) ([]models.Enrollment, *models.Pagination, error) {
	if actor.ID == "" {
		return nil, nil, appErrors.ErrUnauthorized
	}
	query.Track = normalizeEnum(query.Track)
	query.Status = normalizeEnum(query.Status)
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid filter")
	}
	if actor.Role == models.RoleParticipant {
		query.ParticipantID = actor.ID
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = 20
	}
	filter := models.EnrollmentFilter{
		ParticipantID: query.ParticipantID,
		ProgramID:     query.ProgramID,
		Track:         models.Track(query.Track),
		Status:        models.EnrollmentStatus(query.Status),
		Page:          page,
		PageSize:      size,
		SortBy:        query.SortBy,
		SortOrder:     query.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storageError(err, "failed to list enrollments")
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func parseWindow(startRaw, endRaw *string) (models.DateWindow, error) {
	start, err := parseDate(startRaw)
	if err != nil {
		return models.DateWindow{}, fieldError("invalid date window", map[string]string{"start_date": "datetime"})
	}
	end, err := parseDate(endRaw)
	if err != nil {
		return models.DateWindow{}, fieldError("invalid date window", map[string]string{"end_date": "datetime"})
	}
	if start != nil && end != nil && end.Before(*start) {
		return models.DateWindow{}, fieldError("invalid date window", map[string]string{"end_date": "gtefield=start_date"})
	}
	return models.DateWindow{Start: start, End: end}, nil
}
