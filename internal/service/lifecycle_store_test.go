package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/repository"
)

// lifecycleStore is an in-memory stand-in for the enrollment, submission,
// assessment and certificate tables with the same conditional-write rules
// the SQL repositories enforce.
type lifecycleStore struct {
	mu           sync.Mutex
	seq          int
	enrollments  map[string]*models.Enrollment
	submissions  map[string]*models.Submission
	assessments  map[string]*models.Assessment
	certificates map[string]*models.Certificate
	insertDelay  time.Duration
	failWith     error
}

func newLifecycleStore() *lifecycleStore {
	return &lifecycleStore{
		enrollments:  map[string]*models.Enrollment{},
		submissions:  map[string]*models.Submission{},
		assessments:  map[string]*models.Assessment{},
		certificates: map[string]*models.Certificate{},
	}
}

func (s *lifecycleStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *lifecycleStore) put(enrollment models.Enrollment) *models.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enrollment.ID == "" {
		enrollment.ID = s.nextID("enr")
	}
	s.enrollments[enrollment.ID] = &enrollment
	return &enrollment
}

// enrollment repository

func (s *lifecycleStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	e, ok := s.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (s *lifecycleStore) Create(ctx context.Context, enrollment *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enrollment.ID = s.nextID("enr")
	clone := *enrollment
	s.enrollments[enrollment.ID] = &clone
	return nil
}

func (s *lifecycleStore) ExistsActive(ctx context.Context, participantID, programID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.ParticipantID == participantID && e.ProgramID == programID && e.Status != models.EnrollmentStatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (s *lifecycleStore) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Enrollment, 0)
	for _, e := range s.enrollments {
		if filter.ParticipantID != "" && e.ParticipantID != filter.ParticipantID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *lifecycleStore) Decide(ctx context.Context, params repository.DecideParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[params.ID]
	if !ok || e.Status != models.EnrollmentStatusApplied {
		return sql.ErrNoRows
	}
	e.Status = params.Status
	e.DecidedAt = &params.DecidedAt
	e.DecidedBy = &params.DecidedBy
	e.AdminNote = params.Note
	e.StartDate = params.StartDate
	e.EndDate = params.EndDate
	return nil
}

func (s *lifecycleStore) UpdateWindow(ctx context.Context, id string, window models.DateWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok || e.Status != models.EnrollmentStatusApproved {
		return sql.ErrNoRows
	}
	e.StartDate = window.Start
	e.EndDate = window.End
	return nil
}

// submissions, exposed through submissionStore to avoid method clashes

type submissionStore struct{ *lifecycleStore }

func (s submissionStore) Create(ctx context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[submission.EnrollmentID]
	if !ok || e.Status != models.EnrollmentStatusApproved {
		return sql.ErrNoRows
	}
	sequence := 1
	for _, existing := range s.submissions {
		if existing.EnrollmentID == submission.EnrollmentID && existing.Sequence >= sequence {
			sequence = existing.Sequence + 1
		}
	}
	submission.ID = s.nextID("sub")
	submission.Sequence = sequence
	submission.Verdict = models.VerdictPending
	clone := *submission
	s.submissions[submission.ID] = &clone
	return nil
}

func (s submissionStore) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *sub
	return &clone, nil
}

func (s submissionStore) DocumentInUse(ctx context.Context, documentPath string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.submissions {
		if sub.DocumentPath != nil && *sub.DocumentPath == documentPath {
			return true, nil
		}
	}
	return false, nil
}

func (s submissionStore) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if sub.EnrollmentID == enrollmentID {
			out = append(out, *sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (s submissionStore) Grade(ctx context.Context, params repository.GradeParams) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[params.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	sub.Verdict = params.Verdict
	sub.Feedback = params.Feedback
	sub.GradedBy = &params.GradedBy
	sub.GradedAt = &params.GradedAt
	clone := *sub
	return &clone, nil
}

// assessments

type assessmentStore struct{ *lifecycleStore }

func (s assessmentStore) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[enrollmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (s assessmentStore) Upsert(ctx context.Context, assessment *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.assessments[assessment.EnrollmentID]; ok {
		assessment.ID = existing.ID
	} else {
		assessment.ID = s.nextID("asm")
	}
	clone := *assessment
	s.assessments[assessment.EnrollmentID] = &clone
	return nil
}

// certificates

type certificateStore struct{ *lifecycleStore }

func (s certificateStore) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certificates[enrollmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (s certificateStore) Insert(ctx context.Context, certificate *models.Certificate) (bool, error) {
	if s.insertDelay > 0 {
		time.Sleep(s.insertDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.certificates[certificate.EnrollmentID]; exists {
		return false, nil
	}
	certificate.ID = s.nextID("cert")
	clone := *certificate
	s.certificates[certificate.EnrollmentID] = &clone
	return true, nil
}

type auditRecorderStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (s *auditRecorderStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return s.err
}

func (s *auditRecorderStub) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.logs))
	for _, log := range s.logs {
		out = append(out, log.Action)
	}
	return out
}

type notifierStub struct {
	mu      sync.Mutex
	decided []models.Enrollment
	graded  []models.Submission
	issued  []models.Certificate
}

func (n *notifierStub) EnrollmentDecided(ctx context.Context, enrollment models.Enrollment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decided = append(n.decided, enrollment)
}

func (n *notifierStub) SubmissionGraded(ctx context.Context, enrollment models.Enrollment, submission models.Submission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.graded = append(n.graded, submission)
}

func (n *notifierStub) CertificateIssued(ctx context.Context, enrollment models.Enrollment, certificate models.Certificate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, certificate)
}

type programRepoStub struct {
	programs map[string]*models.Program
}

func (s programRepoStub) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if p, ok := s.programs[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

var (
	adminActor   = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	mentorActor  = models.Actor{ID: "mentor-1", Role: models.RoleMentor}
	learnerActor = models.Actor{ID: "part-1", Role: models.RoleParticipant}
	otherLearner = models.Actor{ID: "part-2", Role: models.RoleParticipant}
)

func strPtr(v string) *string { return &v }

func datePtr(raw string) *time.Time {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		panic(err)
	}
	return &t
}

func fixedClock(raw string) func() time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
