package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

const (
	submissionColumns = `id, enrollment_id, sequence, category, title, description, content_kind, document_path,
        document_size, document_mime, link_url, submitted_at, verdict, feedback, graded_at, graded_by`
	maxSequenceAttempts = 3
)

// SubmissionRepository persists task submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create appends a submission with the next per-enrollment sequence number.
// The row is only written while the owning enrollment is APPROVED; otherwise
// sql.ErrNoRows is returned. Sequence collisions from concurrent submits are
// retried.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	submission.Verdict = models.VerdictPending
	submission.Feedback = nil
	submission.GradedAt = nil
	submission.GradedBy = nil

	const query = `INSERT INTO submissions (id, enrollment_id, sequence, category, title, description, content_kind,
        document_path, document_size, document_mime, link_url, submitted_at, verdict)
        SELECT $1::uuid, $2::uuid, COALESCE(MAX(s.sequence), 0) + 1, $3::text, $4::text, $5::text, $6::text,
        $7::text, $8::bigint, $9::text, $10::text, $11::timestamptz, $12::text
        FROM submissions s WHERE s.enrollment_id = $2::uuid
        HAVING EXISTS (SELECT 1 FROM enrollments e WHERE e.id = $2::uuid AND e.status = $13)
        RETURNING sequence`

	var err error
	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		var sequence int
		err = r.db.QueryRowxContext(ctx, query,
			submission.ID,
			submission.EnrollmentID,
			submission.Category,
			submission.Title,
			submission.Description,
			submission.ContentKind,
			submission.DocumentPath,
			submission.DocumentSize,
			submission.DocumentMIME,
			submission.LinkURL,
			submission.SubmittedAt,
			submission.Verdict,
			models.EnrollmentStatusApproved,
		).Scan(&sequence)
		if err == nil {
			submission.Sequence = sequence
			return nil
		}
		if !IsUniqueViolation(err) {
			break
		}
	}
	return fmt.Errorf("create submission: %w", err)
}

// FindByID returns a submission by its ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// DocumentInUse reports whether any submission references the stored document.
func (r *SubmissionRepository) DocumentInUse(ctx context.Context, documentPath string) (bool, error) {
	var inUse bool
	if err := r.db.GetContext(ctx, &inUse, "SELECT EXISTS (SELECT 1 FROM submissions WHERE document_path = $1)", documentPath); err != nil {
		return false, fmt.Errorf("check document usage: %w", err)
	}
	return inUse, nil
}

// ListByEnrollment returns submissions ordered by submission time, ties broken by sequence.
func (r *SubmissionRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE enrollment_id = $1 ORDER BY submitted_at ASC, sequence ASC", submissionColumns)
	submissions := make([]models.Submission, 0)
	if err := r.db.SelectContext(ctx, &submissions, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// GradeParams groups the grading columns written together.
type GradeParams struct {
	ID       string
	Verdict  models.Verdict
	Feedback *string
	GradedBy string
	GradedAt time.Time
}

// Grade overwrites verdict, feedback, grader and grading time in one statement
// and returns the updated row. sql.ErrNoRows is returned for unknown ids.
func (r *SubmissionRepository) Grade(ctx context.Context, params GradeParams) (*models.Submission, error) {
	query := fmt.Sprintf(`UPDATE submissions SET verdict = $2, feedback = $3, graded_by = $4, graded_at = $5
        WHERE id = $1 RETURNING %s`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, params.ID, params.Verdict, params.Feedback, params.GradedBy, params.GradedAt); err != nil {
		return nil, err
	}
	return &submission, nil
}
