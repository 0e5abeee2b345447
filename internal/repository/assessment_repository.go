package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

// AssessmentRepository persists the legacy overall assessment record.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByEnrollment returns the assessment of an enrollment or sql.ErrNoRows.
func (r *AssessmentRepository) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Assessment, error) {
	const query = `SELECT id, enrollment_id, raw_verdict, note, assessed_at, assessed_by, updated_at
        FROM assessments WHERE enrollment_id = $1`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, enrollmentID); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Upsert writes the single assessment of an enrollment, replacing any previous verdict.
func (r *AssessmentRepository) Upsert(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.AssessedAt.IsZero() {
		assessment.AssessedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assessments (id, enrollment_id, raw_verdict, note, assessed_at, assessed_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (enrollment_id) DO UPDATE SET raw_verdict = EXCLUDED.raw_verdict, note = EXCLUDED.note,
        assessed_at = EXCLUDED.assessed_at, assessed_by = EXCLUDED.assessed_by, updated_at = EXCLUDED.assessed_at
        RETURNING id`
	var id string
	if err := r.db.QueryRowxContext(ctx, query,
		assessment.ID,
		assessment.EnrollmentID,
		assessment.RawVerdict,
		assessment.Note,
		assessment.AssessedAt,
		assessment.AssessedBy,
	).Scan(&id); err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	assessment.ID = id
	return nil
}
