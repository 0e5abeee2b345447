package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

const enrollmentColumns = `id, participant_id, program_id, track, batch_id, status, full_name, email, phone,
        institution, motivation, cv_ref, applied_at, decided_at, decided_by, admin_note, start_date, end_date, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ParticipantID != "" {
		conditions = append(conditions, fmt.Sprintf("participant_id = $%d", len(args)+1))
		args = append(args, filter.ParticipantID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Track != "" {
		conditions = append(conditions, fmt.Sprintf("track = $%d", len(args)+1))
		args = append(args, filter.Track)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"applied_at": "applied_at",
		"decided_at": "decided_at",
		"full_name":  "full_name",
		"start_date": "start_date",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "applied_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM enrollments%s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d`,
		enrollmentColumns, clause, orderBy, order, size, offset)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM enrollments"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActive checks whether a non-rejected enrollment exists for the participant and program.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, participantID, programID string) (bool, error) {
	const query = "SELECT 1 FROM enrollments WHERE participant_id = $1 AND program_id = $2 AND status <> $3 LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, participantID, programID, models.EnrollmentStatusRejected); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record. A concurrent duplicate trips the
// partial unique index on (participant_id, program_id) and is reported as-is.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.AppliedAt.IsZero() {
		enrollment.AppliedAt = now
	}
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusApplied
	}
	const query = `INSERT INTO enrollments (id, participant_id, program_id, track, batch_id, status, full_name, email, phone,
        institution, motivation, cv_ref, applied_at, updated_at)
        VALUES (:id, :participant_id, :program_id, :track, :batch_id, :status, :full_name, :email, :phone,
        :institution, :motivation, :cv_ref, :applied_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// DecideParams groups the columns written by an administrative decision.
type DecideParams struct {
	ID        string
	Status    models.EnrollmentStatus
	DecidedBy string
	DecidedAt time.Time
	Note      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Decide moves an APPLIED enrollment to its decided status. It returns
// sql.ErrNoRows when the enrollment is missing or already decided.
func (r *EnrollmentRepository) Decide(ctx context.Context, params DecideParams) error {
	query := fmt.Sprintf(`UPDATE enrollments SET status = :status, decided_by = :decided_by, decided_at = :decided_at,
        admin_note = :admin_note, start_date = :start_date, end_date = :end_date, updated_at = :decided_at
        WHERE id = :id AND status = '%s'`, models.EnrollmentStatusApplied)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         params.ID,
		"status":     params.Status,
		"decided_by": params.DecidedBy,
		"decided_at": params.DecidedAt,
		"admin_note": params.Note,
		"start_date": params.StartDate,
		"end_date":   params.EndDate,
	})
	if err != nil {
		return fmt.Errorf("decide enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check enrollment decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateWindow replaces the date window of an APPROVED enrollment. It returns
// sql.ErrNoRows when the enrollment is missing or not approved.
func (r *EnrollmentRepository) UpdateWindow(ctx context.Context, id string, window models.DateWindow) error {
	const query = `UPDATE enrollments SET start_date = $2, end_date = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, window.Start, window.End, time.Now().UTC(), models.EnrollmentStatusApproved)
	if err != nil {
		return fmt.Errorf("update enrollment window: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check enrollment window rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
