package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var enrollmentRowColumns = []string{"id", "participant_id", "program_id", "track", "batch_id", "status", "full_name", "email", "phone",
	"institution", "motivation", "cv_ref", "applied_at", "decided_at", "decided_by", "admin_note", "start_date", "end_date", "updated_at"}

func TestEnrollmentRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{
		ParticipantID: "part-1",
		ProgramID:     "prog-1",
		Track:         models.TrackInternship,
		FullName:      "Ayu Lestari",
		Email:         "ayu@example.org",
		Phone:         "0812",
	}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusApplied, enrollment.Status)
	assert.False(t, enrollment.AppliedAt.IsZero())

	now := time.Now()
	rows := sqlmock.NewRows(enrollmentRowColumns).
		AddRow(enrollment.ID, "part-1", "prog-1", "INTERNSHIP", nil, "APPLIED", "Ayu Lestari", "ayu@example.org", "0812",
			nil, nil, nil, now, nil, nil, nil, nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE id = $1")).
		WithArgs(enrollment.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApplied, found.Status)
	assert.Nil(t, found.DecidedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDuplicateSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Enrollment{ParticipantID: "p", ProgramID: "g"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE participant_id = $1 AND program_id = $2 AND status <> $3")).
		WithArgs("part-1", "prog-1", models.EnrollmentStatusRejected).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	exists, err := repo.ExistsActive(context.Background(), "part-1", "prog-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("part-2", "prog-1", models.EnrollmentStatusRejected).
		WillReturnError(sql.ErrNoRows)
	exists, err = repo.ExistsActive(context.Background(), "part-2", "prog-1")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDecideIsConditional(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	params := DecideParams{ID: "enr-1", Status: models.EnrollmentStatusApproved, DecidedBy: "admin-1", DecidedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Decide(context.Background(), params))

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND status = 'APPLIED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Decide(context.Background(), params), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateWindowRequiresApproved(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET start_date = $2, end_date = $3")).
		WithArgs("enr-1", start, nil, sqlmock.AnyArg(), models.EnrollmentStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateWindow(context.Background(), "enr-1", models.DateWindow{Start: &start})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(enrollmentRowColumns).
		AddRow("enr-1", "part-1", "prog-1", "CERTIFICATION", nil, "APPROVED", "Ayu", "ayu@example.org", "0812",
			nil, nil, nil, now, now, "admin-1", nil, nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE program_id = $1 AND status = $2 ORDER BY applied_at DESC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("prog-1", models.EnrollmentStatusApproved).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE program_id = $1 AND status = $2")).
		WithArgs("prog-1", models.EnrollmentStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	list, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		ProgramID: "prog-1",
		Status:    models.EnrollmentStatusApproved,
		Page:      2,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 11, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
