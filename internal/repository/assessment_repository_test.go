package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

func TestAssessmentRepositoryUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewAssessmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (enrollment_id) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("asm-existing"))

	assessment := &models.Assessment{EnrollmentID: "enr-1", RawVerdict: "Lulus"}
	require.NoError(t, repo.Upsert(context.Background(), assessment))
	assert.Equal(t, "asm-existing", assessment.ID)
	assert.False(t, assessment.AssessedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositoryFindByEnrollment(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewAssessmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assessments WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "raw_verdict", "note", "assessed_at", "assessed_by", "updated_at"}).
			AddRow("asm-1", "enr-1", "diterima", nil, time.Now(), "admin-1", nil))

	assessment, err := repo.FindByEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentPass, assessment.Verdict())
	require.NoError(t, mock.ExpectationsWereMet())
}
