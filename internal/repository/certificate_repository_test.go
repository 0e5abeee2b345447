package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

func TestCertificateRepositoryInsertOnce(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	cert := &models.Certificate{EnrollmentID: "enr-1", CredentialURL: "https://cred.example/1", CompletionDate: time.Date(2025, 2, 16, 0, 0, 0, 0, time.UTC)}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (enrollment_id) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cert-1"))
	created, err := repo.Insert(context.Background(), cert)
	require.NoError(t, err)
	assert.True(t, created)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO certificates")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	created, err = repo.Insert(context.Background(), &models.Certificate{EnrollmentID: "enr-1"})
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryFindByEnrollment(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "credential_url", "completion_date", "note", "issued_at", "issued_by"}).
			AddRow("cert-1", "enr-1", "https://cred.example/1", now, nil, now, "admin-1"))
	cert, err := repo.FindByEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "cert-1", cert.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM certificates")).
		WithArgs("enr-2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByEnrollment(context.Background(), "enr-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
