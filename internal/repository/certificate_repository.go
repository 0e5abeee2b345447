package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// FindByEnrollment returns the certificate of an enrollment or sql.ErrNoRows.
func (r *CertificateRepository) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	const query = `SELECT id, enrollment_id, credential_url, completion_date, note, issued_at, issued_by
        FROM certificates WHERE enrollment_id = $1`
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, enrollmentID); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// Insert records a certificate unless one already exists for the enrollment.
// created is false when the unique enrollment constraint absorbed the insert.
func (r *CertificateRepository) Insert(ctx context.Context, certificate *models.Certificate) (bool, error) {
	if certificate.ID == "" {
		certificate.ID = uuid.NewString()
	}
	if certificate.IssuedAt.IsZero() {
		certificate.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates (id, enrollment_id, credential_url, completion_date, note, issued_at, issued_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (enrollment_id) DO NOTHING
        RETURNING id`
	var id string
	err := r.db.QueryRowxContext(ctx, query,
		certificate.ID,
		certificate.EnrollmentID,
		certificate.CredentialURL,
		certificate.CompletionDate,
		certificate.Note,
		certificate.IssuedAt,
		certificate.IssuedBy,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert certificate: %w", err)
	}
	return true, nil
}
