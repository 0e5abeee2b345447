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
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

type certificateRepository interface {
	FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Certificate, error)
	Insert(ctx context.Context, certificate *models.Certificate) (bool, error)
}

type issuanceNotifier interface {
	CertificateIssued(ctx context.Context, enrollment models.Enrollment, certificate models.Certificate)
}

// CertificateService issues at most one certificate per enrollment, and only
// once the enrollment's progress is pass-eligible.
type CertificateService struct {
	repo        certificateRepository
	enrollments enrollmentReader
	progress    progressProjector
	audit       auditLogger
	notifier    issuanceNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCertificateService constructs the service with defaults.
func NewCertificateService(repo certificateRepository, enrollments enrollmentReader, progress progressProjector, audit auditLogger, notifier issuanceNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		repo:        repo,
		enrollments: enrollments,
		progress:    progress,
		audit:       audit,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Issue records the certificate. An existing certificate, including one
// written by a concurrent call, yields ALREADY_ISSUED with its id in details.
func (s *CertificateService) Issue(ctx context.Context, actor models.Actor, enrollmentID string, req dto.IssueCertificateRequest) (*models.Certificate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.CredentialURL = strings.TrimSpace(req.CredentialURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid certificate")
	}
	completion, err := parseDate(&req.CompletionDate)
	if err != nil || completion == nil {
		return nil, fieldError("invalid certificate", map[string]string{"completion_date": "datetime"})
	}

	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.existing(ctx, enrollment.ID); err != nil {
		return nil, err
	} else if existing != nil {
		s.metrics.RecordIssuance(true)
		return nil, alreadyIssued(existing)
	}

	projection, err := s.progress.Project(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	if !projection.PassEligible {
		return nil, appErrors.WithDetails(appErrors.ErrPreconditionFailed, "enrollment is not eligible for a certificate",
			map[string]string{"phase": string(projection.Phase)})
	}

	issuedBy := actor.ID
	certificate := &models.Certificate{
		EnrollmentID:   enrollment.ID,
		CredentialURL:  req.CredentialURL,
		CompletionDate: *completion,
		Note:           trimmedPtr(req.Note),
		IssuedAt:       s.now().UTC(),
		IssuedBy:       &issuedBy,
	}
	created, err := s.repo.Insert(ctx, certificate)
	if err != nil {
		return nil, storageError(err, "failed to issue certificate")
	}
	if !created {
		s.metrics.RecordIssuance(true)
		existing, err := s.existing(ctx, enrollment.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, appErrors.ErrAlreadyIssued
		}
		return nil, alreadyIssued(existing)
	}

	s.metrics.RecordIssuance(false)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionCertificateIssue, models.AuditResourceEnrollment, enrollment.ID, nil,
		map[string]interface{}{"certificate_id": certificate.ID, "credential_url": certificate.CredentialURL, "completion_date": req.CompletionDate})
	if s.notifier != nil {
		s.notifier.CertificateIssued(ctx, *enrollment, *certificate)
	}
	return certificate, nil
}

// Get returns the certificate of an enrollment visible to the actor.
func (s *CertificateService) Get(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Certificate, error) {
	enrollment, err := loadEnrollment(ctx, s.enrollments, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	certificate, err := s.existing(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	if certificate == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	return certificate, nil
}

func (s *CertificateService) existing(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	certificate, err := s.repo.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(err, "failed to load certificate")
	}
	return certificate, nil
}

func alreadyIssued(existing *models.Certificate) error {
	return appErrors.WithDetails(appErrors.ErrAlreadyIssued, "certificate already issued for this enrollment",
		map[string]string{"certificate_id": existing.ID})
}
