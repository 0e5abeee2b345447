package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

type auditHistoryRepository interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error)
}

// AuditService exposes the audit trail of lifecycle records.
type AuditService struct {
	repo   auditHistoryRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditHistoryRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// History returns the newest audit entries of one record. Admin only.
func (s *AuditService) History(ctx context.Context, actor models.Actor, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch resource {
	case models.AuditResourceEnrollment, models.AuditResourceSubmission:
	default:
		return nil, fieldError("unknown audit resource", map[string]string{"resource": "oneof"})
	}
	logs, err := s.repo.List(ctx, models.AuditLogFilter{Resource: resource, ResourceID: resourceID, Limit: limit})
	if err != nil {
		return nil, storageError(err, "failed to load audit history")
	}
	return logs, nil
}
