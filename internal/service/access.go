package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
	"github.com/hshinosa/kompetensia-api/pkg/middleware/requestid"
)

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// loadEnrollment fetches an enrollment and enforces that participants only
// see their own records. Foreign enrollments read as not found.
func loadEnrollment(ctx context.Context, repo enrollmentReader, actor models.Actor, id string) (*models.Enrollment, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	enrollment, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, storageError(err, "failed to load enrollment")
	}
	if actor.Role == models.RoleParticipant && enrollment.ParticipantID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return enrollment, nil
}

func requireAdmin(actor models.Actor) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if !actor.Role.IsAdmin() {
		return appErrors.ErrForbidden
	}
	return nil
}

func requireStaff(actor models.Actor) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if !actor.Role.IsStaff() {
		return appErrors.ErrForbidden
	}
	return nil
}

// emitAudit writes an audit entry. Failures are logged and never abort the
// operation that produced them.
func emitAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, actor models.Actor, action, resource, resourceID string, oldValues, newValues interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		OldValues:  marshalAudit(oldValues),
		NewValues:  marshalAudit(newValues),
	}
	if actor.ID != "" {
		userID := actor.ID
		entry.UserID = &userID
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to persist audit log",
			zap.String("action", action),
			zap.String("resource_id", resourceID),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
	}
}

// marshalAudit encodes audit values; a nil value is stored as SQL NULL.
func marshalAudit(v interface{}) types.NullJSONText {
	if v == nil {
		return types.NullJSONText{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return types.NullJSONText{}
	}
	return types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}
}

func notFoundOrStorage(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return storageError(err, failed)
}
