package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/internal/models"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

type auditHistoryStub struct {
	filter models.AuditLogFilter
	logs   []models.AuditLog
}

func (s *auditHistoryStub) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error) {
	s.filter = filter
	return s.logs, nil
}

func TestAuditHistory(t *testing.T) {
	repo := &auditHistoryStub{logs: []models.AuditLog{{ID: "log-1", Action: models.AuditActionSubmissionRegrade}}}
	svc := NewAuditService(repo, nil)

	logs, err := svc.History(context.Background(), adminActor, models.AuditResourceSubmission, "sub-1", 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, models.AuditLogFilter{Resource: "submission", ResourceID: "sub-1", Limit: 10}, repo.filter)

	_, err = svc.History(context.Background(), mentorActor, models.AuditResourceSubmission, "sub-1", 10)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.History(context.Background(), adminActor, "users", "u-1", 10)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}
