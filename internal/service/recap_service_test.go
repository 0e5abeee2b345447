package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/internal/models"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

func TestRecapCSV(t *testing.T) {
	store := newLifecycleStore()
	enrollment := store.put(approvedInternship("2025-01-10", "2025-02-10"))
	store.enrollments[enrollment.ID].FullName = "Ani Lestari"
	submittedAt := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	store.submissions["sub-1"] = &models.Submission{
		ID: "sub-1", EnrollmentID: enrollment.ID, Sequence: 1, Category: models.CategoryWeeklyReport,
		ContentKind: models.ContentKindLink, SubmittedAt: submittedAt, Verdict: models.VerdictApproved,
		Feedback: strPtr("rapi"),
	}
	progress := NewProgressService(store, submissionStore{store}, assessmentStore{store}, time.UTC, nil)
	svc := NewRecapService(progress, nil, nil, nil)

	file, err := svc.Recap(context.Background(), mentorActor, enrollment.ID, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "recap_"+enrollment.ID+".csv", file.Filename)

	body := string(file.Data)
	assert.Contains(t, body, "Peserta,Ani Lestari")
	assert.Contains(t, body, "Fase,Selesai")
	assert.Contains(t, body, "Periode,2025-01-10 s/d 2025-02-10")
	assert.Contains(t, body, strings.Join(recapHeaders, ","))
	assert.Contains(t, body, "1,Laporan Mingguan,,LINK,2025-01-15 09:30,Diterima,rapi")
}

func TestRecapPDFAndErrors(t *testing.T) {
	store := newLifecycleStore()
	enrollment := store.put(approvedInternship("", ""))
	progress := NewProgressService(store, submissionStore{store}, assessmentStore{store}, time.UTC, nil)
	svc := NewRecapService(progress, nil, nil, nil)

	file, err := svc.Recap(context.Background(), adminActor, enrollment.ID, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))

	_, err = svc.Recap(context.Background(), adminActor, enrollment.ID, "xlsx")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Recap(context.Background(), learnerActor, enrollment.ID, "csv")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
