package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/internal/dto"
	"github.com/hshinosa/kompetensia-api/internal/middleware"
	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/service"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
)

var (
	adminClaims   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	learnerClaims = &models.JWTClaims{UserID: "part-1", Role: models.RoleParticipant}
)

func newTestContext(method, target string, body io.Reader, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

type enrollmentServiceMock struct {
	applyResp   *models.Enrollment
	applyErr    error
	decideResp  *models.Enrollment
	decideErr   error
	detailResp  *models.EnrollmentDetail
	detailErr   error
	listResp    []models.Enrollment
	lastActor   models.Actor
	lastApply   dto.ApplyRequest
	lastDecide  dto.DecideRequest
	lastQuery   dto.EnrollmentQuery
	applyCalled bool
}

func (m *enrollmentServiceMock) Apply(ctx context.Context, actor models.Actor, req dto.ApplyRequest) (*models.Enrollment, error) {
	m.applyCalled = true
	m.lastActor = actor
	m.lastApply = req
	return m.applyResp, m.applyErr
}

func (m *enrollmentServiceMock) Decide(ctx context.Context, actor models.Actor, id string, req dto.DecideRequest) (*models.Enrollment, error) {
	m.lastDecide = req
	return m.decideResp, m.decideErr
}

func (m *enrollmentServiceMock) Schedule(ctx context.Context, actor models.Actor, id string, req dto.ScheduleRequest) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id}, nil
}

func (m *enrollmentServiceMock) Detail(ctx context.Context, actor models.Actor, id string) (*models.EnrollmentDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *enrollmentServiceMock) List(ctx context.Context, actor models.Actor, query dto.EnrollmentQuery) ([]models.Enrollment, *models.Pagination, error) {
	m.lastQuery = query
	return m.listResp, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.listResp)}, nil
}

type progressServiceMock struct {
	projection *models.Projection
	err        error
}

func (m *progressServiceMock) ProjectFor(ctx context.Context, actor models.Actor, enrollmentID string) (*models.Projection, error) {
	return m.projection, m.err
}

type recapServiceMock struct {
	lastFormat string
}

func (m *recapServiceMock) Recap(ctx context.Context, actor models.Actor, enrollmentID, format string) (*service.RecapFile, error) {
	m.lastFormat = format
	return &service.RecapFile{Filename: "recap_" + enrollmentID + ".csv", ContentType: "text/csv", Data: []byte("No,Kategori\n")}, nil
}

func TestEnrollmentHandlerApply(t *testing.T) {
	mockSvc := &enrollmentServiceMock{applyResp: &models.Enrollment{ID: "enr-1", Status: models.EnrollmentStatusApplied}}
	handler := NewEnrollmentHandler(mockSvc, nil, nil)

	payload := `{"program_id":"prog-1","full_name":"Sari","email":"sari@example.com","phone":"0812"}`
	c, w := newTestContext(http.MethodPost, "/enrollments", bytes.NewBufferString(payload), learnerClaims)

	handler.Apply(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "part-1", mockSvc.lastActor.ID)
	assert.Equal(t, "prog-1", mockSvc.lastApply.ProgramID)
}

func TestEnrollmentHandlerApplyInvalidBody(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc, nil, nil)

	c, w := newTestContext(http.MethodPost, "/enrollments", bytes.NewBufferString(`{"program_id":`), learnerClaims)

	handler.Apply(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.applyCalled)
}

func TestEnrollmentHandlerRequiresClaims(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentServiceMock{}, nil, nil)

	c, w := newTestContext(http.MethodGet, "/enrollments/enr-1", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentHandlerDuplicateMapsToConflict(t *testing.T) {
	mockSvc := &enrollmentServiceMock{applyErr: appErrors.ErrDuplicateEnrollment}
	handler := NewEnrollmentHandler(mockSvc, nil, nil)

	payload := `{"program_id":"prog-1","full_name":"Sari","email":"sari@example.com","phone":"0812"}`
	c, w := newTestContext(http.MethodPost, "/enrollments", bytes.NewBufferString(payload), learnerClaims)

	handler.Apply(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_ENROLLMENT", errorCode(t, w))
}

func TestEnrollmentHandlerListBindsQuery(t *testing.T) {
	mockSvc := &enrollmentServiceMock{listResp: []models.Enrollment{{ID: "enr-1"}}}
	handler := NewEnrollmentHandler(mockSvc, nil, nil)

	c, w := newTestContext(http.MethodGet, "/enrollments?status=APPROVED&track=INTERNSHIP&page=2", nil, adminClaims)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "APPROVED", mockSvc.lastQuery.Status)
	assert.Equal(t, "INTERNSHIP", mockSvc.lastQuery.Track)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)

	var body struct {
		Data       []models.Enrollment `json:"data"`
		Pagination *models.Pagination  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.NotNil(t, body.Pagination)
}

func TestEnrollmentHandlerDecideInvalidTransition(t *testing.T) {
	mockSvc := &enrollmentServiceMock{decideErr: appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment already decided")}
	handler := NewEnrollmentHandler(mockSvc, nil, nil)

	c, w := newTestContext(http.MethodPost, "/enrollments/enr-1/decision", bytes.NewBufferString(`{"decision":"APPROVE"}`), adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Decide(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, w))
	assert.Equal(t, "APPROVE", mockSvc.lastDecide.Decision)
}

func TestEnrollmentHandlerProgress(t *testing.T) {
	progress := &progressServiceMock{projection: &models.Projection{EnrollmentID: "enr-1", Phase: models.PhaseUngraded, PhaseLabel: models.PhaseUngraded.Label()}}
	handler := NewEnrollmentHandler(&enrollmentServiceMock{}, progress, nil)

	c, w := newTestContext(http.MethodGet, "/enrollments/enr-1/progress", nil, learnerClaims)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Progress(c)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.Projection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.PhaseUngraded, body.Data.Phase)
}

func TestEnrollmentHandlerRecapAttachment(t *testing.T) {
	recaps := &recapServiceMock{}
	handler := NewEnrollmentHandler(&enrollmentServiceMock{}, nil, recaps)

	c, w := newTestContext(http.MethodGet, "/enrollments/enr-1/recap?format=csv", nil, adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Recap(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", recaps.lastFormat)
	assert.Equal(t, `attachment; filename="recap_enr-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
