package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
)

type adminTractServiceMock struct {
	lastFilter models.TractFilter
	reviewReq  dto.ReviewTractRequest
	reviewErr  error
	deleted    []string
}

func (m *adminTractServiceMock) List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error) {
	m.lastFilter = filter
	return []models.TractDetail{}, nil
}

func (m *adminTractServiceMock) Review(ctx context.Context, req dto.ReviewTractRequest) (*models.Tract, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	m.reviewReq = req
	return &models.Tract{ID: req.TractID, Status: req.Status}, nil
}

func (m *adminTractServiceMock) Update(ctx context.Context, req dto.UpdateTractRequest) (*models.Tract, error) {
	return &models.Tract{ID: req.ID}, nil
}

func (m *adminTractServiceMock) SetFeatured(ctx context.Context, id string, featured bool) error {
	return nil
}

func (m *adminTractServiceMock) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type statsServiceMock struct {
	exportFormat string
}

func (m *statsServiceMock) Dashboard(ctx context.Context) (*dto.AdminStatsResponse, error) {
	return &dto.AdminStatsResponse{TotalTracts: 3, MonthlyGrowth: dto.MonthlyGrowth{Tracts: 100}}, nil
}

func (m *statsServiceMock) Export(ctx context.Context, format string) ([]byte, string, error) {
	m.exportFormat = format
	if format == "pdf" {
		return []byte("%PDF-1.4"), "application/pdf", nil
	}
	return []byte("Metric,Value\n"), "text/csv", nil
}

func jsonContext(t *testing.T, method, target string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestPendingTractsFiltersPending(t *testing.T) {
	mock := &adminTractServiceMock{}
	handler := NewAdminHandler(mock, &statsServiceMock{})
	c, w := testContext(t, http.MethodGet, "/admin/pending-tracts")

	handler.PendingTracts(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, models.TractPending, *mock.lastFilter.Status)
}

func TestReviewApproves(t *testing.T) {
	mock := &adminTractServiceMock{}
	handler := NewAdminHandler(mock, &statsServiceMock{})
	c, w := jsonContext(t, http.MethodPatch, "/admin/pending-tracts", dto.ReviewTractRequest{
		TractID: "t1",
		Status:  models.TractApproved,
	})

	handler.Review(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", mock.reviewReq.TractID)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
}

func TestReviewInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&adminTractServiceMock{}, &statsServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/admin/pending-tracts", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Review(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewUnknownTract(t *testing.T) {
	mock := &adminTractServiceMock{reviewErr: appErrors.Clone(appErrors.ErrNotFound, "tract not found")}
	handler := NewAdminHandler(mock, &statsServiceMock{})
	c, w := jsonContext(t, http.MethodPatch, "/admin/pending-tracts", dto.ReviewTractRequest{
		TractID: "missing",
		Status:  models.TractApproved,
	})

	handler.Review(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "tract not found")
}

func TestDeleteTract(t *testing.T) {
	mock := &adminTractServiceMock{}
	handler := NewAdminHandler(mock, &statsServiceMock{})
	c, w := jsonContext(t, http.MethodDelete, "/tracts", dto.DeleteTractRequest{TractID: "t1"})

	handler.DeleteTract(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"t1"}, mock.deleted)
}

func TestStatsPayload(t *testing.T) {
	handler := NewAdminHandler(&adminTractServiceMock{}, &statsServiceMock{})
	c, w := testContext(t, http.MethodGet, "/admin/stats")

	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_tracts":3`)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestExportStatsDefaultsToCSV(t *testing.T) {
	stats := &statsServiceMock{}
	handler := NewAdminHandler(&adminTractServiceMock{}, stats)
	c, w := testContext(t, http.MethodGet, "/admin/stats/export")

	handler.ExportStats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", stats.exportFormat)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

func TestExportStatsPDF(t *testing.T) {
	stats := &statsServiceMock{}
	handler := NewAdminHandler(&adminTractServiceMock{}, stats)
	c, w := testContext(t, http.MethodGet, "/admin/stats/export?format=pdf")

	handler.ExportStats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/pdf")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
}
