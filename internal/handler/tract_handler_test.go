package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/middleware"
	"github.com/tractshare/tract-api/internal/models"
	"github.com/tractshare/tract-api/internal/service"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
)

type tractServiceMock struct {
	lastFilter  models.TractFilter
	listResp    []models.TractDetail
	getResp     *models.Tract
	getErr      error
	downloadErr error
	fileBody    string
	meta        service.DownloadMeta
}

func (m *tractServiceMock) List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error) {
	m.lastFilter = filter
	return m.listResp, nil
}

func (m *tractServiceMock) Get(ctx context.Context, id string) (*models.Tract, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *tractServiceMock) Submit(ctx context.Context, authorID string, req dto.UploadTractRequest, file service.UploadFile) (*models.Tract, error) {
	return &models.Tract{ID: "t-new", Title: req.Title, Status: models.TractPending, AuthorID: authorID}, nil
}

func (m *tractServiceMock) Download(ctx context.Context, id string, meta service.DownloadMeta) (io.ReadCloser, *models.Tract, error) {
	if m.downloadErr != nil {
		return nil, nil, m.downloadErr
	}
	m.meta = meta
	return io.NopCloser(strings.NewReader(m.fileBody)), m.getResp, nil
}

func (m *tractServiceMock) Preview(ctx context.Context, id string) (io.ReadCloser, *models.Tract, error) {
	if m.downloadErr != nil {
		return nil, nil, m.downloadErr
	}
	return io.NopCloser(strings.NewReader(m.fileBody)), m.getResp, nil
}

func testContext(t *testing.T, method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

func TestListAnonymousSeesApprovedOnly(t *testing.T) {
	mock := &tractServiceMock{}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts?status=pending")

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, models.TractApproved, *mock.lastFilter.Status)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestListAdminMayFilterByStatus(t *testing.T) {
	mock := &tractServiceMock{}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts?status=pending")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, models.TractPending, *mock.lastFilter.Status)
}

func TestListAdminAllBypassesStatusFilter(t *testing.T) {
	mock := &tractServiceMock{}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts?all=true")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mock.lastFilter.Status)
}

func TestListAdminDefaultsToApproved(t *testing.T) {
	mock := &tractServiceMock{}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, models.TractApproved, *mock.lastFilter.Status)
}

func TestListNonAdminAllIgnored(t *testing.T) {
	mock := &tractServiceMock{}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts?all=true")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleUser})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, models.TractApproved, *mock.lastFilter.Status)
}

func TestUploadWithoutClaims(t *testing.T) {
	handler := NewTractHandler(&tractServiceMock{})
	c, w := testContext(t, http.MethodPost, "/tracts/upload")

	handler.Upload(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestDownloadStreamsAttachment(t *testing.T) {
	mock := &tractServiceMock{
		getResp:  &models.Tract{ID: "t1", FileName: "grace.pdf", FileSize: 8},
		fileBody: "%PDF-1.4",
	}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts/t1/download")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleUser})

	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="grace.pdf"`)
	assert.Equal(t, "%PDF-1.4", w.Body.String())
	require.NotNil(t, mock.meta.UserID)
	assert.Equal(t, "u1", *mock.meta.UserID)
}

func TestDownloadMissingTract(t *testing.T) {
	mock := &tractServiceMock{downloadErr: appErrors.Clone(appErrors.ErrNotFound, "tract file not found")}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts/t1/download")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.Download(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "tract file not found")
}

func TestPreviewInlineDisposition(t *testing.T) {
	mock := &tractServiceMock{
		getResp:  &models.Tract{ID: "t1", FileName: "grace.pdf"},
		fileBody: "%PDF-1.4",
	}
	handler := NewTractHandler(mock)
	c, w := testContext(t, http.MethodGet, "/tracts/t1/preview")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.Preview(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
}
