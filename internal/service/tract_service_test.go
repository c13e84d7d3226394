package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
)

type mockTractRepo struct {
	tracts       map[string]*models.Tract
	categories   map[string]*models.Category
	tags         map[string]*models.Tag
	linkedCats   []string
	linkedTags   []string
	scriptures   []*models.ScriptureReference
	incremented  []string
	incrementErr error
}

func newMockTractRepo() *mockTractRepo {
	return &mockTractRepo{
		tracts:     map[string]*models.Tract{},
		categories: map[string]*models.Category{},
		tags:       map[string]*models.Tag{},
	}
}

func (m *mockTractRepo) Create(ctx context.Context, tract *models.Tract) error {
	if tract.ID == "" {
		tract.ID = "t-new"
	}
	if tract.Status == "" {
		tract.Status = models.TractPending
	}
	m.tracts[tract.ID] = tract
	return nil
}

func (m *mockTractRepo) GetByID(ctx context.Context, id string) (*models.Tract, error) {
	tract, ok := m.tracts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *tract
	return &copied, nil
}

func (m *mockTractRepo) List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error) {
	var out []models.TractDetail
	for _, tract := range m.tracts {
		if filter.Status != nil && tract.Status != *filter.Status {
			continue
		}
		out = append(out, models.TractDetail{Tract: *tract})
	}
	return out, nil
}

func (m *mockTractRepo) UpdateStatus(ctx context.Context, id string, status models.TractStatus, now time.Time) (*models.Tract, error) {
	tract, ok := m.tracts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	tract.Status = status
	tract.UpdatedAt = now
	copied := *tract
	return &copied, nil
}

func (m *mockTractRepo) Patch(ctx context.Context, id string, patch models.TractPatch, now time.Time) (*models.Tract, error) {
	tract, ok := m.tracts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Title != nil {
		tract.Title = *patch.Title
	}
	if patch.Status != nil {
		tract.Status = *patch.Status
	}
	if patch.Featured != nil {
		tract.Featured = *patch.Featured
	}
	tract.UpdatedAt = now
	copied := *tract
	return &copied, nil
}

func (m *mockTractRepo) SetFeatured(ctx context.Context, id string, featured bool, now time.Time) error {
	tract, ok := m.tracts[id]
	if !ok {
		return sql.ErrNoRows
	}
	tract.Featured = featured
	return nil
}

func (m *mockTractRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.tracts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.tracts, id)
	return nil
}

func (m *mockTractRepo) IncrementDownloadCount(ctx context.Context, id string) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.incremented = append(m.incremented, id)
	if tract, ok := m.tracts[id]; ok {
		tract.DownloadCount++
	}
	return nil
}

func (m *mockTractRepo) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, ok := m.categories[slug]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return category, nil
}

func (m *mockTractRepo) LinkCategory(ctx context.Context, tractID, categoryID string) error {
	m.linkedCats = append(m.linkedCats, categoryID)
	return nil
}

func (m *mockTractRepo) CategoriesForTract(ctx context.Context, tractID string) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (m *mockTractRepo) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if tag, ok := m.tags[name]; ok {
		return tag, nil
	}
	tag := &models.Tag{ID: "tag-" + name, Name: name}
	m.tags[name] = tag
	return tag, nil
}

func (m *mockTractRepo) LinkTag(ctx context.Context, tractID, tagID string) error {
	m.linkedTags = append(m.linkedTags, tagID)
	return nil
}

func (m *mockTractRepo) CreateScriptureReference(ctx context.Context, ref *models.ScriptureReference) error {
	ref.ID = "sr-1"
	m.scriptures = append(m.scriptures, ref)
	return nil
}

func (m *mockTractRepo) LinkScripture(ctx context.Context, tractID, scriptureID string) error {
	return nil
}

type mockDownloadRecorder struct {
	records   []*models.Download
	recordErr error
}

func (m *mockDownloadRecorder) Record(ctx context.Context, download *models.Download) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, download)
	return nil
}

type mockFileStore struct {
	files   map[string][]byte
	deleted []string
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: map[string][]byte{}}
}

func (m *mockFileStore) SaveStream(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockFileStore) Open(filename string) (io.ReadCloser, error) {
	data, ok := m.files[filename]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockFileStore) Exists(filename string) bool {
	_, ok := m.files[filename]
	return ok
}

func (m *mockFileStore) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	delete(m.files, filename)
	return nil
}

func newTractService(repo *mockTractRepo, downloads *mockDownloadRecorder, files *mockFileStore) *TractService {
	return NewTractService(repo, downloads, files, nil, nil, UploadPolicy{
		MaxFileSize:  10 << 20,
		AllowedMIMEs: []string{"application/pdf"},
	}, validator.New(), zap.NewNop())
}

func pdfUpload(name string) UploadFile {
	return UploadFile{
		Reader:      strings.NewReader("%PDF-1.4 test"),
		Filename:    name,
		Size:        13,
		ContentType: "application/pdf",
	}
}

func uploadRequest(title string) dto.UploadTractRequest {
	return dto.UploadTractRequest{
		Title:        title,
		Description:  "A short pamphlet",
		Category:     "evangelism",
		Denomination: "Baptist",
		Language:     "en",
		Tags:         `["salvation"]`,
	}
}

func TestSubmitCreatesPendingTract(t *testing.T) {
	repo := newMockTractRepo()
	files := newMockFileStore()
	svc := newTractService(repo, &mockDownloadRecorder{}, files)

	tract, err := svc.Submit(context.Background(), "u1", uploadRequest("Grace"), pdfUpload("grace.pdf"))
	require.NoError(t, err)
	assert.Equal(t, models.TractPending, tract.Status)
	assert.Equal(t, "u1", tract.AuthorID)
	assert.Equal(t, "grace.pdf", tract.FileName)
	assert.True(t, strings.HasPrefix(tract.FileURL, "/uploads/tracts/"))
	assert.True(t, strings.HasSuffix(tract.FileURL, ".pdf"))
	assert.Len(t, files.files, 1)
}

func TestSubmitRequiresAllMetadata(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.UploadTractRequest)
	}{
		{"missing title", func(r *dto.UploadTractRequest) { r.Title = "  " }},
		{"missing description", func(r *dto.UploadTractRequest) { r.Description = "" }},
		{"missing category", func(r *dto.UploadTractRequest) { r.Category = "" }},
		{"missing denomination", func(r *dto.UploadTractRequest) { r.Denomination = "" }},
		{"missing language", func(r *dto.UploadTractRequest) { r.Language = "" }},
		{"no tags", func(r *dto.UploadTractRequest) { r.Tags = "" }},
		{"blank tags", func(r *dto.UploadTractRequest) { r.Tags = `[" ", ""]` }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockTractRepo()
			files := newMockFileStore()
			svc := newTractService(repo, &mockDownloadRecorder{}, files)

			req := uploadRequest("Grace")
			tc.mutate(&req)
			_, err := svc.Submit(context.Background(), "u1", req, pdfUpload("grace.pdf"))
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, repo.tracts)
			assert.Empty(t, files.files)
		})
	}
}

func TestSubmitNormalizesLanguageCode(t *testing.T) {
	repo := newMockTractRepo()
	svc := newTractService(repo, &mockDownloadRecorder{}, newMockFileStore())

	req := uploadRequest("Grace")
	req.Language = " EN-us "
	tract, err := svc.Submit(context.Background(), "u1", req, pdfUpload("grace.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "en", tract.Language)
}

func TestSubmitRejectsNonPDF(t *testing.T) {
	svc := newTractService(newMockTractRepo(), &mockDownloadRecorder{}, newMockFileStore())

	upload := pdfUpload("notes.txt")
	upload.ContentType = "text/plain"
	_, err := svc.Submit(context.Background(), "u1", uploadRequest("Notes"), upload)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "only PDF files are accepted")
}

func TestSubmitRejectsOversizedFile(t *testing.T) {
	svc := newTractService(newMockTractRepo(), &mockDownloadRecorder{}, newMockFileStore())

	upload := pdfUpload("big.pdf")
	upload.Size = (10 << 20) + 1
	_, err := svc.Submit(context.Background(), "u1", uploadRequest("Big"), upload)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "byte limit")
}

func TestSubmitSkipsUnknownCategory(t *testing.T) {
	repo := newMockTractRepo()
	svc := newTractService(repo, &mockDownloadRecorder{}, newMockFileStore())

	req := uploadRequest("Grace")
	req.Category = "no-such-slug"
	tract, err := svc.Submit(context.Background(), "u1", req, pdfUpload("grace.pdf"))
	require.NoError(t, err)
	assert.NotEmpty(t, tract.ID)
	assert.Empty(t, repo.linkedCats)
}

func TestSubmitNormalizesTags(t *testing.T) {
	repo := newMockTractRepo()
	svc := newTractService(repo, &mockDownloadRecorder{}, newMockFileStore())

	req := uploadRequest("Grace")
	req.Tags = `["Salvation", " Good News "]`
	_, err := svc.Submit(context.Background(), "u1", req, pdfUpload("grace.pdf"))
	require.NoError(t, err)
	assert.Contains(t, repo.tags, "salvation")
	assert.Contains(t, repo.tags, "good news")
	assert.Len(t, repo.linkedTags, 2)
}

func TestReviewRoundTrip(t *testing.T) {
	repo := newMockTractRepo()
	repo.tracts["t1"] = &models.Tract{ID: "t1", Status: models.TractPending}
	svc := newTractService(repo, &mockDownloadRecorder{}, newMockFileStore())

	approved, err := svc.Review(context.Background(), dto.ReviewTractRequest{TractID: "t1", Status: models.TractApproved})
	require.NoError(t, err)
	assert.Equal(t, models.TractApproved, approved.Status)

	rejected, err := svc.Review(context.Background(), dto.ReviewTractRequest{TractID: "t1", Status: models.TractRejected})
	require.NoError(t, err)
	assert.Equal(t, models.TractRejected, rejected.Status)
}

func TestReviewUnknownTract(t *testing.T) {
	svc := newTractService(newMockTractRepo(), &mockDownloadRecorder{}, newMockFileStore())

	_, err := svc.Review(context.Background(), dto.ReviewTractRequest{TractID: "missing", Status: models.TractApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDownloadIncrementsCounterAndLedger(t *testing.T) {
	repo := newMockTractRepo()
	files := newMockFileStore()
	files.files["stored.pdf"] = []byte("%PDF-1.4")
	repo.tracts["t1"] = &models.Tract{ID: "t1", FileURL: "/uploads/tracts/stored.pdf", Status: models.TractApproved}
	downloads := &mockDownloadRecorder{}
	svc := newTractService(repo, downloads, files)

	userID := "u1"
	reader, tract, err := svc.Download(context.Background(), "t1", DownloadMeta{UserID: &userID, IPAddress: "203.0.113.9"})
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "t1", tract.ID)
	assert.Equal(t, []string{"t1"}, repo.incremented)
	require.Len(t, downloads.records, 1)
	assert.Equal(t, "t1", downloads.records[0].TractID)
	assert.Equal(t, &userID, downloads.records[0].UserID)
}

func TestDownloadMissingFileHasNoSideEffects(t *testing.T) {
	repo := newMockTractRepo()
	repo.tracts["t1"] = &models.Tract{ID: "t1", FileURL: "/uploads/tracts/gone.pdf", Status: models.TractApproved}
	downloads := &mockDownloadRecorder{}
	svc := newTractService(repo, downloads, newMockFileStore())

	_, _, err := svc.Download(context.Background(), "t1", DownloadMeta{IPAddress: "203.0.113.9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.incremented)
	assert.Empty(t, downloads.records)
}

func TestDownloadSwallowsLedgerFailure(t *testing.T) {
	repo := newMockTractRepo()
	files := newMockFileStore()
	files.files["stored.pdf"] = []byte("%PDF-1.4")
	repo.tracts["t1"] = &models.Tract{ID: "t1", FileURL: "/uploads/tracts/stored.pdf"}
	downloads := &mockDownloadRecorder{recordErr: io.ErrClosedPipe}
	svc := newTractService(repo, downloads, files)

	reader, _, err := svc.Download(context.Background(), "t1", DownloadMeta{IPAddress: "203.0.113.9"})
	require.NoError(t, err)
	reader.Close()
}

func TestPreviewDoesNotRecord(t *testing.T) {
	repo := newMockTractRepo()
	files := newMockFileStore()
	files.files["stored.pdf"] = []byte("%PDF-1.4")
	repo.tracts["t1"] = &models.Tract{ID: "t1", FileURL: "/uploads/tracts/stored.pdf"}
	downloads := &mockDownloadRecorder{}
	svc := newTractService(repo, downloads, files)

	reader, _, err := svc.Preview(context.Background(), "t1")
	require.NoError(t, err)
	reader.Close()
	assert.Empty(t, repo.incremented)
	assert.Empty(t, downloads.records)
}

func TestDeleteRemovesStoredFile(t *testing.T) {
	repo := newMockTractRepo()
	files := newMockFileStore()
	files.files["stored.pdf"] = []byte("%PDF-1.4")
	repo.tracts["t1"] = &models.Tract{ID: "t1", FileURL: "/uploads/tracts/stored.pdf"}
	svc := newTractService(repo, &mockDownloadRecorder{}, files)

	err := svc.Delete(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotContains(t, repo.tracts, "t1")
	assert.Equal(t, []string{"stored.pdf"}, files.deleted)
}

func TestUpdateAllowsStatusRollback(t *testing.T) {
	repo := newMockTractRepo()
	repo.tracts["t1"] = &models.Tract{ID: "t1", Status: models.TractApproved}
	svc := newTractService(repo, &mockDownloadRecorder{}, newMockFileStore())

	status := models.TractPending
	tract, err := svc.Update(context.Background(), dto.UpdateTractRequest{ID: "t1", Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.TractPending, tract.Status)
}
