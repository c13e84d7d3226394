package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
)

// statsCachePattern matches every cached dashboard payload. Any tract or
// ledger mutation invalidates the whole family.
const statsCachePattern = "stats:*"

type tractRepository interface {
	Create(ctx context.Context, tract *models.Tract) error
	GetByID(ctx context.Context, id string) (*models.Tract, error)
	List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.TractStatus, now time.Time) (*models.Tract, error)
	Patch(ctx context.Context, id string, patch models.TractPatch, now time.Time) (*models.Tract, error)
	SetFeatured(ctx context.Context, id string, featured bool, now time.Time) error
	Delete(ctx context.Context, id string) error
	IncrementDownloadCount(ctx context.Context, id string) error
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	LinkCategory(ctx context.Context, tractID, categoryID string) error
	CategoriesForTract(ctx context.Context, tractID string) ([]models.Category, error)
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error)
	LinkTag(ctx context.Context, tractID, tagID string) error
	CreateScriptureReference(ctx context.Context, ref *models.ScriptureReference) error
	LinkScripture(ctx context.Context, tractID, scriptureID string) error
}

type downloadRecorder interface {
	Record(ctx context.Context, download *models.Download) error
}

// FileStore abstracts the upload file backend.
type FileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (io.ReadCloser, error)
	Exists(filename string) bool
	Delete(filename string) error
}

// UploadPolicy constrains accepted upload files.
type UploadPolicy struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// Allows reports whether the content type is acceptable.
func (p UploadPolicy) Allows(contentType string) bool {
	mime := strings.TrimSpace(strings.Split(contentType, ";")[0])
	for _, allowed := range p.AllowedMIMEs {
		if strings.EqualFold(mime, allowed) {
			return true
		}
	}
	return false
}

// UploadFile describes the incoming multipart file.
type UploadFile struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	ContentType string
}

// DownloadMeta identifies the requester for the ledger.
type DownloadMeta struct {
	UserID    *string
	IPAddress string
	UserAgent *string
}

// TractService implements the tract lifecycle: submission, review, admin
// edits, deletion and the download path.
type TractService struct {
	repo      tractRepository
	downloads downloadRecorder
	files     FileStore
	cache     *CacheService
	metrics   *MetricsService
	policy    UploadPolicy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTractService constructs a TractService instance.
func NewTractService(repo tractRepository, downloads downloadRecorder, files FileStore, cache *CacheService, metrics *MetricsService, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *TractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if policy.MaxFileSize <= 0 {
		policy.MaxFileSize = 10 << 20
	}
	if len(policy.AllowedMIMEs) == 0 {
		policy.AllowedMIMEs = []string{"application/pdf"}
	}
	return &TractService{
		repo:      repo,
		downloads: downloads,
		files:     files,
		cache:     cache,
		metrics:   metrics,
		policy:    policy,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns tracts for the given filter, each with its categories.
func (s *TractService) List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error) {
	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tracts")
	}
	for i := range details {
		categories, err := s.repo.CategoriesForTract(ctx, details[i].ID)
		if err != nil {
			s.logger.Warn("failed to load tract categories", zap.String("tract_id", details[i].ID), zap.Error(err))
			continue
		}
		details[i].Categories = categories
	}
	return details, nil
}

// Get returns a single tract.
func (s *TractService) Get(ctx context.Context, id string) (*models.Tract, error) {
	tract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tract")
	}
	return tract, nil
}

// Submit stores the uploaded PDF and creates a pending tract. Title,
// description, category, denomination, language and at least one tag are all
// mandatory. The category is matched by slug and silently skipped when
// unknown; tags are get-or-created; scripture references are parsed from the
// JSON form field.
func (s *TractService) Submit(ctx context.Context, authorID string, req dto.UploadTractRequest, file UploadFile) (*models.Tract, error) {
	required := []struct {
		name, value string
	}{
		{"title", req.Title},
		{"description", req.Description},
		{"category", req.Category},
		{"denomination", req.Denomination},
		{"language", req.Language},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, field.name+" is required")
		}
	}
	tags := decodeStringList(req.Tags)
	if len(tags) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one tag is required")
	}
	if file.Reader == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if !s.policy.Allows(file.ContentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only PDF files are accepted")
	}
	if file.Size > s.policy.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.policy.MaxFileSize))
	}

	storedName := uuid.NewString() + strings.ToLower(path.Ext(file.Filename))
	if path.Ext(storedName) == "" {
		storedName += ".pdf"
	}
	if _, err := s.files.SaveStream(storedName, io.LimitReader(file.Reader, s.policy.MaxFileSize+1)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	tract := &models.Tract{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		AuthorID:     authorID,
		Denomination: strings.TrimSpace(req.Denomination),
		Language:     languageCode(req.Language),
		FileURL:      "/uploads/tracts/" + storedName,
		FileName:     file.Filename,
		FileSize:     file.Size,
		Status:       models.TractPending,
	}
	if err := s.repo.Create(ctx, tract); err != nil {
		if delErr := s.files.Delete(storedName); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file", storedName), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tract")
	}

	s.attachCategory(ctx, tract.ID, req.Category)
	s.attachTags(ctx, tract.ID, tags)
	s.attachScriptures(ctx, tract.ID, req.ScriptureReferences)

	s.invalidateStats(ctx)
	if s.metrics != nil {
		s.metrics.RecordTractUpload()
	}
	s.logger.Info("tract submitted", zap.String("tract_id", tract.ID), zap.String("author_id", authorID))
	return tract, nil
}

// Review records an approve/reject decision.
func (s *TractService) Review(ctx context.Context, req dto.ReviewTractRequest) (*models.Tract, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	tract, err := s.repo.UpdateStatus(ctx, req.TractID, req.Status, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review tract")
	}

	s.invalidateStats(ctx)
	s.logger.Info("tract reviewed", zap.String("tract_id", tract.ID), zap.String("status", string(tract.Status)))
	return tract, nil
}

// Update applies an admin partial edit. Status changes here may move a tract
// backwards in the lifecycle; that is allowed for admins.
func (s *TractService) Update(ctx context.Context, req dto.UpdateTractRequest) (*models.Tract, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tract payload")
	}

	patch := models.TractPatch{
		Title:        req.Title,
		Description:  req.Description,
		Denomination: req.Denomination,
		Language:     req.Language,
		Status:       req.Status,
		Featured:     req.Featured,
	}
	tract, err := s.repo.Patch(ctx, req.ID, patch, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tract")
	}

	s.invalidateStats(ctx)
	return tract, nil
}

// SetFeatured toggles the featured flag without touching status.
func (s *TractService) SetFeatured(ctx context.Context, id string, featured bool) error {
	if err := s.repo.SetFeatured(ctx, id, featured, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tract")
	}
	s.invalidateStats(ctx)
	return nil
}

// Delete removes the tract record, then the stored file best effort.
func (s *TractService) Delete(ctx context.Context, id string) error {
	tract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tract")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tract")
	}

	if name := storedFileName(tract.FileURL); name != "" {
		if err := s.files.Delete(name); err != nil {
			s.logger.Warn("failed to remove tract file", zap.String("tract_id", id), zap.Error(err))
		}
	}

	s.invalidateStats(ctx)
	s.logger.Info("tract deleted", zap.String("tract_id", id))
	return nil
}

// Download opens the stored file and records the event. A missing file is a
// clean 404 with no counter or ledger side effects. Side-effect failures
// after the file is open are logged and swallowed so the download proceeds.
func (s *TractService) Download(ctx context.Context, id string, meta DownloadMeta) (io.ReadCloser, *models.Tract, error) {
	tract, reader, err := s.openFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		s.logger.Warn("failed to increment download count", zap.String("tract_id", id), zap.Error(err))
	}
	if err := s.downloads.Record(ctx, &models.Download{
		TractID:   id,
		UserID:    meta.UserID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to append download ledger", zap.String("tract_id", id), zap.Error(err))
	}

	s.invalidateStats(ctx)
	if s.metrics != nil {
		s.metrics.RecordTractDownload()
	}
	return reader, tract, nil
}

// Preview opens the stored file without recording a download.
func (s *TractService) Preview(ctx context.Context, id string) (io.ReadCloser, *models.Tract, error) {
	tract, reader, err := s.openFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return reader, tract, nil
}

func (s *TractService) openFile(ctx context.Context, id string) (*models.Tract, io.ReadCloser, error) {
	tract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "tract not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tract")
	}

	name := storedFileName(tract.FileURL)
	if name == "" || !s.files.Exists(name) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "tract file not found")
	}
	reader, err := s.files.Open(name)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open tract file")
	}
	return tract, reader, nil
}

func (s *TractService) attachCategory(ctx context.Context, tractID, slug string) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return
	}
	category, err := s.repo.FindCategoryBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve category", zap.String("slug", slug), zap.Error(err))
		}
		return
	}
	if err := s.repo.LinkCategory(ctx, tractID, category.ID); err != nil {
		s.logger.Warn("failed to link category", zap.String("tract_id", tractID), zap.Error(err))
	}
}

func (s *TractService) attachTags(ctx context.Context, tractID string, names []string) {
	for _, name := range names {
		tag, err := s.repo.GetOrCreateTag(ctx, name)
		if err != nil {
			s.logger.Warn("failed to resolve tag", zap.String("tag", name), zap.Error(err))
			continue
		}
		if err := s.repo.LinkTag(ctx, tractID, tag.ID); err != nil {
			s.logger.Warn("failed to link tag", zap.String("tract_id", tractID), zap.Error(err))
		}
	}
}

func (s *TractService) attachScriptures(ctx context.Context, tractID, encoded string) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return
	}
	var inputs []dto.ScriptureReferenceInput
	if err := json.Unmarshal([]byte(encoded), &inputs); err != nil {
		s.logger.Warn("failed to decode scripture references", zap.String("tract_id", tractID), zap.Error(err))
		return
	}
	for _, input := range inputs {
		if strings.TrimSpace(input.Book) == "" || input.Chapter <= 0 {
			continue
		}
		ref := &models.ScriptureReference{
			Book:       strings.TrimSpace(input.Book),
			Chapter:    input.Chapter,
			VerseStart: input.VerseStart,
			VerseEnd:   input.VerseEnd,
			Version:    strings.TrimSpace(input.Version),
		}
		if err := s.repo.CreateScriptureReference(ctx, ref); err != nil {
			s.logger.Warn("failed to store scripture reference", zap.String("tract_id", tractID), zap.Error(err))
			continue
		}
		if err := s.repo.LinkScripture(ctx, tractID, ref.ID); err != nil {
			s.logger.Warn("failed to link scripture reference", zap.String("tract_id", tractID), zap.Error(err))
		}
	}
}

func (s *TractService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statsCachePattern); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

// decodeStringList accepts either a JSON array or a comma separated list.
func decodeStringList(encoded string) []string {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(encoded), &names); err != nil {
		names = strings.Split(encoded, ",")
	}
	out := names[:0]
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// languageCode folds a language input to a lowercase two-letter code, so
// "EN-us" and "english" both land on "en".
func languageCode(input string) string {
	code := strings.ToLower(strings.TrimSpace(input))
	if len(code) > 2 {
		code = code[:2]
	}
	return code
}

// storedFileName maps a public file URL back to the storage key.
func storedFileName(fileURL string) string {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return ""
	}
	name := path.Base(fileURL)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
