package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tractshare/tract-api/internal/models"
)

// TractRepository provides database access for tract records and their
// category/tag/scripture associations.
type TractRepository struct {
	db *sqlx.DB
}

// NewTractRepository creates a new instance of TractRepository.
func NewTractRepository(db *sqlx.DB) *TractRepository {
	return &TractRepository{db: db}
}

const tractColumns = `id, title, description, author_id, denomination, language, file_url, file_name, file_size, download_count, status, featured, created_at, updated_at`

// tractRow joins a tract with its author columns for scanning.
type tractRow struct {
	models.Tract
	AuthorName  *string `db:"author_name"`
	AuthorEmail *string `db:"author_email"`
}

func (row tractRow) detail() models.TractDetail {
	detail := models.TractDetail{Tract: row.Tract, Categories: []models.Category{}}
	if row.AuthorEmail != nil {
		detail.Author = &models.TractAuthor{
			ID:    row.AuthorID,
			Name:  row.AuthorName,
			Email: *row.AuthorEmail,
		}
	}
	return detail
}

// Create inserts a new tract record.
func (r *TractRepository) Create(ctx context.Context, tract *models.Tract) error {
	if tract.ID == "" {
		tract.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tract.CreatedAt.IsZero() {
		tract.CreatedAt = now
	}
	tract.UpdatedAt = now
	if tract.Status == "" {
		tract.Status = models.TractPending
	}

	const query = `INSERT INTO tracts (id, title, description, author_id, denomination, language, file_url, file_name, file_size, download_count, status, featured, created_at, updated_at) VALUES (:id, :title, :description, :author_id, :denomination, :language, :file_url, :file_name, :file_size, :download_count, :status, :featured, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tract); err != nil {
		return fmt.Errorf("create tract: %w", err)
	}
	return nil
}

// GetByID returns a tract by identifier.
func (r *TractRepository) GetByID(ctx context.Context, id string) (*models.Tract, error) {
	query := fmt.Sprintf(`SELECT %s FROM tracts WHERE id = $1 LIMIT 1`, tractColumns)
	var tract models.Tract
	if err := r.db.GetContext(ctx, &tract, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find tract by id: %w", err)
	}
	return &tract, nil
}

// List returns tracts with author info, newest first. A nil filter status
// means no status constraint (admin viewing all).
func (r *TractRepository) List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error) {
	query := `SELECT t.id, t.title, t.description, t.author_id, t.denomination, t.language, t.file_url, t.file_name, t.file_size, t.download_count, t.status, t.featured, t.created_at, t.updated_at, u.name AS author_name, u.email AS author_email FROM tracts t LEFT JOIN users u ON u.id = t.author_id WHERE 1=1`
	var args []interface{}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		query += fmt.Sprintf(" AND (t.title ILIKE $%d OR t.description ILIKE $%d OR t.denomination ILIKE $%d)", idx, idx, idx)
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}
	query += " ORDER BY t.created_at DESC"

	var rows []tractRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tracts: %w", err)
	}

	details := make([]models.TractDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.detail())
	}
	return details, nil
}

// UpdateStatus sets the review decision and stamps the modification time.
func (r *TractRepository) UpdateStatus(ctx context.Context, id string, status models.TractStatus, now time.Time) (*models.Tract, error) {
	const query = `UPDATE tracts SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, now)
	if err != nil {
		return nil, fmt.Errorf("update tract status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

// Patch overwrites the provided fields only, always stamping updated_at.
func (r *TractRepository) Patch(ctx context.Context, id string, patch models.TractPatch, now time.Time) (*models.Tract, error) {
	sets := []string{"updated_at = $2"}
	args := []interface{}{id, now}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.Denomination != nil {
		appendSet("denomination", *patch.Denomination)
	}
	if patch.Language != nil {
		appendSet("language", *patch.Language)
	}
	if patch.Status != nil {
		appendSet("status", *patch.Status)
	}
	if patch.Featured != nil {
		appendSet("featured", *patch.Featured)
	}

	query := fmt.Sprintf("UPDATE tracts SET %s WHERE id = $1", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patch tract: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

// SetFeatured toggles the featured flag independently of status.
func (r *TractRepository) SetFeatured(ctx context.Context, id string, featured bool, now time.Time) error {
	const query = `UPDATE tracts SET featured = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, featured, now)
	if err != nil {
		return fmt.Errorf("set tract featured: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the tract row; junction and ledger rows go by cascade.
func (r *TractRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tracts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tract: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementDownloadCount bumps the denormalized counter in a single atomic
// statement so concurrent downloads never lose updates.
func (r *TractRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	const query = `UPDATE tracts SET download_count = download_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}

// FindCategoryBySlug resolves a category or returns sql.ErrNoRows.
func (r *TractRepository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	const query = `SELECT id, name, slug, description FROM categories WHERE slug = $1 LIMIT 1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return &category, nil
}

// LinkCategory associates the tract with an existing category.
func (r *TractRepository) LinkCategory(ctx context.Context, tractID, categoryID string) error {
	const query = `INSERT INTO tract_categories (tract_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, tractID, categoryID); err != nil {
		return fmt.Errorf("link tract category: %w", err)
	}
	return nil
}

// CategoriesForTract lists the categories attached to a tract.
func (r *TractRepository) CategoriesForTract(ctx context.Context, tractID string) ([]models.Category, error) {
	const query = `SELECT c.id, c.name, c.slug, c.description FROM tract_categories tc INNER JOIN categories c ON c.id = tc.category_id WHERE tc.tract_id = $1`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, tractID); err != nil {
		return nil, fmt.Errorf("list tract categories: %w", err)
	}
	return categories, nil
}

// GetOrCreateTag resolves a tag by its lower-cased name, creating it when
// missing. The slug replaces whitespace runs with dashes.
func (r *TractRepository) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("empty tag name")
	}

	const findQuery = `SELECT id, name, slug FROM tags WHERE name = $1 LIMIT 1`
	var tag models.Tag
	err := r.db.GetContext(ctx, &tag, findQuery, name)
	if err == nil {
		return &tag, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find tag: %w", err)
	}

	tag = models.Tag{
		ID:   uuid.NewString(),
		Name: name,
		Slug: strings.Join(strings.Fields(name), "-"),
	}
	const insertQuery = `INSERT INTO tags (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, insertQuery, tag.ID, tag.Name, tag.Slug, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return &tag, nil
}

// LinkTag associates the tract with a tag.
func (r *TractRepository) LinkTag(ctx context.Context, tractID, tagID string) error {
	const query = `INSERT INTO tract_tags (tract_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, tractID, tagID); err != nil {
		return fmt.Errorf("link tract tag: %w", err)
	}
	return nil
}

// CreateScriptureReference stores a passage record and returns its id.
func (r *TractRepository) CreateScriptureReference(ctx context.Context, ref *models.ScriptureReference) error {
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.Version == "" {
		ref.Version = "NIV"
	}
	const query = `INSERT INTO scripture_references (id, book, chapter, verse_start, verse_end, version, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, ref.ID, ref.Book, ref.Chapter, ref.VerseStart, ref.VerseEnd, ref.Version, time.Now().UTC()); err != nil {
		return fmt.Errorf("create scripture reference: %w", err)
	}
	return nil
}

// LinkScripture associates the tract with a scripture reference.
func (r *TractRepository) LinkScripture(ctx context.Context, tractID, scriptureID string) error {
	const query = `INSERT INTO tract_scriptures (tract_id, scripture_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, tractID, scriptureID); err != nil {
		return fmt.Errorf("link tract scripture: %w", err)
	}
	return nil
}
