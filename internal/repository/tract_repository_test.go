package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tractshare/tract-api/internal/models"
)

func tractColumnsList() []string {
	return []string{"id", "title", "description", "author_id", "denomination", "language", "file_url", "file_name", "file_size", "download_count", "status", "featured", "created_at", "updated_at"}
}

func TestCreateTractDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	mock.ExpectExec("INSERT INTO tracts").WillReturnResult(sqlmock.NewResult(1, 1))

	tract := &models.Tract{Title: "Grace", AuthorID: "u1", FileURL: "/uploads/tracts/x.pdf"}
	err := repo.Create(context.Background(), tract)
	require.NoError(t, err)
	assert.NotEmpty(t, tract.ID)
	assert.Equal(t, models.TractPending, tract.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTractsWithStatusAndSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	now := time.Now()
	cols := append(tractColumnsList(), "author_name", "author_email")
	rows := sqlmock.NewRows(cols).
		AddRow("t1", "Grace", "desc", "u1", "Baptist", "English", "/uploads/tracts/x.pdf", "grace.pdf", int64(1024), 7, string(models.TractApproved), false, now, now, "Alice", "alice@example.com")
	mock.ExpectQuery("SELECT .* FROM tracts t LEFT JOIN users u .* AND t.status = \\$1 AND \\(t.title ILIKE \\$2 .* ORDER BY t.created_at DESC").
		WithArgs(string(models.TractApproved), "%grace%").
		WillReturnRows(rows)

	status := models.TractApproved
	details, err := repo.List(context.Background(), models.TractFilter{Status: &status, Search: "grace"})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Grace", details[0].Title)
	require.NotNil(t, details[0].Author)
	assert.Equal(t, "alice@example.com", details[0].Author.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	mock.ExpectExec("UPDATE tracts SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateStatus(context.Background(), "missing", models.TractApproved, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchBuildsOnlyProvidedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	now := time.Now()
	title := "New Title"
	featured := true

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracts SET updated_at = $2, title = $3, featured = $4 WHERE id = $1")).
		WithArgs("t1", now, title, featured).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows(tractColumnsList()).
		AddRow("t1", title, "desc", "u1", "Baptist", "English", "/uploads/tracts/x.pdf", "x.pdf", int64(1), 0, string(models.TractPending), true, now, now)
	mock.ExpectQuery("SELECT .* FROM tracts WHERE id = \\$1").
		WithArgs("t1").
		WillReturnRows(rows)

	tract, err := repo.Patch(context.Background(), "t1", models.TractPatch{Title: &title, Featured: &featured}, now)
	require.NoError(t, err)
	assert.Equal(t, title, tract.Title)
	assert.True(t, tract.Featured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementDownloadCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracts SET download_count = download_count + 1 WHERE id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.IncrementDownloadCount(context.Background(), "t1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateTagNormalizes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	mock.ExpectQuery("SELECT id, name, slug FROM tags WHERE name").
		WithArgs("good news").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO tags").
		WillReturnResult(sqlmock.NewResult(1, 1))

	tag, err := repo.GetOrCreateTag(context.Background(), "  Good News ")
	require.NoError(t, err)
	assert.Equal(t, "good news", tag.Name)
	assert.Equal(t, "good-news", tag.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCategoryBySlugMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTractRepository(db)

	mock.ExpectQuery("SELECT id, name, slug, description FROM categories WHERE slug").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindCategoryBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
