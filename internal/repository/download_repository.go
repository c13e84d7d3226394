package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tractshare/tract-api/internal/models"
)

// DownloadRepository appends to the immutable download ledger.
type DownloadRepository struct {
	db *sqlx.DB
}

// NewDownloadRepository creates a new instance of DownloadRepository.
func NewDownloadRepository(db *sqlx.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record appends one ledger row. Rows are append-only; there is no update
// or delete path.
func (r *DownloadRepository) Record(ctx context.Context, download *models.Download) error {
	if download.ID == "" {
		download.ID = uuid.NewString()
	}
	if download.DownloadedAt.IsZero() {
		download.DownloadedAt = time.Now().UTC()
	}

	const query = `INSERT INTO downloads (id, tract_id, user_id, ip_address, user_agent, downloaded_at) VALUES (:id, :tract_id, :user_id, :ip_address, :user_agent, :downloaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, download); err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// ListByTract returns the ledger rows for one tract, newest first.
func (r *DownloadRepository) ListByTract(ctx context.Context, tractID string, limit int) ([]models.Download, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `SELECT id, tract_id, user_id, ip_address, user_agent, downloaded_at FROM downloads WHERE tract_id = $1 ORDER BY downloaded_at DESC LIMIT $2`
	var downloads []models.Download
	if err := r.db.SelectContext(ctx, &downloads, query, tractID, limit); err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	return downloads, nil
}
