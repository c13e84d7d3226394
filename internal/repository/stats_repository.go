package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tractshare/tract-api/internal/models"
)

// StatsRepository runs the read-only aggregate queries behind the admin
// dashboard. Every method takes explicit time bounds so the service layer
// controls the clock.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Totals returns the headline counters in one round trip.
func (r *StatsRepository) Totals(ctx context.Context) (*models.StatsTotals, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM tracts) AS total_tracts,
		(SELECT COUNT(*) FROM tracts WHERE status = 'approved') AS approved_tracts,
		(SELECT COUNT(*) FROM tracts WHERE status = 'pending') AS pending_review,
		(SELECT COUNT(*) FROM users) AS total_users,
		(SELECT COUNT(*) FROM downloads) AS total_downloads`
	var totals models.StatsTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}
	return &totals, nil
}

// periodCounts counts table rows created in [start, now) and [prevStart, start).
func (r *StatsRepository) periodCounts(ctx context.Context, table, column string, now time.Time) (*models.PeriodCounts, error) {
	start := now.AddDate(0, 0, -30)
	prevStart := now.AddDate(0, 0, -60)
	query := fmt.Sprintf(`SELECT
		COUNT(*) FILTER (WHERE %s >= $1) AS recent,
		COUNT(*) FILTER (WHERE %s >= $2 AND %s < $1) AS previous
		FROM %s`, column, column, column, table)
	var counts models.PeriodCounts
	if err := r.db.GetContext(ctx, &counts, query, start, prevStart); err != nil {
		return nil, fmt.Errorf("period counts for %s: %w", table, err)
	}
	return &counts, nil
}

// TractPeriods returns 30-day tract creation counts for growth math.
func (r *StatsRepository) TractPeriods(ctx context.Context, now time.Time) (*models.PeriodCounts, error) {
	return r.periodCounts(ctx, "tracts", "created_at", now)
}

// UserPeriods returns 30-day registration counts for growth math.
func (r *StatsRepository) UserPeriods(ctx context.Context, now time.Time) (*models.PeriodCounts, error) {
	return r.periodCounts(ctx, "users", "created_at", now)
}

// DownloadPeriods returns 30-day ledger counts for growth math.
func (r *StatsRepository) DownloadPeriods(ctx context.Context, now time.Time) (*models.PeriodCounts, error) {
	return r.periodCounts(ctx, "downloads", "downloaded_at", now)
}

// TopTracts lists the most downloaded approved tracts.
func (r *StatsRepository) TopTracts(ctx context.Context, limit int) ([]models.TopTract, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT id, title, download_count AS downloads FROM tracts WHERE status = 'approved' ORDER BY download_count DESC, created_at DESC LIMIT $1`
	var tracts []models.TopTract
	if err := r.db.SelectContext(ctx, &tracts, query, limit); err != nil {
		return nil, fmt.Errorf("top tracts: %w", err)
	}
	return tracts, nil
}

// RecentUsers lists the newest registrations with their upload counts.
func (r *StatsRepository) RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT u.id, u.name, u.email, u.role, u.created_at AS joined_at,
		(SELECT COUNT(*) FROM tracts t WHERE t.author_id = u.id) AS uploads
		FROM users u ORDER BY u.created_at DESC LIMIT $1`
	var users []models.RecentUser
	if err := r.db.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	return users, nil
}

// PopularDownloads groups ledger rows since the cutoff by tract, most
// downloaded first with recency as the tiebreak. The last downloader falls
// back from name to email to "Anonymous" for ledger rows without a user.
func (r *StatsRepository) PopularDownloads(ctx context.Context, since time.Time, limit int) ([]models.PopularDownload, error) {
	if limit <= 0 || limit > 10 {
		limit = 10
	}
	const query = `SELECT d.tract_id,
		t.title AS tract_title,
		COUNT(*) AS download_count,
		MAX(d.downloaded_at) AS last_downloaded_at,
		COALESCE(
			(SELECT COALESCE(u.name, u.email, 'Anonymous')
			 FROM downloads d2
			 LEFT JOIN users u ON u.id = d2.user_id
			 WHERE d2.tract_id = d.tract_id AND d2.downloaded_at >= $1
			 ORDER BY d2.downloaded_at DESC LIMIT 1),
			'Anonymous') AS last_downloaded_by
		FROM downloads d
		INNER JOIN tracts t ON t.id = d.tract_id
		WHERE d.downloaded_at >= $1
		GROUP BY d.tract_id, t.title
		ORDER BY download_count DESC, last_downloaded_at DESC
		LIMIT $2`
	var downloads []models.PopularDownload
	if err := r.db.SelectContext(ctx, &downloads, query, since, limit); err != nil {
		return nil, fmt.Errorf("popular downloads: %w", err)
	}
	return downloads, nil
}
