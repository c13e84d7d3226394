package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
	"github.com/tractshare/tract-api/pkg/export"
)

const (
	statsDashboardCacheKey = "stats:dashboard"

	topTractsLimit       = 5
	recentUsersLimit     = 5
	popularWindowDays    = 7
	popularDownloadLimit = 10
)

type statsRepository interface {
	Totals(ctx context.Context) (*models.StatsTotals, error)
	TractPeriods(ctx context.Context, now time.Time) (*models.PeriodCounts, error)
	UserPeriods(ctx context.Context, now time.Time) (*models.PeriodCounts, error)
	DownloadPeriods(ctx context.Context, now time.Time) (*models.PeriodCounts, error)
	TopTracts(ctx context.Context, limit int) ([]models.TopTract, error)
	RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error)
	PopularDownloads(ctx context.Context, since time.Time, limit int) ([]models.PopularDownload, error)
}

// StatsService aggregates the admin dashboard and renders exports.
type StatsService struct {
	repo   statsRepository
	cache  *CacheService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService constructs a StatsService instance.
func NewStatsService(repo statsRepository, cache *CacheService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		repo:   repo,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard assembles the aggregate payload, serving from cache when warm.
func (s *StatsService) Dashboard(ctx context.Context) (*dto.AdminStatsResponse, error) {
	if s.cache.Enabled() {
		var cached dto.AdminStatsResponse
		if hit, err := s.cache.Get(ctx, statsDashboardCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stats, err := s.assemble(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, statsDashboardCacheKey, stats, 0); err != nil {
			s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
		}
	}
	return stats, nil
}

// Export renders the dashboard totals and top tracts in the requested format.
// Supported formats are "csv" and "pdf".
func (s *StatsService) Export(ctx context.Context, format string) ([]byte, string, error) {
	stats, err := s.assemble(ctx)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Total tracts", "Value": fmt.Sprintf("%d", stats.TotalTracts)},
			{"Metric": "Approved tracts", "Value": fmt.Sprintf("%d", stats.ApprovedTracts)},
			{"Metric": "Pending review", "Value": fmt.Sprintf("%d", stats.PendingReview)},
			{"Metric": "Total users", "Value": fmt.Sprintf("%d", stats.TotalUsers)},
			{"Metric": "Total downloads", "Value": fmt.Sprintf("%d", stats.TotalDownloads)},
			{"Metric": "Tract growth (30d)", "Value": fmt.Sprintf("%d%%", stats.MonthlyGrowth.Tracts)},
			{"Metric": "User growth (30d)", "Value": fmt.Sprintf("%d%%", stats.MonthlyGrowth.Users)},
			{"Metric": "Download growth (30d)", "Value": fmt.Sprintf("%d%%", stats.MonthlyGrowth.Downloads)},
		},
	}
	for i, tract := range stats.TopTracts {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Metric": fmt.Sprintf("Top tract #%d", i+1),
			"Value":  fmt.Sprintf("%s (%d downloads)", tract.Title, tract.Downloads),
		})
	}

	switch strings.ToLower(format) {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Tract Library Statistics")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *StatsService) assemble(ctx context.Context) (*dto.AdminStatsResponse, error) {
	now := s.now()

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stats totals")
	}
	tractPeriods, err := s.repo.TractPeriods(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tract growth")
	}
	userPeriods, err := s.repo.UserPeriods(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user growth")
	}
	downloadPeriods, err := s.repo.DownloadPeriods(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load download growth")
	}
	topTracts, err := s.repo.TopTracts(ctx, topTractsLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load top tracts")
	}
	recentUsers, err := s.repo.RecentUsers(ctx, recentUsersLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent users")
	}
	popular, err := s.repo.PopularDownloads(ctx, now.AddDate(0, 0, -popularWindowDays), popularDownloadLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent downloads")
	}

	if topTracts == nil {
		topTracts = []models.TopTract{}
	}
	if recentUsers == nil {
		recentUsers = []models.RecentUser{}
	}
	if popular == nil {
		popular = []models.PopularDownload{}
	}

	return &dto.AdminStatsResponse{
		TotalTracts:    totals.TotalTracts,
		ApprovedTracts: totals.ApprovedTracts,
		PendingReview:  totals.PendingReview,
		TotalUsers:     totals.TotalUsers,
		TotalDownloads: totals.TotalDownloads,
		MonthlyGrowth: dto.MonthlyGrowth{
			Tracts:    growthPercent(*tractPeriods),
			Users:     growthPercent(*userPeriods),
			Downloads: growthPercent(*downloadPeriods),
		},
		TopTracts:       topTracts,
		RecentUsers:     recentUsers,
		RecentDownloads: popular,
	}, nil
}

// growthPercent is the rounded period-over-period change. A cold start with
// no previous activity reports 100% when anything happened, 0% otherwise.
func growthPercent(counts models.PeriodCounts) int {
	if counts.Previous == 0 {
		if counts.Recent > 0 {
			return 100
		}
		return 0
	}
	change := float64(counts.Recent-counts.Previous) / float64(counts.Previous) * 100
	return int(math.Round(change))
}
