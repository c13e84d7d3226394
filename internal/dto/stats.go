package dto

import "github.com/tractshare/tract-api/internal/models"

// MonthlyGrowth holds 30-day-over-30-day percentage change per metric.
type MonthlyGrowth struct {
	Tracts    int `json:"tracts"`
	Users     int `json:"users"`
	Downloads int `json:"downloads"`
}

// AdminStatsResponse is the dashboard aggregate payload.
type AdminStatsResponse struct {
	TotalTracts     int                      `json:"total_tracts"`
	ApprovedTracts  int                      `json:"approved_tracts"`
	PendingReview   int                      `json:"pending_review"`
	TotalUsers      int                      `json:"total_users"`
	TotalDownloads  int                      `json:"total_downloads"`
	MonthlyGrowth   MonthlyGrowth            `json:"monthly_growth"`
	TopTracts       []models.TopTract        `json:"top_tracts"`
	RecentUsers     []models.RecentUser      `json:"recent_users"`
	RecentDownloads []models.PopularDownload `json:"recent_downloads"`
}
