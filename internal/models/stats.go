package models

import "time"

// StatsTotals groups the headline dashboard counters.
type StatsTotals struct {
	TotalTracts    int `db:"total_tracts" json:"total_tracts"`
	ApprovedTracts int `db:"approved_tracts" json:"approved_tracts"`
	PendingReview  int `db:"pending_review" json:"pending_review"`
	TotalUsers     int `db:"total_users" json:"total_users"`
	TotalDownloads int `db:"total_downloads" json:"total_downloads"`
}

// PeriodCounts holds a metric's trailing-30-day and prior-30-day counts.
type PeriodCounts struct {
	Recent   int `db:"recent"`
	Previous int `db:"previous"`
}

// TopTract is a leaderboard entry ordered by download_count.
type TopTract struct {
	ID        string `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Downloads int    `db:"downloads" json:"downloads"`
}

// RecentUser is a recently registered user annotated with upload count.
type RecentUser struct {
	ID       string    `db:"id" json:"id"`
	Name     *string   `db:"name" json:"name"`
	Email    string    `db:"email" json:"email"`
	Role     UserRole  `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
	Uploads  int       `db:"uploads" json:"uploads"`
}

// PopularDownload aggregates ledger rows per tract over a recent window.
type PopularDownload struct {
	TractID          string    `db:"tract_id" json:"tract_id"`
	TractTitle       string    `db:"tract_title" json:"tract_title"`
	DownloadCount    int       `db:"download_count" json:"download_count"`
	LastDownloadedAt time.Time `db:"last_downloaded_at" json:"last_downloaded_at"`
	LastDownloadedBy string    `db:"last_downloaded_by" json:"last_downloaded_by"`
}
