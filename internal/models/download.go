package models

import "time"

// Download is one immutable ledger row per download event. Rows are never
// updated; user deletion nulls user_id so aggregate counts survive.
type Download struct {
	ID           string    `db:"id" json:"id"`
	TractID      string    `db:"tract_id" json:"tract_id"`
	UserID       *string   `db:"user_id" json:"user_id"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloaded_at"`
}
