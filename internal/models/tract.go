package models

import "time"

// TractStatus tracks the review lifecycle of a tract.
// Every tract starts pending; admins may move it back at any time, so the
// machine is not strictly forward-only.
type TractStatus string

const (
	TractPending  TractStatus = "pending"
	TractApproved TractStatus = "approved"
	TractRejected TractStatus = "rejected"
)

// Tract is an uploaded PDF document record plus its metadata.
type Tract struct {
	ID            string      `db:"id" json:"id"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	AuthorID      string      `db:"author_id" json:"author_id"`
	Denomination  string      `db:"denomination" json:"denomination"`
	Language      string      `db:"language" json:"language"`
	FileURL       string      `db:"file_url" json:"file_url"`
	FileName      string      `db:"file_name" json:"file_name"`
	FileSize      int64       `db:"file_size" json:"file_size"`
	DownloadCount int         `db:"download_count" json:"download_count"`
	Status        TractStatus `db:"status" json:"status"`
	Featured      bool        `db:"featured" json:"featured"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// TractAuthor is the author summary embedded in listings.
type TractAuthor struct {
	ID    string  `db:"author_id" json:"id"`
	Name  *string `db:"author_name" json:"name"`
	Email string  `db:"author_email" json:"email"`
}

// TractDetail joins a tract with its author and categories for API output.
type TractDetail struct {
	Tract
	Author     *TractAuthor `json:"author"`
	Categories []Category   `json:"categories"`
	Tags       []Tag        `json:"tags,omitempty"`
}

// TractFilter captures listing criteria.
type TractFilter struct {
	Status *TractStatus
	Search string
}

// TractPatch carries the admin-editable fields; nil means leave unchanged.
type TractPatch struct {
	Title        *string
	Description  *string
	Denomination *string
	Language     *string
	Status       *TractStatus
	Featured     *bool
}

// Category is a pre-existing reference vocabulary entry, matched by slug.
type Category struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Slug        string  `db:"slug" json:"slug"`
	Description *string `db:"description" json:"description,omitempty"`
}

// Tag is a free-form label, get-or-created by lower-cased name.
type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// ScriptureReference points at a passage backing a tract.
type ScriptureReference struct {
	ID         string `db:"id" json:"id"`
	Book       string `db:"book" json:"book"`
	Chapter    int    `db:"chapter" json:"chapter"`
	VerseStart *int   `db:"verse_start" json:"verse_start,omitempty"`
	VerseEnd   *int   `db:"verse_end" json:"verse_end,omitempty"`
	Version    string `db:"version" json:"version"`
}
