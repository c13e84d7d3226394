package dto

import "github.com/tractshare/tract-api/internal/models"

// UploadTractRequest contains metadata submitted alongside the PDF upload.
// Tags and scripture references arrive as JSON-encoded form fields.
type UploadTractRequest struct {
	Title               string `form:"title" json:"title"`
	Description         string `form:"description" json:"description"`
	Category            string `form:"category" json:"category"`
	Denomination        string `form:"denomination" json:"denomination"`
	Language            string `form:"language" json:"language"`
	Tags                string `form:"tags" json:"tags"`
	ScriptureReferences string `form:"scriptureReferences" json:"scriptureReferences"`
}

// ScriptureReferenceInput is one decoded entry of the scriptureReferences field.
type ScriptureReferenceInput struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	VerseStart *int   `json:"verse_start"`
	VerseEnd   *int   `json:"verse_end"`
	Version    string `json:"version"`
}

// UpdateTractRequest is the admin partial update; nil fields stay unchanged.
type UpdateTractRequest struct {
	ID           string              `json:"id" validate:"required"`
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	Denomination *string             `json:"denomination"`
	Language     *string             `json:"language"`
	Status       *models.TractStatus `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Featured     *bool               `json:"featured"`
}

// ReviewTractRequest carries an approve/reject decision.
type ReviewTractRequest struct {
	TractID string             `json:"tractId" validate:"required"`
	Status  models.TractStatus `json:"status" validate:"required,oneof=approved rejected"`
}

// DeleteTractRequest identifies the tract to remove.
type DeleteTractRequest struct {
	TractID string `json:"tractId" validate:"required"`
}

// TractSummary is the trimmed record returned right after upload.
type TractSummary struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Status  models.TractStatus `json:"status"`
	FileURL string             `json:"file_url"`
}
