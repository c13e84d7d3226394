package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tractshare/tract-api/internal/authz"
	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	"github.com/tractshare/tract-api/internal/service"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
	"github.com/tractshare/tract-api/pkg/response"
)

type tractService interface {
	List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error)
	Get(ctx context.Context, id string) (*models.Tract, error)
	Submit(ctx context.Context, authorID string, req dto.UploadTractRequest, file service.UploadFile) (*models.Tract, error)
	Download(ctx context.Context, id string, meta service.DownloadMeta) (io.ReadCloser, *models.Tract, error)
	Preview(ctx context.Context, id string) (io.ReadCloser, *models.Tract, error)
}

// TractHandler wires the public tract endpoints: listing, submission and the
// download path.
type TractHandler struct {
	service tractService
}

// NewTractHandler creates a new handler.
func NewTractHandler(svc tractService) *TractHandler {
	return &TractHandler{service: svc}
}

// List godoc
// @Summary List tracts
// @Description Approved tracts for everyone; admins may filter by status or request all
// @Tags Tracts
// @Produce json
// @Param status query string false "Status filter (admin only)"
// @Param search query string false "Search in title, description and denomination"
// @Param all query string false "Return every status (admin only)"
// @Success 200 {object} map[string]interface{}
// @Router /tracts [get]
func (h *TractHandler) List(c *gin.Context) {
	filter := models.TractFilter{Search: c.Query("search")}

	claims := claimsFromContext(c)
	admin := claims != nil && authz.Allowed(claims.Role, authz.ActionViewAllTracts)
	switch {
	case admin && c.Query("all") == "true":
		// no status filter
	case admin && c.Query("status") != "":
		status := models.TractStatus(c.Query("status"))
		filter.Status = &status
	default:
		approved := models.TractApproved
		filter.Status = &approved
	}

	tracts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"tracts": tracts})
}

// Get godoc
// @Summary Get a tract
// @Tags Tracts
// @Produce json
// @Param id path string true "Tract ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tracts/{id} [get]
func (h *TractHandler) Get(c *gin.Context) {
	tract, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"tract": tract})
}

// Upload godoc
// @Summary Submit a tract
// @Description Upload a PDF with metadata; the tract enters the review queue
// @Tags Tracts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF file"
// @Param title formData string true "Title"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /tracts/upload [post]
func (h *TractHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UploadTractRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	tract, err := h.service.Submit(c.Request.Context(), claims.UserID, req, service.UploadFile{
		Reader:      file,
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"tract": dto.TractSummary{
		ID:      tract.ID,
		Title:   tract.Title,
		Status:  tract.Status,
		FileURL: tract.FileURL,
	}})
}

// Download godoc
// @Summary Download a tract PDF
// @Description Streams the file, bumps the counter and appends a ledger row
// @Tags Tracts
// @Produce application/pdf
// @Param id path string true "Tract ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /tracts/{id}/download [get]
func (h *TractHandler) Download(c *gin.Context) {
	meta := service.DownloadMeta{IPAddress: c.ClientIP()}
	if claims := claimsFromContext(c); claims != nil {
		meta.UserID = &claims.UserID
	}
	if ua := c.GetHeader("User-Agent"); ua != "" {
		meta.UserAgent = &ua
	}

	reader, tract, err := h.service.Download(c.Request.Context(), c.Param("id"), meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()

	h.streamPDF(c, reader, tract, "attachment")
}

// Preview godoc
// @Summary Preview a tract PDF inline
// @Description Streams the file without recording a download
// @Tags Tracts
// @Produce application/pdf
// @Param id path string true "Tract ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /tracts/{id}/preview [get]
func (h *TractHandler) Preview(c *gin.Context) {
	reader, tract, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()

	h.streamPDF(c, reader, tract, "inline")
}

func (h *TractHandler) streamPDF(c *gin.Context, reader io.Reader, tract *models.Tract, disposition string) {
	filename := tract.FileName
	if filename == "" {
		filename = tract.ID + ".pdf"
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	if tract.FileSize > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", tract.FileSize))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are gone at this point, nothing to send to the client.
		_ = c.Error(err)
	}
}
