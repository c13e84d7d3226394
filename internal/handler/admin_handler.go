package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
	"github.com/tractshare/tract-api/pkg/response"
)

type adminTractService interface {
	List(ctx context.Context, filter models.TractFilter) ([]models.TractDetail, error)
	Review(ctx context.Context, req dto.ReviewTractRequest) (*models.Tract, error)
	Update(ctx context.Context, req dto.UpdateTractRequest) (*models.Tract, error)
	SetFeatured(ctx context.Context, id string, featured bool) error
	Delete(ctx context.Context, id string) error
}

type statsService interface {
	Dashboard(ctx context.Context) (*dto.AdminStatsResponse, error)
	Export(ctx context.Context, format string) ([]byte, string, error)
}

// AdminHandler wires the review queue, tract administration and the stats
// dashboard.
type AdminHandler struct {
	tracts adminTractService
	stats  statsService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(tracts adminTractService, stats statsService) *AdminHandler {
	return &AdminHandler{tracts: tracts, stats: stats}
}

// PendingTracts godoc
// @Summary List tracts awaiting review
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /admin/pending-tracts [get]
func (h *AdminHandler) PendingTracts(c *gin.Context) {
	pending := models.TractPending
	tracts, err := h.tracts.List(c.Request.Context(), models.TractFilter{Status: &pending})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"tracts": tracts})
}

// Review godoc
// @Summary Approve or reject a tract
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ReviewTractRequest true "Review decision"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/pending-tracts [patch]
func (h *AdminHandler) Review(c *gin.Context) {
	var req dto.ReviewTractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	tract, err := h.tracts.Review(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"tract": tract})
}

// UpdateTract godoc
// @Summary Edit tract metadata
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateTractRequest true "Partial update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tracts [patch]
func (h *AdminHandler) UpdateTract(c *gin.Context) {
	var req dto.UpdateTractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tract payload"))
		return
	}

	tract, err := h.tracts.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"tract": tract})
}

// DeleteTract godoc
// @Summary Delete a tract and its file
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DeleteTractRequest true "Target tract"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tracts [delete]
func (h *AdminHandler) DeleteTract(c *gin.Context) {
	var req dto.DeleteTractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}

	if err := h.tracts.Delete(c.Request.Context(), req.TractID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": req.TractID})
}

// SetFeatured godoc
// @Summary Toggle the featured flag
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tract ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /admin/tracts/{id}/featured [patch]
func (h *AdminHandler) SetFeatured(c *gin.Context) {
	var req struct {
		Featured bool `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid featured payload"))
		return
	}

	id := c.Param("id")
	if err := h.tracts.SetFeatured(c.Request.Context(), id, req.Featured); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "featured": req.Featured})
}

// Stats godoc
// @Summary Admin dashboard statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}

// ExportStats godoc
// @Summary Export dashboard statistics
// @Description Renders the dashboard as CSV or PDF
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Router /admin/stats/export [get]
func (h *AdminHandler) ExportStats(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	data, contentType, err := h.stats.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("tract-stats-%s.%s", time.Now().UTC().Format("2006-01-02"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
