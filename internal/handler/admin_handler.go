package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/middleware"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
	"github.com/noah-isme/reservation-api/pkg/response"
)

type adminReservationService interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, bool, error)
	Get(ctx context.Context, id string) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (*dto.ReservationMutation, error)
	UpdateMemo(ctx context.Context, id string, req dto.UpdateMemoRequest) (*dto.ReservationMutation, error)
}

type reservationExporter interface {
	Export(ctx context.Context, filter models.ReservationFilter, format dto.ExportFormat) (*dto.ExportFile, error)
}

// AdminHandler serves the authenticated reservation triage endpoints.
type AdminHandler struct {
	reservations adminReservationService
	exports      reservationExporter
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(reservations adminReservationService, exports reservationExporter) *AdminHandler {
	return &AdminHandler{reservations: reservations, exports: exports}
}

// List godoc
// @Summary List reservations
// @Description Newest first. Filters are exact matches; meta.summary counts the returned rows per status.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Grade"
// @Param status query string false "Status"
// @Param desiredDate query string false "Desired date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/v1/admin/reservations [get]
func (h *AdminHandler) List(c *gin.Context) {
	filter := filterFromQuery(c)
	rows, cacheHit, err := h.reservations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "summary", models.Summarize(rows))
	middleware.SetMeta(c, "count", len(rows))
	if !filter.IsZero() {
		middleware.SetMeta(c, "filters", filter)
	}
	response.JSON(c, http.StatusOK, rows, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a reservation
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/admin/reservations/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	record, err := h.reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// UpdateStatus godoc
// @Summary Update reservation status
// @Description Any status may be set from any other.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param payload body dto.UpdateStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/admin/reservations/{id}/status [patch]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	result, err := h.reservations.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// UpdateMemo godoc
// @Summary Update counseling memo
// @Description Replaces the memo. A blank memo clears it.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param payload body dto.UpdateMemoRequest true "Memo"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/admin/reservations/{id}/memo [patch]
func (h *AdminHandler) UpdateMemo(c *gin.Context) {
	var req dto.UpdateMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid memo payload"))
		return
	}
	result, err := h.reservations.UpdateMemo(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Export reservations
// @Description Renders the filtered list as CSV or PDF.
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param grade query string false "Grade"
// @Param status query string false "Status"
// @Param desiredDate query string false "Desired date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /api/v1/admin/reservations/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	file, err := h.exports.Export(c.Request.Context(), filterFromQuery(c), dto.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
