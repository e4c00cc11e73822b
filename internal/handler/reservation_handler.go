package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
	"github.com/noah-isme/reservation-api/pkg/logger"
	"github.com/noah-isme/reservation-api/pkg/response"
)

// Messages returned by the public intake endpoint.
const (
	MsgRequestFailed = "요청 처리에 실패했습니다."
	MsgStoreFailed   = "예약 저장에 실패했습니다."
)

type reservationCreator interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (*models.Reservation, error)
}

// ReservationHandler serves the public reservation intake.
type ReservationHandler struct {
	reservations reservationCreator
	logger       *zap.Logger
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations reservationCreator, log *zap.Logger) *ReservationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{reservations: reservations, logger: log}
}

// Reserve godoc
// @Summary Submit a reservation
// @Description Stores a consultation or level-test request and notifies staff by email. Notification failures do not affect the result.
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body dto.CreateReservationRequest true "Reservation"
// @Success 200 {object} response.Result
// @Failure 400 {object} response.Result
// @Failure 500 {object} response.Result
// @Router /api/reserve [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithRequest(h.logger, c).Warn("malformed reservation payload", zap.Error(err))
		response.Failure(c, http.StatusInternalServerError, MsgRequestFailed)
		return
	}

	if _, err := h.reservations.Create(c.Request.Context(), req); err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrValidation.Code {
			response.Failure(c, http.StatusBadRequest, appErr.Message)
			return
		}
		_ = c.Error(err)
		response.Failure(c, http.StatusInternalServerError, MsgStoreFailed)
		return
	}

	response.Success(c)
}
