package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reservation-api/internal/middleware"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
	"github.com/noah-isme/reservation-api/pkg/response"
)

// requireClaims writes 401 and returns false when the request carries no admin claims.
func requireClaims(c *gin.Context) (*models.AdminClaims, bool) {
	claims := middleware.AdminClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func filterFromQuery(c *gin.Context) models.ReservationFilter {
	return models.ReservationFilter{
		Grade:       c.Query("grade"),
		Status:      models.ReservationStatus(c.Query("status")),
		DesiredDate: c.Query("desiredDate"),
	}
}
