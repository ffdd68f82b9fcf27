package handlers

import (
	"errors"
	"net/http"

	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/services"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// POST /api/trips/:id/settle — triggers the one-time settlement of a
// finished trip. Safe to call concurrently or repeatedly: everyone gets
// the same stored result.
func TriggerSettlement(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if !isAcceptedParticipant(tripID, userID) {
		utils.Unauthorized(c, "You are not a participant of this trip")
		return
	}

	result, err := services.Settlements().Trigger(c.Request.Context(), tripID, userID)
	if err != nil {
		respondSettlementError(c, err)
		return
	}

	var trip models.Trip
	database.DB.First(&trip, tripID)

	database.DB.Create(&models.Activity{
		TripID:      tripID,
		UserID:      userID,
		Type:        "settlement",
		ReferenceID: result.ID,
		Description: "Trip settled",
	})

	go notifySettlement(trip, result.Transfers)

	utils.SuccessResponse(c, http.StatusOK, "Trip settled", settlementResponse(trip, result))
}

// GET /api/trips/:id/settlement
func GetSettlementResult(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if !isParticipant(tripID, userID) {
		utils.Unauthorized(c, "You are not a participant of this trip")
		return
	}

	result, err := services.Settlements().GetResult(c.Request.Context(), tripID)
	if err != nil {
		respondSettlementError(c, err)
		return
	}

	var trip models.Trip
	database.DB.First(&trip, tripID)

	utils.SuccessResponse(c, http.StatusOK, "", settlementResponse(trip, result))
}

func respondSettlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTripNotFinished):
		utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotSettled):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrBalanceIntegrity):
		utils.InternalError(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.NotFound(c, "Trip not found")
	default:
		utils.InternalError(c, err.Error())
	}
}

func settlementResponse(trip models.Trip, result *models.SettlementResult) models.SettlementResponse {
	return models.SettlementResponse{
		TripID:       result.TripID,
		BaseCurrency: trip.BaseCurrency,
		ComputedAt:   result.ComputedAt,
		Transfers:    result.Transfers,
		Balances:     netBalanceList(result.Balances),
	}
}

func notifySettlement(trip models.Trip, transfers []models.Transfer) {
	users := make(map[string]models.User, 2*len(transfers))
	for _, t := range transfers {
		for _, id := range []uuid.UUID{t.From, t.To} {
			var user models.User
			if err := database.DB.First(&user, id).Error; err == nil {
				users[id.String()] = user
			}
		}
	}
	services.GetNotificationService().NotifySettlement(trip, transfers, users)
}
