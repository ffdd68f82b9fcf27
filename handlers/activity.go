package handlers

import (
	"net/http"

	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/trips/:id/activity — recent ledger events for a trip, newest first.
func GetTripActivity(c *gin.Context) {
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

	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var activities []models.Activity
	database.DB.Where("trip_id = ?", tripID).
		Preload("User").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&activities)

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
