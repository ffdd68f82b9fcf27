package handlers

import (
	"net/http"

	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/services"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/trips/:id/budget — the caller's own budget for the trip.
func GetBudget(c *gin.Context) {
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

	var budget models.Budget
	if err := database.DB.Where("trip_id = ? AND user_id = ?", tripID, userID).
		First(&budget).Error; err != nil {
		utils.NotFound(c, "No budget set for this trip")
		return
	}

	var trip models.Trip
	database.DB.First(&trip, tripID)

	utils.SuccessResponse(c, http.StatusOK, "", buildBudgetResponse(budget, trip))
}

// PUT /api/trips/:id/budget — set or replace the caller's budget.
func SetBudget(c *gin.Context) {
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

	var req models.SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var trip models.Trip
	if err := database.DB.First(&trip, tripID).Error; err != nil {
		utils.NotFound(c, "Trip not found")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("trip_id = ? AND user_id = ?", tripID, userID).
		First(&budget).Error; err == nil {
		database.DB.Model(&budget).Update("amount_base", req.AmountBase)
		budget.AmountBase = req.AmountBase
	} else {
		budget = models.Budget{
			TripID:     tripID,
			UserID:     userID,
			AmountBase: req.AmountBase,
		}
		if err := database.DB.Create(&budget).Error; err != nil {
			utils.InternalError(c, "Failed to save budget")
			return
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Budget saved", buildBudgetResponse(budget, trip))
}

// GET /api/trips/:id/budget/summary — spending against the caller's budget,
// broken down by category.
func GetBudgetSummary(c *gin.Context) {
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

	var budget models.Budget
	if err := database.DB.Where("trip_id = ? AND user_id = ?", tripID, userID).
		First(&budget).Error; err != nil {
		utils.NotFound(c, "No budget set for this trip")
		return
	}

	var trip models.Trip
	database.DB.First(&trip, tripID)

	var expenses []models.Expense
	database.DB.Preload("Shares").Where("trip_id = ?", tripID).Find(&expenses)

	utils.SuccessResponse(c, http.StatusOK, "", services.BuildBudgetSummary(budget, trip.BaseCurrency, expenses))
}

func buildBudgetResponse(budget models.Budget, trip models.Trip) models.BudgetResponse {
	return models.BudgetResponse{
		ID:           budget.ID,
		TripID:       budget.TripID,
		UserID:       budget.UserID,
		AmountBase:   budget.AmountBase,
		BaseCurrency: trip.BaseCurrency,
		CreatedAt:    budget.CreatedAt,
		UpdatedAt:    budget.UpdatedAt,
	}
}
