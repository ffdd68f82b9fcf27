package handlers

import (
	"bytes"
	"net/http"
	"sort"

	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/services"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/trips/:id/balances — read-only preview of net balances and the
// transfer plan they imply. Available in any trip state; nothing is persisted.
func GetTripBalances(c *gin.Context) {
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

	var trip models.Trip
	if err := database.DB.First(&trip, tripID).Error; err != nil {
		utils.NotFound(c, "Trip not found")
		return
	}

	balances, err := services.Balances().ForTrip(c.Request.Context(), tripID)
	if err != nil {
		utils.InternalError(c, "Failed to compute balances")
		return
	}

	transfers, err := services.Simplify(balances)
	if err != nil {
		// Balances not summing to zero is an internal invariant violation.
		utils.InternalError(c, err.Error())
		return
	}

	var totalSpent int64
	database.DB.Model(&models.Expense{}).
		Where("trip_id = ?", tripID).
		Select("COALESCE(SUM(amount_base), 0)").
		Scan(&totalSpent)

	summary := models.TripBalanceSummary{
		TripID:       tripID,
		BaseCurrency: trip.BaseCurrency,
		Balances:     netBalanceList(balances),
		Transfers:    transfers,
		TotalSpent:   totalSpent,
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// netBalanceList flattens a balance map into a deterministic list with
// user names attached, ordered by ascending user ID.
func netBalanceList(balances map[uuid.UUID]int64) []models.NetBalance {
	ids := make([]uuid.UUID, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	list := make([]models.NetBalance, 0, len(ids))
	for _, id := range ids {
		var user models.User
		database.DB.First(&user, id)
		list = append(list, models.NetBalance{
			UserID:     id,
			UserName:   user.Name,
			AmountBase: balances[id],
		})
	}
	return list
}
