package handlers

import (
	"fmt"
	"net/http"
	"time"

	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/services"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// POST /api/trips
func CreateTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	startDate, err := utils.ParseDate(req.StartDate)
	if err != nil {
		utils.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	endDate, err := utils.ParseDate(req.EndDate)
	if err != nil {
		utils.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		utils.BadRequest(c, "end_date must not be before start_date")
		return
	}

	baseCurrency := req.BaseCurrency
	if baseCurrency == "" {
		baseCurrency = config.AppConfig.BaseCurrency
	}

	trip := models.Trip{
		Name:         req.Name,
		BaseCurrency: baseCurrency,
		StartDate:    startDate,
		EndDate:      endDate,
		CreatedBy:    userID,
	}

	if err := database.DB.Create(&trip).Error; err != nil {
		utils.InternalError(c, "Failed to create trip")
		return
	}

	// The creator joins their own trip as an accepted participant
	database.DB.Create(&models.TripParticipant{
		TripID:    trip.ID,
		UserID:    userID,
		IsCreator: true,
		Status:    models.ParticipantAccepted,
	})

	utils.SuccessResponse(c, http.StatusCreated, "Trip created", buildTripResponse(trip.ID))
}

// GET /api/trips
func GetTrips(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var memberships []models.TripParticipant
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	var tripIDs []uuid.UUID
	for _, m := range memberships {
		tripIDs = append(tripIDs, m.TripID)
	}

	var trips []models.Trip
	if len(tripIDs) > 0 {
		database.DB.Where("id IN ?", tripIDs).Order("start_date DESC").Find(&trips)
	}

	var responses []models.TripResponse
	for _, t := range trips {
		responses = append(responses, buildTripResponse(t.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
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

	response := buildTripResponse(tripID)
	if response.ID == uuid.Nil {
		utils.NotFound(c, "Trip not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// DELETE /api/trips/:id — removes the trip and everything it owns
func DeleteTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var trip models.Trip
	if err := database.DB.First(&trip, tripID).Error; err != nil {
		utils.NotFound(c, "Trip not found")
		return
	}
	if trip.CreatedBy != userID {
		utils.Unauthorized(c, "Only the trip creator can delete a trip")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id IN (?)",
			tx.Model(&models.Expense{}).Select("id").Where("trip_id = ?", tripID),
		).Delete(&models.ExpenseShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.SettlementResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.Budget{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.TripParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&trip).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to delete trip")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted", nil)
}

// POST /api/trips/:id/invite
func InviteParticipant(c *gin.Context) {
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

	var req models.InviteParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var invitee models.User
	if err := database.DB.Where("email = ?", req.Email).First(&invitee).Error; err != nil {
		utils.NotFound(c, "No user registered with that email")
		return
	}

	var existing models.TripParticipant
	if err := database.DB.Where("trip_id = ? AND user_id = ?", tripID, invitee.ID).
		First(&existing).Error; err == nil {
		utils.BadRequest(c, "User is already invited to this trip")
		return
	}

	participant := models.TripParticipant{
		TripID:    tripID,
		UserID:    invitee.ID,
		Status:    models.ParticipantPending,
		InvitedBy: userID,
	}
	if err := database.DB.Create(&participant).Error; err != nil {
		utils.InternalError(c, "Failed to create invitation")
		return
	}

	var inviter models.User
	database.DB.First(&inviter, userID)
	var trip models.Trip
	database.DB.First(&trip, tripID)

	go services.GetNotificationService().NotifyInvitation(invitee, inviter.Name, trip)

	utils.SuccessResponse(c, http.StatusCreated, "Invitation sent", nil)
}

// POST /api/trips/:id/invitations/accept
func AcceptInvitation(c *gin.Context) {
	respondToInvitation(c, models.ParticipantAccepted)
}

// POST /api/trips/:id/invitations/decline
func DeclineInvitation(c *gin.Context) {
	respondToInvitation(c, models.ParticipantDeclined)
}

func respondToInvitation(c *gin.Context, status string) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var participant models.TripParticipant
	if err := database.DB.Where("trip_id = ? AND user_id = ? AND status = ?",
		tripID, userID, models.ParticipantPending).First(&participant).Error; err != nil {
		utils.NotFound(c, "No pending invitation for this trip")
		return
	}

	database.DB.Model(&participant).Update("status", status)

	if status == models.ParticipantAccepted {
		var user models.User
		database.DB.First(&user, userID)
		var trip models.Trip
		database.DB.First(&trip, tripID)
		database.DB.Create(&models.Activity{
			TripID:      tripID,
			UserID:      userID,
			Type:        "participant_joined",
			Description: fmt.Sprintf("%s joined %s", user.Name, trip.Name),
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "Invitation "+status, nil)
}

// isParticipant reports membership in any invitation state.
func isParticipant(tripID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.TripParticipant{}).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		Count(&count)
	return count > 0
}

// isAcceptedParticipant reports accepted membership; only accepted
// participants may touch the ledger.
func isAcceptedParticipant(tripID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.TripParticipant{}).
		Where("trip_id = ? AND user_id = ? AND status = ?", tripID, userID, models.ParticipantAccepted).
		Count(&count)
	return count > 0
}

// Build trip response with derived status and participant details
func buildTripResponse(tripID uuid.UUID) models.TripResponse {
	var trip models.Trip
	if err := database.DB.First(&trip, tripID).Error; err != nil {
		return models.TripResponse{}
	}

	var participants []models.TripParticipant
	database.DB.Where("trip_id = ?", tripID).Preload("User").Order("joined_at").Find(&participants)

	var participantResponses []models.ParticipantResponse
	for _, p := range participants {
		participantResponses = append(participantResponses, models.ParticipantResponse{
			UserID:    p.UserID,
			Name:      p.User.Name,
			Email:     p.User.Email,
			IsCreator: p.IsCreator,
			Status:    p.Status,
			JoinedAt:  p.JoinedAt,
		})
	}

	return models.TripResponse{
		ID:           trip.ID,
		Name:         trip.Name,
		BaseCurrency: trip.BaseCurrency,
		StartDate:    trip.StartDate.Format("2006-01-02"),
		EndDate:      trip.EndDate.Format("2006-01-02"),
		Status:       trip.Status(time.Now()),
		SettledAt:    trip.SettledAt,
		CreatedBy:    trip.CreatedBy,
		Participants: participantResponses,
		CreatedAt:    trip.CreatedAt,
	}
}
