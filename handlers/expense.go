package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/services"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// POST /api/trips/:id/expenses
func CreateExpense(c *gin.Context) {
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

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	input, err := expenseInputFromRequest(tripID, userID, req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	expense, err := services.Ledger().AddExpense(c.Request.Context(), input)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	// Log activity
	var payer models.User
	database.DB.First(&payer, expense.PaidBy)
	var trip models.Trip
	database.DB.First(&trip, tripID)

	database.DB.Create(&models.Activity{
		TripID:      tripID,
		UserID:      userID,
		Type:        "expense_added",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s added \"%s\" (%s %s)", payer.Name, expense.Description, expense.Currency, expense.Amount),
	})

	// Send notifications asynchronously
	go notifyExpenseAdded(*expense, payer, trip)

	utils.SuccessResponse(c, http.StatusCreated, "Expense added", buildExpenseResponse(expense.ID))
}

// GET /api/trips/:id/expenses
func GetTripExpenses(c *gin.Context) {
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
	c.ShouldBindQuery(&pagination)

	query := database.DB.Where("trip_id = ?", tripID)
	if dateParam := c.Query("date"); dateParam != "" {
		date, err := utils.ParseDate(dateParam)
		if err != nil {
			utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		query = query.Where("expense_date = ?", date)
	}

	var expenses []models.Expense
	query.Order("expense_date DESC, created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&expenses)

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}
	if !isParticipant(expense.TripID, userID) {
		utils.Unauthorized(c, "You are not a participant of this trip")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", buildExpenseResponse(expenseID))
}

// PUT /api/expenses/:id
func UpdateExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Preload("Shares").First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}
	if !isAcceptedParticipant(expense.TripID, userID) {
		utils.Unauthorized(c, "You are not a participant of this trip")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	input, err := expenseInputFromUpdate(expense, req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updated, err := services.Ledger().UpdateExpense(c.Request.Context(), expenseID, input)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	// Log activity
	var editor models.User
	database.DB.First(&editor, userID)

	database.DB.Create(&models.Activity{
		TripID:      updated.TripID,
		UserID:      userID,
		Type:        "expense_updated",
		ReferenceID: updated.ID,
		Description: fmt.Sprintf("%s updated \"%s\"", editor.Name, updated.Description),
	})

	utils.SuccessResponse(c, http.StatusOK, "Expense updated", buildExpenseResponse(updated.ID))
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}
	if !isAcceptedParticipant(expense.TripID, userID) {
		utils.Unauthorized(c, "You are not a participant of this trip")
		return
	}

	if err := services.Ledger().RemoveExpense(c.Request.Context(), expenseID); err != nil {
		respondLedgerError(c, err)
		return
	}

	var deleter models.User
	database.DB.First(&deleter, userID)

	database.DB.Create(&models.Activity{
		TripID:      expense.TripID,
		UserID:      userID,
		Type:        "expense_deleted",
		Description: fmt.Sprintf("%s deleted \"%s\" (%s %s)", deleter.Name, expense.Description, expense.Currency, expense.Amount),
	})

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}

// expenseInputFromRequest validates a create request into a ledger input.
func expenseInputFromRequest(tripID, requesterID uuid.UUID, req models.CreateExpenseRequest) (services.ExpenseInput, error) {
	date, err := utils.ParseDate(req.ExpenseDate)
	if err != nil {
		return services.ExpenseInput{}, fmt.Errorf("invalid expense_date, expected YYYY-MM-DD")
	}

	paidBy := requesterID
	if req.PaidBy != "" {
		paidBy, err = uuid.Parse(req.PaidBy)
		if err != nil {
			return services.ExpenseInput{}, fmt.Errorf("invalid paid_by user ID")
		}
	}

	if !services.FitsCurrency(req.Amount, req.Currency) {
		return services.ExpenseInput{}, fmt.Errorf("amount has more decimal places than %s allows", req.Currency)
	}

	splitType := req.SplitType
	if splitType == "" {
		splitType = models.SplitTypeEqual
	}

	participants, shares, err := parseShareInputs(req.Participants, req.Shares)
	if err != nil {
		return services.ExpenseInput{}, err
	}

	return services.ExpenseInput{
		TripID:       tripID,
		PaidBy:       paidBy,
		Date:         date,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Category:     req.Category,
		Description:  req.Description,
		SplitType:    splitType,
		Participants: participants,
		Shares:       shares,
	}, nil
}

// expenseInputFromUpdate merges an update request over the stored expense.
// The ledger always renormalizes and regenerates shares from the merged
// input; nothing is patched in place.
func expenseInputFromUpdate(expense models.Expense, req models.UpdateExpenseRequest) (services.ExpenseInput, error) {
	input := services.ExpenseInput{
		TripID:      expense.TripID,
		PaidBy:      expense.PaidBy,
		Date:        expense.ExpenseDate,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Category:    expense.Category,
		Description: expense.Description,
		SplitType:   expense.SplitType,
	}

	if req.ExpenseDate != "" {
		date, err := utils.ParseDate(req.ExpenseDate)
		if err != nil {
			return services.ExpenseInput{}, fmt.Errorf("invalid expense_date, expected YYYY-MM-DD")
		}
		input.Date = date
	}
	if req.Amount != nil {
		input.Amount = *req.Amount
	}
	if req.Currency != "" {
		input.Currency = req.Currency
	}
	if !services.FitsCurrency(input.Amount, input.Currency) {
		return services.ExpenseInput{}, fmt.Errorf("amount has more decimal places than %s allows", input.Currency)
	}
	if req.Category != "" {
		input.Category = req.Category
	}
	if req.Description != "" {
		input.Description = req.Description
	}
	if req.SplitType != "" {
		input.SplitType = req.SplitType
	}

	participants, shares, err := parseShareInputs(req.Participants, req.Shares)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	if len(participants) == 0 && len(shares) == 0 {
		// Keep the previous participant set when the request doesn't change it.
		for _, s := range expense.Shares {
			participants = append(participants, s.UserID)
			if input.SplitType == models.SplitTypeExact {
				if shares == nil {
					shares = make(map[uuid.UUID]int64)
				}
				shares[s.UserID] = s.AmountBase
			}
		}
	}
	input.Participants = participants
	input.Shares = shares

	return input, nil
}

func parseShareInputs(participantIDs []string, shareInputs []models.ShareInput) ([]uuid.UUID, map[uuid.UUID]int64, error) {
	var participants []uuid.UUID
	for _, raw := range participantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid participant ID: %s", raw)
		}
		participants = append(participants, id)
	}

	var shares map[uuid.UUID]int64
	if len(shareInputs) > 0 {
		shares = make(map[uuid.UUID]int64, len(shareInputs))
		for _, s := range shareInputs {
			id, err := uuid.Parse(s.UserID)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid share user ID: %s", s.UserID)
			}
			shares[id] = s.AmountBase
		}
	}
	return participants, shares, nil
}

// respondLedgerError maps ledger errors onto the HTTP taxonomy without
// masking the specific kind.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTripAlreadySettled):
		utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrShareSumMismatch),
		errors.Is(err, services.ErrNotParticipant):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrRateUnavailable):
		utils.ServiceUnavailable(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.NotFound(c, "Record not found")
	default:
		utils.InternalError(c, err.Error())
	}
}

func notifyExpenseAdded(expense models.Expense, payer models.User, trip models.Trip) {
	users := make(map[string]models.User, len(expense.Shares))
	for _, share := range expense.Shares {
		var user models.User
		if err := database.DB.First(&user, share.UserID).Error; err == nil {
			users[share.UserID.String()] = user
		}
	}
	services.GetNotificationService().NotifyExpenseAdded(expense, expense.Shares, payer, trip, users)
}

// Build expense response with payer name and share details
func buildExpenseResponse(expenseID uuid.UUID) models.ExpenseResponse {
	var expense models.Expense
	if err := database.DB.Preload("Shares").First(&expense, expenseID).Error; err != nil {
		return models.ExpenseResponse{}
	}

	var trip models.Trip
	database.DB.First(&trip, expense.TripID)

	var payer models.User
	database.DB.First(&payer, expense.PaidBy)

	var shareResponses []models.ShareResponse
	for _, s := range expense.Shares {
		var user models.User
		database.DB.First(&user, s.UserID)
		shareResponses = append(shareResponses, models.ShareResponse{
			UserID:     s.UserID,
			UserName:   user.Name,
			AmountBase: s.AmountBase,
		})
	}

	return models.ExpenseResponse{
		ID:           expense.ID,
		TripID:       expense.TripID,
		PaidBy:       expense.PaidBy,
		PayerName:    payer.Name,
		ExpenseDate:  expense.ExpenseDate.Format("2006-01-02"),
		Amount:       expense.Amount,
		Currency:     expense.Currency,
		AmountBase:   expense.AmountBase,
		BaseCurrency: trip.BaseCurrency,
		Category:     expense.Category,
		Description:  expense.Description,
		SplitType:    expense.SplitType,
		Shares:       shareResponses,
		CreatedAt:    expense.CreatedAt,
	}
}
