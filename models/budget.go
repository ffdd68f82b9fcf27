package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Budget is one participant's personal spending cap for a trip, in the
// trip's base-currency minor units. One row per (trip, user); purely
// informational, the ledger never blocks on it.
type Budget struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trip_user_budget" json:"trip_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trip_user_budget" json:"user_id"`
	AmountBase int64     `gorm:"not null" json:"amount_base"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type SetBudgetRequest struct {
	AmountBase int64 `json:"amount_base" binding:"required,gt=0"` // base minor units
}

type BudgetResponse struct {
	ID           uuid.UUID `json:"id"`
	TripID       uuid.UUID `json:"trip_id"`
	UserID       uuid.UUID `json:"user_id"`
	AmountBase   int64     `json:"amount_base"`
	BaseCurrency string    `json:"base_currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BudgetCategorySpending is one category's slice of a budget summary.
type BudgetCategorySpending struct {
	Category        string  `json:"category"`
	SpentBase       int64   `json:"spent_base"`
	ExpenseCount    int     `json:"expense_count"`
	PercentOfTotal  float64 `json:"percent_of_total"`
	PercentOfBudget float64 `json:"percent_of_budget"`
}

// BudgetSummary reports how much of a personal budget the caller's expense
// shares have consumed.
type BudgetSummary struct {
	TripID             uuid.UUID                `json:"trip_id"`
	UserID             uuid.UUID                `json:"user_id"`
	BaseCurrency       string                   `json:"base_currency"`
	AmountBase         int64                    `json:"amount_base"`
	SpentBase          int64                    `json:"spent_base"`
	RemainingBase      int64                    `json:"remaining_base"`
	FillRatio          float64                  `json:"fill_ratio"` // percent of budget used
	Categories         []BudgetCategorySpending `json:"categories"`
	UncategorizedBase  int64                    `json:"uncategorized_base"`
	UncategorizedCount int                      `json:"uncategorized_count"`
}
