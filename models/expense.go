package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SplitTypeEqual = "equal"
	SplitTypeExact = "exact"
)

type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TripID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"trip_id"`
	Trip        Trip            `gorm:"foreignKey:TripID" json:"-"`
	PaidBy      uuid.UUID       `gorm:"type:uuid;not null" json:"paid_by"`
	Payer       User            `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	ExpenseDate time.Time       `gorm:"type:date;not null;index" json:"expense_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"amount"`
	Currency    string          `gorm:"not null;size:3" json:"currency"`
	// AmountBase is the amount normalized to the trip's base currency, in
	// minor units. Always recomputed when amount, currency or date changes.
	AmountBase  int64          `gorm:"not null" json:"amount_base"`
	Category    string         `gorm:"size:50" json:"category"`
	Description string         `gorm:"size:255" json:"description"`
	SplitType   string         `gorm:"not null;size:20" json:"split_type"` // equal, exact
	Shares      []ExpenseShare `gorm:"foreignKey:ExpenseID" json:"shares,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type ExpenseShare struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID uuid.UUID `gorm:"type:uuid;index;not null" json:"expense_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	// AmountBase is this participant's portion in base-currency minor units.
	// Shares of one expense always sum to the expense's AmountBase exactly.
	AmountBase int64     `gorm:"not null" json:"amount_base"`
	CreatedAt  time.Time `json:"created_at"`
}

func (es *ExpenseShare) BeforeCreate(tx *gorm.DB) error {
	if es.ID == uuid.Nil {
		es.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateExpenseRequest struct {
	PaidBy       string          `json:"paid_by"`
	ExpenseDate  string          `json:"expense_date" binding:"required"` // YYYY-MM-DD
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Currency     string          `json:"currency" binding:"required"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	SplitType    string          `json:"split_type" binding:"omitempty,oneof=equal exact"`
	Participants []string        `json:"participants"` // user IDs sharing the expense
	Shares       []ShareInput    `json:"shares"`       // required for exact split
}

type UpdateExpenseRequest struct {
	ExpenseDate  string           `json:"expense_date"`
	Amount       *decimal.Decimal `json:"amount"`
	Currency     string           `json:"currency"`
	Category     string           `json:"category"`
	Description  string           `json:"description"`
	SplitType    string           `json:"split_type" binding:"omitempty,oneof=equal exact"`
	Participants []string         `json:"participants"`
	Shares       []ShareInput     `json:"shares"`
}

type ShareInput struct {
	UserID     string `json:"user_id" binding:"required"`
	AmountBase int64  `json:"amount_base"` // base-currency minor units
}

// Response
type ExpenseResponse struct {
	ID           uuid.UUID       `json:"id"`
	TripID       uuid.UUID       `json:"trip_id"`
	PaidBy       uuid.UUID       `json:"paid_by"`
	PayerName    string          `json:"payer_name"`
	ExpenseDate  string          `json:"expense_date"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	AmountBase   int64           `json:"amount_base"`
	BaseCurrency string          `json:"base_currency"`
	Category     string          `json:"category,omitempty"`
	Description  string          `json:"description,omitempty"`
	SplitType    string          `json:"split_type"`
	Shares       []ShareResponse `json:"shares"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ShareResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	AmountBase int64     `json:"amount_base"`
}

// OCRExpenseDraft is a provisional expense extracted by the external OCR
// service. Drafts are suggestions only; nothing is persisted until the
// client submits a regular create-expense request.
type OCRExpenseDraft struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}
