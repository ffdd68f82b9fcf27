package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transfer is a single point-to-point payment in a settlement plan.
type Transfer struct {
	From       uuid.UUID `json:"from"`
	To         uuid.UUID `json:"to"`
	AmountBase int64     `json:"amount_base"`
}

type TransferList []Transfer

func (l TransferList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *TransferList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("unsupported type for TransferList: %T", value)
		}
	}
	return json.Unmarshal(b, l)
}

// BalanceSnapshot maps participant ID to net balance in base minor units.
type BalanceSnapshot map[uuid.UUID]int64

func (s BalanceSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *BalanceSnapshot) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			b = []byte(str)
		} else {
			return fmt.Errorf("unsupported type for BalanceSnapshot: %T", value)
		}
	}
	return json.Unmarshal(b, s)
}

// SettlementResult is the immutable outcome of settling a trip. A trip has
// at most one, created exactly once.
type SettlementResult struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TripID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"trip_id"`
	ComputedAt time.Time       `gorm:"not null" json:"computed_at"`
	Transfers  TransferList    `gorm:"type:jsonb;not null" json:"transfers"`
	Balances   BalanceSnapshot `gorm:"type:jsonb;not null" json:"balances"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (s *SettlementResult) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NetBalance is one participant's paid-minus-owed position for API responses.
type NetBalance struct {
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	AmountBase int64     `json:"amount_base"` // positive = owed money by the group
}

// TripBalanceSummary is returned for GET /api/trips/:id/balances
type TripBalanceSummary struct {
	TripID       uuid.UUID    `json:"trip_id"`
	BaseCurrency string       `json:"base_currency"`
	Balances     []NetBalance `json:"balances"`
	Transfers    []Transfer   `json:"transfers"`
	TotalSpent   int64        `json:"total_spent"` // base minor units
}

type SettlementResponse struct {
	TripID       uuid.UUID    `json:"trip_id"`
	BaseCurrency string       `json:"base_currency"`
	ComputedAt   time.Time    `json:"computed_at"`
	Transfers    []Transfer   `json:"transfers"`
	Balances     []NetBalance `json:"balances"`
}
