package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExchangeRate records the conversion rate for one currency on one day.
// Rates are shared reference data across all trips. The first rate recorded
// for a (date, currency, base_currency) key is authoritative and is never
// overwritten, so historical normalizations stay stable.
type ExchangeRate struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Date         time.Time       `gorm:"type:date;not null;uniqueIndex:uq_date_currency_base" json:"date"`
	Currency     string          `gorm:"not null;size:3;uniqueIndex:uq_date_currency_base" json:"currency"`
	BaseCurrency string          `gorm:"not null;size:3;uniqueIndex:uq_date_currency_base" json:"base_currency"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"rate"` // 1 Currency = Rate BaseCurrency
	CreatedAt    time.Time       `json:"created_at"`
}

func (r *ExchangeRate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ExchangeRateResponse struct {
	Date         string          `json:"date"`
	Currency     string          `json:"currency"`
	BaseCurrency string          `json:"base_currency"`
	Rate         decimal.Decimal `json:"rate"`
}
