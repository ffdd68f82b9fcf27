package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripledger-backend/models"
	"tripledger-backend/services"
)

// GormStore is the Postgres-backed implementation of services.Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ============================================================
// Trips
// ============================================================

func (s *GormStore) GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.WithContext(ctx).First(&trip, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (s *GormStore) AcceptedParticipants(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.TripParticipant{}).
		Where("trip_id = ? AND status = ?", tripID, models.ParticipantAccepted).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// MarkSettled is the compare-and-swap on the settled bit: the WHERE clause
// only matches an unsettled row, so exactly one concurrent caller sees
// RowsAffected == 1.
func (s *GormStore) MarkSettled(ctx context.Context, tripID uuid.UUID, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("id = ? AND settled = ?", tripID, false).
		Updates(map[string]interface{}{"settled": true, "settled_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) UnmarkSettled(ctx context.Context, tripID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("id = ?", tripID).
		Updates(map[string]interface{}{"settled": false, "settled_at": nil}).Error
}

// ============================================================
// Expenses
// ============================================================

func (s *GormStore) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.WithContext(ctx).
		Preload("Shares").
		First(&expense, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *GormStore) ListExpenses(ctx context.Context, tripID uuid.UUID) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Where("trip_id = ?", tripID).
		Order("expense_date, created_at").
		Find(&expenses).Error
	return expenses, err
}

// lockUnsettledTrip takes a row lock on the trip and fails if it is already
// settled. Run inside every expense mutation so the settled check and the
// write commit atomically: a concurrent settle either sees the expense or
// blocks it, never neither.
func lockUnsettledTrip(tx *gorm.DB, tripID uuid.UUID) error {
	var trip models.Trip
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&trip, "id = ?", tripID).Error; err != nil {
		return err
	}
	if trip.Settled {
		return services.ErrTripAlreadySettled
	}
	return nil
}

func (s *GormStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUnsettledTrip(tx, expense.TripID); err != nil {
			return err
		}
		shares := expense.Shares
		expense.Shares = nil
		if err := tx.Create(expense).Error; err != nil {
			return err
		}
		for i := range shares {
			shares[i].ExpenseID = expense.ID
		}
		if err := tx.Create(&shares).Error; err != nil {
			return err
		}
		expense.Shares = shares
		return nil
	})
}

// UpdateExpense replaces the expense row and all of its shares in one
// transaction. The row lock serializes concurrent edits to the same
// expense so share regeneration is never interleaved.
func (s *GormStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Expense
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", expense.ID).Error; err != nil {
			return err
		}
		if err := lockUnsettledTrip(tx, current.TripID); err != nil {
			return err
		}
		if err := tx.Where("expense_id = ?", expense.ID).
			Delete(&models.ExpenseShare{}).Error; err != nil {
			return err
		}
		shares := expense.Shares
		expense.Shares = nil
		if err := tx.Save(expense).Error; err != nil {
			return err
		}
		for i := range shares {
			shares[i].ID = uuid.Nil
			shares[i].ExpenseID = expense.ID
		}
		if err := tx.Create(&shares).Error; err != nil {
			return err
		}
		expense.Shares = shares
		return nil
	})
}

func (s *GormStore) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expense models.Expense
		if err := tx.First(&expense, "id = ?", id).Error; err != nil {
			return err
		}
		if err := lockUnsettledTrip(tx, expense.TripID); err != nil {
			return err
		}
		if err := tx.Where("expense_id = ?", id).
			Delete(&models.ExpenseShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Expense{}, "id = ?", id).Error
	})
}

// ============================================================
// Exchange rates
// ============================================================

func (s *GormStore) GetRate(ctx context.Context, date time.Time, currency, base string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("date = ? AND currency = ? AND base_currency = ?", date, currency, base).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// InsertRate records a rate unless one already exists for the key; either
// way the stored row is returned, so the first writer wins and later
// lookups keep using it.
func (s *GormStore) InsertRate(ctx context.Context, rate *models.ExchangeRate) (*models.ExchangeRate, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rate).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	return s.GetRate(ctx, rate.Date, rate.Currency, rate.BaseCurrency)
}

// ============================================================
// Settlement results
// ============================================================

func (s *GormStore) SaveSettlement(ctx context.Context, result *models.SettlementResult) error {
	return s.db.WithContext(ctx).Create(result).Error
}

func (s *GormStore) GetSettlement(ctx context.Context, tripID uuid.UUID) (*models.SettlementResult, error) {
	var result models.SettlementResult
	if err := s.db.WithContext(ctx).First(&result, "trip_id = ?", tripID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
