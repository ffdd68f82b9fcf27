package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripledger-backend/models"
)

// memStore is an in-memory Store used by the service tests. It mirrors the
// contract of database.GormStore, including the error sentinels and the
// atomicity of MarkSettled and InsertRate.
type memStore struct {
	mu          sync.Mutex
	trips       map[uuid.UUID]*models.Trip
	roster      map[uuid.UUID][]uuid.UUID
	expenses    map[uuid.UUID]*models.Expense
	rates       map[string]*models.ExchangeRate
	settlements map[uuid.UUID]*models.SettlementResult
}

// testID builds a UUID whose byte ordering is determined by n, so tests can
// rely on ascending-ID tie-breaking.
func testID(n byte) uuid.UUID {
	var id uuid.UUID
	id[0] = n
	id[15] = n
	return id
}

func newMemStore() *memStore {
	return &memStore{
		trips:       make(map[uuid.UUID]*models.Trip),
		roster:      make(map[uuid.UUID][]uuid.UUID),
		expenses:    make(map[uuid.UUID]*models.Expense),
		rates:       make(map[string]*models.ExchangeRate),
		settlements: make(map[uuid.UUID]*models.SettlementResult),
	}
}

func (m *memStore) addTrip(trip *models.Trip, roster ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	m.trips[trip.ID] = trip
	m.roster[trip.ID] = roster
}

func (m *memStore) GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *trip
	return &copied, nil
}

func (m *memStore) AcceptedParticipants(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.roster[tripID]...), nil
}

func (m *memStore) MarkSettled(ctx context.Context, tripID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok || trip.Settled {
		return false, nil
	}
	trip.Settled = true
	trip.SettledAt = &at
	return true, nil
}

func (m *memStore) UnmarkSettled(ctx context.Context, tripID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	trip.Settled = false
	trip.SettledAt = nil
	return nil
}

func (m *memStore) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense, ok := m.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *expense
	copied.Shares = append([]models.ExpenseShare(nil), expense.Shares...)
	return &copied, nil
}

func (m *memStore) ListExpenses(ctx context.Context, tripID uuid.UUID) ([]models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Expense
	for _, expense := range m.expenses {
		if expense.TripID == tripID {
			copied := *expense
			copied.Shares = append([]models.ExpenseShare(nil), expense.Shares...)
			out = append(out, copied)
		}
	}
	return out, nil
}

// settledGuard mirrors the transactional settled check of the production
// store. Callers must hold m.mu.
func (m *memStore) settledGuard(tripID uuid.UUID) error {
	trip, ok := m.trips[tripID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if trip.Settled {
		return ErrTripAlreadySettled
	}
	return nil
}

func (m *memStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.settledGuard(expense.TripID); err != nil {
		return err
	}
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	copied := *expense
	copied.Shares = append([]models.ExpenseShare(nil), expense.Shares...)
	m.expenses[expense.ID] = &copied
	return nil
}

func (m *memStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.expenses[expense.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := m.settledGuard(current.TripID); err != nil {
		return err
	}
	copied := *expense
	copied.Shares = append([]models.ExpenseShare(nil), expense.Shares...)
	m.expenses[expense.ID] = &copied
	return nil
}

func (m *memStore) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense, ok := m.expenses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := m.settledGuard(expense.TripID); err != nil {
		return err
	}
	delete(m.expenses, id)
	return nil
}

func rateKey(date time.Time, currency, base string) string {
	return fmt.Sprintf("%s/%s/%s", date.Format("2006-01-02"), currency, base)
}

func (m *memStore) GetRate(ctx context.Context, date time.Time, currency, base string) (*models.ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rate, ok := m.rates[rateKey(date, currency, base)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *rate
	return &copied, nil
}

func (m *memStore) InsertRate(ctx context.Context, rate *models.ExchangeRate) (*models.ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rateKey(rate.Date, rate.Currency, rate.BaseCurrency)
	if existing, ok := m.rates[key]; ok {
		copied := *existing
		return &copied, nil
	}
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	copied := *rate
	m.rates[key] = &copied
	return rate, nil
}

func (m *memStore) SaveSettlement(ctx context.Context, result *models.SettlementResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settlements[result.TripID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	copied := *result
	m.settlements[result.TripID] = &copied
	return nil
}

func (m *memStore) GetSettlement(ctx context.Context, tripID uuid.UUID) (*models.SettlementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.settlements[tripID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *result
	return &copied, nil
}
