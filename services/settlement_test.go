package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tripledger-backend/models"
)

func finishedTrip() *models.Trip {
	now := time.Now()
	return &models.Trip{
		Name:         "Jeju 2026",
		BaseCurrency: "KRW",
		StartDate:    now.Add(-96 * time.Hour),
		EndDate:      now.Add(-48 * time.Hour),
	}
}

func seedExpense(store *memStore, tripID uuid.UUID, paidBy uuid.UUID, total int64, shares map[uuid.UUID]int64) {
	expense := &models.Expense{
		TripID:     tripID,
		PaidBy:     paidBy,
		AmountBase: total,
	}
	for id, amount := range shares {
		expense.Shares = append(expense.Shares, models.ExpenseShare{UserID: id, AmountBase: amount})
	}
	store.CreateExpense(context.Background(), expense)
}

func TestTriggerSettlesFinishedTrip(t *testing.T) {
	store := newMemStore()
	a, b, c := testID(1), testID(2), testID(3)
	trip := finishedTrip()
	store.addTrip(trip, a, b, c)
	seedExpense(store, trip.ID, a, 9000, map[uuid.UUID]int64{a: 3000, b: 3000, c: 3000})

	svc := NewSettlementService(store)
	result, err := svc.Trigger(context.Background(), trip.ID, a)
	assert.NoError(t, err)
	assert.Equal(t, trip.ID, result.TripID)
	assert.Equal(t, []models.Transfer{
		{From: b, To: a, AmountBase: 3000},
		{From: c, To: a, AmountBase: 3000},
	}, []models.Transfer(result.Transfers))
	assert.Equal(t, models.BalanceSnapshot{a: 6000, b: -3000, c: -3000}, result.Balances)

	stored, err := store.GetTrip(context.Background(), trip.ID)
	assert.NoError(t, err)
	assert.True(t, stored.Settled)
	assert.NotNil(t, stored.SettledAt)
	assert.Equal(t, models.TripStatusSettled, stored.Status(time.Now()))
}

func TestTriggerRejectsUnfinishedTrip(t *testing.T) {
	store := newMemStore()
	a := testID(1)
	now := time.Now()
	trip := &models.Trip{
		BaseCurrency: "KRW",
		StartDate:    now.Add(-24 * time.Hour),
		EndDate:      now.Add(48 * time.Hour),
	}
	store.addTrip(trip, a)

	svc := NewSettlementService(store)
	_, err := svc.Trigger(context.Background(), trip.ID, a)
	assert.ErrorIs(t, err, ErrTripNotFinished)

	stored, _ := store.GetTrip(context.Background(), trip.ID)
	assert.False(t, stored.Settled)
}

func TestTriggerIsIdempotent(t *testing.T) {
	store := newMemStore()
	a, b := testID(1), testID(2)
	trip := finishedTrip()
	store.addTrip(trip, a, b)
	seedExpense(store, trip.ID, a, 1000, map[uuid.UUID]int64{b: 1000})

	svc := NewSettlementService(store)
	first, err := svc.Trigger(context.Background(), trip.ID, a)
	assert.NoError(t, err)

	second, err := svc.Trigger(context.Background(), trip.ID, b)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Transfers, second.Transfers)
}

func TestTriggerConcurrentCallersShareOneResult(t *testing.T) {
	store := newMemStore()
	a, b, c := testID(1), testID(2), testID(3)
	trip := finishedTrip()
	store.addTrip(trip, a, b, c)
	seedExpense(store, trip.ID, a, 3000, map[uuid.UUID]int64{a: 1000, b: 1000, c: 1000})

	svc := NewSettlementService(store)

	const callers = 8
	results := make([]*models.SettlementResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Trigger(context.Background(), trip.ID, a)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.NotNil(t, results[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	stored, err := store.GetSettlement(context.Background(), trip.ID)
	assert.NoError(t, err)
	assert.Equal(t, results[0].ID, stored.ID)
}

func TestTriggerRollsBackOnComputeFailure(t *testing.T) {
	store := newMemStore()
	trip := finishedTrip()
	store.addTrip(trip) // no accepted participants, computation must fail

	svc := NewSettlementService(store)
	_, err := svc.Trigger(context.Background(), trip.ID, testID(1))
	assert.Error(t, err)

	// The trip stays Finished so settlement can be retried.
	stored, _ := store.GetTrip(context.Background(), trip.ID)
	assert.False(t, stored.Settled)
	assert.Nil(t, stored.SettledAt)
	assert.Equal(t, models.TripStatusFinished, stored.Status(time.Now()))
}

func TestGetResultRequiresSettledTrip(t *testing.T) {
	store := newMemStore()
	a, b := testID(1), testID(2)
	trip := finishedTrip()
	store.addTrip(trip, a, b)
	seedExpense(store, trip.ID, a, 500, map[uuid.UUID]int64{b: 500})

	svc := NewSettlementService(store)
	_, err := svc.GetResult(context.Background(), trip.ID)
	assert.ErrorIs(t, err, ErrNotSettled)

	triggered, err := svc.Trigger(context.Background(), trip.ID, a)
	assert.NoError(t, err)

	fetched, err := svc.GetResult(context.Background(), trip.ID)
	assert.NoError(t, err)
	assert.Equal(t, triggered.ID, fetched.ID)
}
