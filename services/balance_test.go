package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tripledger-backend/models"
)

func TestComputeBalancesSumsToZero(t *testing.T) {
	a, b, c := testID(1), testID(2), testID(3)

	expenses := []models.Expense{
		{
			PaidBy:     a,
			AmountBase: 10000,
			Shares: []models.ExpenseShare{
				{UserID: a, AmountBase: 3334},
				{UserID: b, AmountBase: 3333},
				{UserID: c, AmountBase: 3333},
			},
		},
		{
			PaidBy:     b,
			AmountBase: 5000,
			Shares: []models.ExpenseShare{
				{UserID: a, AmountBase: 2500},
				{UserID: c, AmountBase: 2500},
			},
		},
	}

	balances := ComputeBalances(expenses, []uuid.UUID{a, b, c})

	assert.Equal(t, int64(10000-3334-2500), balances[a])
	assert.Equal(t, int64(5000-3333), balances[b])
	assert.Equal(t, int64(-3333-2500), balances[c])

	var sum int64
	for _, v := range balances {
		sum += v
	}
	assert.Zero(t, sum)
}

func TestComputeBalancesKeepsZeroEntries(t *testing.T) {
	a, b, bystander := testID(1), testID(2), testID(3)

	expenses := []models.Expense{
		{
			PaidBy:     a,
			AmountBase: 400,
			Shares: []models.ExpenseShare{
				{UserID: b, AmountBase: 400},
			},
		},
	}

	balances := ComputeBalances(expenses, []uuid.UUID{a, b, bystander})
	assert.Len(t, balances, 3)
	assert.Equal(t, int64(400), balances[a])
	assert.Equal(t, int64(-400), balances[b])

	amount, ok := balances[bystander]
	assert.True(t, ok)
	assert.Zero(t, amount)
}

func TestBalanceServiceForTrip(t *testing.T) {
	store := newMemStore()
	a, b := testID(1), testID(2)
	trip := &models.Trip{BaseCurrency: "KRW"}
	store.addTrip(trip, a, b)

	store.CreateExpense(context.Background(), &models.Expense{
		TripID:     trip.ID,
		PaidBy:     a,
		AmountBase: 1000,
		Shares: []models.ExpenseShare{
			{UserID: a, AmountBase: 500},
			{UserID: b, AmountBase: 500},
		},
	})

	balances, err := NewBalanceService(store).ForTrip(context.Background(), trip.ID)
	assert.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{a: 500, b: -500}, balances)
}
