package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tripledger-backend/models"
)

func TestSimplifyPairsLargestDebtWithLargestCredit(t *testing.T) {
	a, b, c := testID(1), testID(2), testID(3)

	transfers, err := Simplify(map[uuid.UUID]int64{
		a: 300,
		b: -100,
		c: -200,
	})
	assert.NoError(t, err)
	assert.Equal(t, []models.Transfer{
		{From: c, To: a, AmountBase: 200},
		{From: b, To: a, AmountBase: 100},
	}, transfers)
}

func TestSimplifyEmptyAndSettledBalances(t *testing.T) {
	transfers, err := Simplify(map[uuid.UUID]int64{})
	assert.NoError(t, err)
	assert.Empty(t, transfers)
	assert.NotNil(t, transfers)

	// All zero balances produce no transfers.
	transfers, err = Simplify(map[uuid.UUID]int64{
		testID(1): 0,
		testID(2): 0,
	})
	assert.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestSimplifyRejectsNonZeroSum(t *testing.T) {
	_, err := Simplify(map[uuid.UUID]int64{
		testID(1): 100,
		testID(2): -50,
	})
	assert.ErrorIs(t, err, ErrBalanceIntegrity)
}

func TestSimplifyDeterministicOnTies(t *testing.T) {
	a, b, c, d := testID(1), testID(2), testID(3), testID(4)
	balances := map[uuid.UUID]int64{
		a: 100,
		b: 100,
		c: -100,
		d: -100,
	}

	first, err := Simplify(balances)
	assert.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Simplify(balances)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Ties break toward the smaller user ID.
	assert.Equal(t, []models.Transfer{
		{From: c, To: a, AmountBase: 100},
		{From: d, To: b, AmountBase: 100},
	}, first)
}

func TestSimplifyTransfersCancelBalances(t *testing.T) {
	a, b, c, d := testID(1), testID(2), testID(3), testID(4)
	balances := map[uuid.UUID]int64{
		a: 733,
		b: -120,
		c: -412,
		d: -201,
	}

	transfers, err := Simplify(balances)
	assert.NoError(t, err)

	remaining := make(map[uuid.UUID]int64, len(balances))
	for id, v := range balances {
		remaining[id] = v
	}
	for _, tr := range transfers {
		assert.Positive(t, tr.AmountBase)
		remaining[tr.From] += tr.AmountBase
		remaining[tr.To] -= tr.AmountBase
	}
	for id, v := range remaining {
		assert.Zerof(t, v, "balance for %s not cancelled", id)
	}
}
