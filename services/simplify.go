package services

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"tripledger-backend/models"
)

type userAmount struct {
	userID uuid.UUID
	amount int64
}

// Simplify turns net balances into a transfer plan that exactly cancels
// them. It greedily pairs the largest outstanding credit with the largest
// outstanding debt, breaking magnitude ties by ascending user ID so output
// is deterministic for identical input. The greedy plan is small and
// optimal for common imbalances but not a certified minimum for every
// multi-party cycle.
//
// Balances must sum to zero; anything else indicates a bug upstream and
// fails with ErrBalanceIntegrity rather than producing a wrong plan.
func Simplify(balances map[uuid.UUID]int64) ([]models.Transfer, error) {
	var sum int64
	var creditors, debtors []userAmount
	for id, balance := range balances {
		sum += balance
		switch {
		case balance > 0:
			creditors = append(creditors, userAmount{id, balance})
		case balance < 0:
			debtors = append(debtors, userAmount{id, -balance})
		}
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: sum is %d", ErrBalanceIntegrity, sum)
	}

	transfers := []models.Transfer{}
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largest(creditors)
		di := largest(debtors)

		amount := creditors[ci].amount
		if debtors[di].amount < amount {
			amount = debtors[di].amount
		}
		transfers = append(transfers, models.Transfer{
			From:       debtors[di].userID,
			To:         creditors[ci].userID,
			AmountBase: amount,
		})

		creditors[ci].amount -= amount
		debtors[di].amount -= amount
		if creditors[ci].amount == 0 {
			creditors = append(creditors[:ci], creditors[ci+1:]...)
		}
		if debtors[di].amount == 0 {
			debtors = append(debtors[:di], debtors[di+1:]...)
		}
	}
	return transfers, nil
}

// largest returns the index of the entry with the greatest amount,
// preferring the smaller user ID on ties.
func largest(entries []userAmount) int {
	best := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].amount > entries[best].amount ||
			(entries[i].amount == entries[best].amount &&
				bytes.Compare(entries[i].userID[:], entries[best].userID[:]) < 0) {
			best = i
		}
	}
	return best
}
