package services

import (
	"context"

	"github.com/google/uuid"

	"tripledger-backend/models"
)

// BalanceService aggregates per-participant totals across a trip's ledger.
type BalanceService struct {
	store Store
}

func NewBalanceService(store Store) *BalanceService {
	return &BalanceService{store: store}
}

// ComputeBalances returns each participant's net balance (paid minus owed)
// in base minor units. Every accepted participant appears in the result,
// zero balances included, so downstream simplification sees the full set.
// The sum over all values is always exactly zero: each minor unit paid is
// credited to one payer and debited across shares that sum to the same total.
func ComputeBalances(expenses []models.Expense, roster []uuid.UUID) map[uuid.UUID]int64 {
	balances := make(map[uuid.UUID]int64, len(roster))
	for _, id := range roster {
		balances[id] = 0
	}
	for _, expense := range expenses {
		balances[expense.PaidBy] += expense.AmountBase
		for _, share := range expense.Shares {
			balances[share.UserID] -= share.AmountBase
		}
	}
	return balances
}

// ForTrip loads the trip's ledger and roster and computes net balances.
// Works in any trip state; used for the read-only preview as well as
// settlement.
func (s *BalanceService) ForTrip(ctx context.Context, tripID uuid.UUID) (map[uuid.UUID]int64, error) {
	roster, err := s.store.AcceptedParticipants(ctx, tripID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return ComputeBalances(expenses, roster), nil
}
