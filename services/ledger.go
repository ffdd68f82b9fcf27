package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tripledger-backend/models"
)

// ExpenseInput carries everything needed to create or replace an expense.
// Shares is only consulted for the exact split type.
type ExpenseInput struct {
	TripID       uuid.UUID
	PaidBy       uuid.UUID
	Date         time.Time
	Amount       decimal.Decimal
	Currency     string
	Category     string
	Description  string
	SplitType    string
	Participants []uuid.UUID
	Shares       map[uuid.UUID]int64 // base minor units, exact split only
}

// LedgerService owns expense records and their participant shares for a
// trip. Every mutation renormalizes the amount and regenerates all shares;
// shares are never patched incrementally.
type LedgerService struct {
	store Store
	fx    *FXService
}

func NewLedgerService(store Store, fx *FXService) *LedgerService {
	return &LedgerService{store: store, fx: fx}
}

func (s *LedgerService) AddExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	trip, err := s.store.GetTrip(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Settled {
		return nil, ErrTripAlreadySettled
	}

	expense := &models.Expense{
		TripID:      in.TripID,
		PaidBy:      in.PaidBy,
		ExpenseDate: in.Date,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Category:    in.Category,
		Description: in.Description,
		SplitType:   in.SplitType,
	}
	if err := s.populate(ctx, trip, expense, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	trip, err := s.store.GetTrip(ctx, expense.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Settled {
		return nil, ErrTripAlreadySettled
	}

	expense.PaidBy = in.PaidBy
	expense.ExpenseDate = in.Date
	expense.Amount = in.Amount
	expense.Currency = in.Currency
	expense.Category = in.Category
	expense.Description = in.Description
	expense.SplitType = in.SplitType
	if err := s.populate(ctx, trip, expense, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *LedgerService) RemoveExpense(ctx context.Context, id uuid.UUID) error {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	trip, err := s.store.GetTrip(ctx, expense.TripID)
	if err != nil {
		return err
	}
	if trip.Settled {
		return ErrTripAlreadySettled
	}
	return s.store.DeleteExpense(ctx, id)
}

// populate normalizes the amount and rebuilds the share list on the expense.
func (s *LedgerService) populate(ctx context.Context, trip *models.Trip, expense *models.Expense, in ExpenseInput) error {
	if in.Amount.Sign() <= 0 {
		return fmt.Errorf("expense amount must be positive")
	}

	roster, err := s.store.AcceptedParticipants(ctx, trip.ID)
	if err != nil {
		return err
	}
	accepted := make(map[uuid.UUID]bool, len(roster))
	for _, id := range roster {
		accepted[id] = true
	}
	if !accepted[in.PaidBy] {
		return fmt.Errorf("payer %s: %w", in.PaidBy, ErrNotParticipant)
	}

	amountBase, err := s.fx.Normalize(ctx, in.Amount, in.Currency, in.Date, trip.BaseCurrency)
	if err != nil {
		return err
	}
	expense.AmountBase = amountBase

	switch in.SplitType {
	case models.SplitTypeEqual:
		participants := in.Participants
		if len(participants) == 0 {
			participants = roster
		}
		for _, id := range participants {
			if !accepted[id] {
				return fmt.Errorf("participant %s: %w", id, ErrNotParticipant)
			}
		}
		shares, err := EqualShares(amountBase, participants)
		if err != nil {
			return err
		}
		expense.Shares = shares
	case models.SplitTypeExact:
		if len(in.Shares) == 0 {
			return fmt.Errorf("shares are required for exact split")
		}
		for id := range in.Shares {
			if !accepted[id] {
				return fmt.Errorf("participant %s: %w", id, ErrNotParticipant)
			}
		}
		shares, err := ExactShares(amountBase, in.Shares)
		if err != nil {
			return err
		}
		expense.Shares = shares
	default:
		return fmt.Errorf("invalid split type: %s", in.SplitType)
	}
	return nil
}

// EqualShares divides an integer minor-unit total evenly across the
// participants. The remainder is handed out one unit at a time to the first
// participants in ascending-ID order, so the share sum always equals the
// total exactly and no participant overpays by more than one minor unit.
func EqualShares(totalBase int64, participants []uuid.UUID) ([]models.ExpenseShare, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("at least one participant is required")
	}

	ordered := make([]uuid.UUID, len(participants))
	copy(ordered, participants)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})
	for i := 1; i < len(ordered); i++ {
		if ordered[i] == ordered[i-1] {
			return nil, fmt.Errorf("duplicate participant %s", ordered[i])
		}
	}

	n := int64(len(ordered))
	base := totalBase / n
	remainder := totalBase % n

	shares := make([]models.ExpenseShare, len(ordered))
	for i, id := range ordered {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares[i] = models.ExpenseShare{UserID: id, AmountBase: amount}
	}
	return shares, nil
}

// ExactShares accepts caller-supplied shares verbatim after checking they
// sum to the normalized total exactly. Output order is ascending user ID.
func ExactShares(totalBase int64, inputs map[uuid.UUID]int64) ([]models.ExpenseShare, error) {
	var sum int64
	shares := make([]models.ExpenseShare, 0, len(inputs))
	for id, amount := range inputs {
		if amount < 0 {
			return nil, fmt.Errorf("share for %s is negative", id)
		}
		sum += amount
		shares = append(shares, models.ExpenseShare{UserID: id, AmountBase: amount})
	}
	if sum != totalBase {
		return nil, fmt.Errorf("%w: shares sum to %d, expense total is %d", ErrShareSumMismatch, sum, totalBase)
	}
	sort.Slice(shares, func(i, j int) bool {
		return bytes.Compare(shares[i].UserID[:], shares[j].UserID[:]) < 0
	})
	return shares, nil
}
