package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripledger-backend/models"
)

// SettlementService gates the one-way Finished -> Settled transition and
// guarantees at-most-once computation of a trip's settlement.
type SettlementService struct {
	store Store
	now   func() time.Time
}

func NewSettlementService(store Store) *SettlementService {
	return &SettlementService{store: store, now: time.Now}
}

// Trigger settles a Finished trip. Concurrent callers are expected: the
// settled bit is flipped with an atomic compare-and-swap, the single winner
// computes and persists the result, and losers receive the stored result
// instead of an error. Calling on an already settled trip echoes the
// existing result.
func (s *SettlementService) Trigger(ctx context.Context, tripID, requestedBy uuid.UUID) (*models.SettlementResult, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Settled {
		return s.awaitResult(ctx, tripID)
	}
	if trip.Status(s.now()) != models.TripStatusFinished {
		return nil, fmt.Errorf("%w: trip ends %s", ErrTripNotFinished, trip.EndDate.Format("2006-01-02"))
	}

	settledAt := s.now().UTC()
	won, err := s.store.MarkSettled(ctx, tripID, settledAt)
	if err != nil {
		return nil, err
	}
	if !won {
		return s.awaitResult(ctx, tripID)
	}

	log.Printf("💰 Settling trip %s (triggered by %s)", tripID, requestedBy)
	result, err := s.compute(ctx, tripID, settledAt)
	if err != nil {
		// Leave the trip Finished so settlement can be retried.
		if rbErr := s.store.UnmarkSettled(ctx, tripID); rbErr != nil {
			return nil, fmt.Errorf("settlement failed (%v) and rollback failed: %w", err, rbErr)
		}
		return nil, err
	}
	return result, nil
}

func (s *SettlementService) compute(ctx context.Context, tripID uuid.UUID, at time.Time) (*models.SettlementResult, error) {
	roster, err := s.store.AcceptedParticipants(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("trip has no accepted participants")
	}
	expenses, err := s.store.ListExpenses(ctx, tripID)
	if err != nil {
		return nil, err
	}

	balances := ComputeBalances(expenses, roster)
	transfers, err := Simplify(balances)
	if err != nil {
		return nil, err
	}

	result := &models.SettlementResult{
		TripID:     tripID,
		ComputedAt: at,
		Transfers:  transfers,
		Balances:   balances,
	}
	if err := s.store.SaveSettlement(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetResult returns the stored settlement for a trip. Reads are idempotent
// and side-effect free; the result never changes once written.
func (s *SettlementService) GetResult(ctx context.Context, tripID uuid.UUID) (*models.SettlementResult, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.Settled {
		return nil, ErrNotSettled
	}
	result, err := s.store.GetSettlement(ctx, tripID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotSettled
	}
	return result, err
}

// awaitResult waits briefly for the CAS winner to persist its result.
func (s *SettlementService) awaitResult(ctx context.Context, tripID uuid.UUID) (*models.SettlementResult, error) {
	for i := 0; i < 50; i++ {
		result, err := s.store.GetSettlement(ctx, tripID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("settlement is still being computed: %w", ErrNotSettled)
}
