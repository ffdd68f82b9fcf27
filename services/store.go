package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripledger-backend/models"
)

// Store is the persistence boundary for the ledger and settlement services.
// database.GormStore is the production implementation; tests use an
// in-memory one. "Not found" is reported as gorm.ErrRecordNotFound and a
// lost insert race as gorm.ErrDuplicatedKey, matching what the GORM error
// translator produces.
type Store interface {
	// Trips
	GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	// AcceptedParticipants returns the user IDs with accepted invitations.
	// Pending invitees never appear in balance computations.
	AcceptedParticipants(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
	// MarkSettled flips the settled bit only if it is currently unset and
	// reports whether this caller won the flip. This is the atomic guard for
	// the Finished -> Settled transition.
	MarkSettled(ctx context.Context, tripID uuid.UUID, at time.Time) (bool, error)
	// UnmarkSettled rolls the flip back after a failed computation so the
	// trip stays retryable.
	UnmarkSettled(ctx context.Context, tripID uuid.UUID) error

	// Expenses. Create and Update persist the expense together with its
	// shares atomically; Update replaces all shares. All three mutations
	// re-check the trip's settled bit inside the same transaction and fail
	// with ErrTripAlreadySettled, so no write can slip past a concurrent
	// MarkSettled.
	GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	ListExpenses(ctx context.Context, tripID uuid.UUID) ([]models.Expense, error)
	CreateExpense(ctx context.Context, expense *models.Expense) error
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error

	// Exchange rates. InsertRate is insert-if-absent: the first writer for a
	// (date, currency, base) key wins and the stored row is returned either way.
	GetRate(ctx context.Context, date time.Time, currency, base string) (*models.ExchangeRate, error)
	InsertRate(ctx context.Context, rate *models.ExchangeRate) (*models.ExchangeRate, error)

	// Settlement results
	SaveSettlement(ctx context.Context, result *models.SettlementResult) error
	GetSettlement(ctx context.Context, tripID uuid.UUID) (*models.SettlementResult, error)
}
