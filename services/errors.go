package services

import "errors"

// Expected validation and control-flow errors. Handlers map these to HTTP
// statuses with errors.Is; the specific kind is never masked.
var (
	// ErrRateUnavailable means the external provider could not supply a rate
	// for the requested date/currency. Retryable by the caller; the ledger
	// never falls back to a rate of 1.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrShareSumMismatch means explicit shares do not sum to the expense's
	// normalized total. The write is rejected with nothing persisted.
	ErrShareSumMismatch = errors.New("shares do not sum to the expense total")

	// ErrTripAlreadySettled means a mutation was attempted on a settled trip.
	// The ledger is read-only from settlement on.
	ErrTripAlreadySettled = errors.New("trip is already settled")

	// ErrTripNotFinished means settlement was triggered before the trip's
	// end date passed.
	ErrTripNotFinished = errors.New("trip is not finished")

	// ErrNotSettled means a settlement result was requested before one was
	// computed.
	ErrNotSettled = errors.New("trip has not been settled")

	// ErrNotParticipant means a user referenced by an expense is not an
	// accepted participant of the trip.
	ErrNotParticipant = errors.New("not an accepted trip participant")

	// ErrBalanceIntegrity means net balances did not sum to zero. This is an
	// internal invariant violation, never expected in normal operation; the
	// settlement attempt is aborted without persisting anything.
	ErrBalanceIntegrity = errors.New("net balances do not sum to zero")
)
