package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTripStatusDerivedFromDates(t *testing.T) {
	trip := Trip{
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 15),
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before start", date(2026, 3, 9), TripStatusUpcoming},
		{"on start date", date(2026, 3, 10), TripStatusOngoing},
		{"mid trip", date(2026, 3, 12), TripStatusOngoing},
		{"on end date", date(2026, 3, 15), TripStatusOngoing},
		{"day after end", date(2026, 3, 16), TripStatusFinished},
		{"long after end", date(2026, 6, 1), TripStatusFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trip.Status(tt.now))
		})
	}
}

func TestTripStatusUsesCallersCalendarDate(t *testing.T) {
	trip := Trip{
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 15),
	}

	// Early on Mar 16 in Seoul it is still Mar 15 in UTC; the trip is
	// nevertheless finished for the caller.
	kst := time.FixedZone("KST", 9*60*60)
	assert.Equal(t, TripStatusFinished, trip.Status(time.Date(2026, 3, 16, 5, 0, 0, 0, kst)))

	// Late on Mar 9 west of UTC it is already Mar 10 in UTC; the trip has
	// not started for the caller.
	pst := time.FixedZone("PST", -8*60*60)
	assert.Equal(t, TripStatusUpcoming, trip.Status(time.Date(2026, 3, 9, 20, 0, 0, 0, pst)))
}

func TestTripStatusPinnedOnceSettled(t *testing.T) {
	settledAt := date(2026, 3, 20)
	trip := Trip{
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 15),
		Settled:   true,
		SettledAt: &settledAt,
	}

	assert.Equal(t, TripStatusSettled, trip.Status(date(2026, 3, 9)))
	assert.Equal(t, TripStatusSettled, trip.Status(date(2026, 3, 12)))
	assert.Equal(t, TripStatusSettled, trip.Status(date(2027, 1, 1)))
}
