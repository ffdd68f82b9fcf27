package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tripledger-backend/models"
)

var testDate = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

func TestGetRateIdentity(t *testing.T) {
	provider := &stubProvider{rate: decimal.NewFromInt(42)}
	fx := NewFXService(newMemStore(), provider, nil)

	rate, err := fx.GetRate(context.Background(), testDate, "KRW", "KRW")
	assert.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.Zero(t, atomic.LoadInt32(&provider.calls))

	// Case-insensitive currency codes.
	rate, err = fx.GetRate(context.Background(), testDate, "usd", "USD")
	assert.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestGetRateFetchesOnceThenUsesStore(t *testing.T) {
	store := newMemStore()
	provider := &stubProvider{rate: decimal.RequireFromString("1300.50")}
	fx := NewFXService(store, provider, nil)

	rate, err := fx.GetRate(context.Background(), testDate, "USD", "KRW")
	assert.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1300.50")))

	rate, err = fx.GetRate(context.Background(), testDate, "USD", "KRW")
	assert.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1300.50")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestGetRateFirstRecordedRateWins(t *testing.T) {
	store := newMemStore()
	stored, err := store.InsertRate(context.Background(), &models.ExchangeRate{
		Date:         testDate,
		Currency:     "USD",
		BaseCurrency: "KRW",
		Rate:         decimal.RequireFromString("1250"),
	})
	assert.NoError(t, err)
	assert.True(t, stored.Rate.Equal(decimal.RequireFromString("1250")))

	// The provider would return a different rate; it must never be asked.
	provider := &stubProvider{rate: decimal.RequireFromString("1999")}
	fx := NewFXService(store, provider, nil)

	rate, err := fx.GetRate(context.Background(), testDate, "USD", "KRW")
	assert.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1250")))
	assert.Zero(t, atomic.LoadInt32(&provider.calls))

	// A losing insert returns the authoritative row, not the attempted one.
	stored, err = store.InsertRate(context.Background(), &models.ExchangeRate{
		Date:         testDate,
		Currency:     "USD",
		BaseCurrency: "KRW",
		Rate:         decimal.RequireFromString("1999"),
	})
	assert.NoError(t, err)
	assert.True(t, stored.Rate.Equal(decimal.RequireFromString("1250")))
}

func TestGetRateProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream timeout")}
	fx := NewFXService(newMemStore(), provider, nil)

	_, err := fx.GetRate(context.Background(), testDate, "USD", "KRW")
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.Contains(t, err.Error(), "USD/KRW")
}

func TestNormalizeBaseCurrencyPassthrough(t *testing.T) {
	provider := &stubProvider{}
	fx := NewFXService(newMemStore(), provider, nil)

	base, err := fx.Normalize(context.Background(), decimal.RequireFromString("12.34"), "USD", testDate, "USD")
	assert.NoError(t, err)
	assert.Equal(t, int64(1234), base)
	assert.Zero(t, atomic.LoadInt32(&provider.calls))
}

func TestNormalizeAppliesRateAndMinorUnits(t *testing.T) {
	provider := &stubProvider{rate: decimal.RequireFromString("1300.5")}
	fx := NewFXService(newMemStore(), provider, nil)

	// 10 USD * 1300.5 = 13005 KRW, a zero-decimal currency.
	base, err := fx.Normalize(context.Background(), decimal.NewFromInt(10), "USD", testDate, "KRW")
	assert.NoError(t, err)
	assert.Equal(t, int64(13005), base)
}

func TestNormalizeRoundsHalfToEven(t *testing.T) {
	provider := &stubProvider{rate: decimal.RequireFromString("0.125")}
	fx := NewFXService(newMemStore(), provider, nil)

	// 1 JPY * 0.125 = 0.125 USD; half a cent rounds to the even cent.
	base, err := fx.Normalize(context.Background(), decimal.NewFromInt(1), "JPY", testDate, "USD")
	assert.NoError(t, err)
	assert.Equal(t, int64(12), base)
}
