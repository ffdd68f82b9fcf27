package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tripledger-backend/models"
)

// RateProvider fetches a conversion rate from an external source.
// The lookup is the engine's only remote suspension point; callers bound it
// with their own context deadline and retry policy, the provider does not
// retry internally.
type RateProvider interface {
	FetchRate(ctx context.Context, date time.Time, currency, base string) (decimal.Decimal, error)
}

// FXService normalizes amounts into a trip's base currency. Rates are
// resolved through Redis, then the database, then the external provider;
// the first rate recorded for a (date, currency, base) key stays
// authoritative for the life of the data.
type FXService struct {
	store    Store
	provider RateProvider
	redis    *redis.Client // optional, nil when Redis is unavailable
}

func NewFXService(store Store, provider RateProvider, rdb *redis.Client) *FXService {
	return &FXService{store: store, provider: provider, redis: rdb}
}

// GetRate returns the rate converting 1 unit of currency into base for the
// given calendar date.
func (s *FXService) GetRate(ctx context.Context, date time.Time, currency, base string) (decimal.Decimal, error) {
	currency = strings.ToUpper(currency)
	base = strings.ToUpper(base)
	if currency == base {
		return decimal.NewFromInt(1), nil
	}

	key := fmt.Sprintf("fx:%s:%s:%s", base, date.Format("2006-01-02"), currency)
	if s.redis != nil {
		if v, err := s.redis.Get(ctx, key).Result(); err == nil {
			if rate, perr := decimal.NewFromString(v); perr == nil {
				return rate, nil
			}
		}
	}

	stored, err := s.store.GetRate(ctx, date, currency, base)
	if err == nil {
		s.cache(ctx, key, stored.Rate)
		return stored.Rate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	fetched, err := s.provider.FetchRate(ctx, date, currency, base)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s on %s: %v",
			ErrRateUnavailable, currency, base, date.Format("2006-01-02"), err)
	}

	// Concurrent first lookups may race to this insert; only one row becomes
	// authoritative and everyone uses it.
	authoritative, err := s.store.InsertRate(ctx, &models.ExchangeRate{
		Date:         date,
		Currency:     currency,
		BaseCurrency: base,
		Rate:         fetched,
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.cache(ctx, key, authoritative.Rate)
	return authoritative.Rate, nil
}

// Normalize converts an original-currency amount into base-currency minor
// units for the given date. Amounts already in the base currency pass
// through without a lookup.
func (s *FXService) Normalize(ctx context.Context, amount decimal.Decimal, currency string, date time.Time, base string) (int64, error) {
	if strings.EqualFold(currency, base) {
		return ToMinorUnits(amount, base), nil
	}
	rate, err := s.GetRate(ctx, date, currency, base)
	if err != nil {
		return 0, err
	}
	return ToMinorUnits(amount.Mul(rate), base), nil
}

func (s *FXService) cache(ctx context.Context, key string, rate decimal.Decimal) {
	if s.redis == nil {
		return
	}
	// Rates are immutable once recorded, so the TTL is generous.
	if err := s.redis.Set(ctx, key, rate.String(), 7*24*time.Hour).Err(); err != nil {
		log.Printf("⚠️  Failed to cache fx rate %s: %v", key, err)
	}
}

// exchangeRateAPI fetches daily rates from ExchangeRate-API v6.
// Latest:   GET {base_url}/{key}/latest/{currency}
// History:  GET {base_url}/{key}/history/{currency}/{year}/{month}/{day}
type exchangeRateAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewExchangeRateAPI(apiKey, baseURL string) RateProvider {
	return &exchangeRateAPI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type exchangeRateAPIResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func (p *exchangeRateAPI) FetchRate(ctx context.Context, date time.Time, currency, base string) (decimal.Decimal, error) {
	if p.apiKey == "" {
		return decimal.Zero, fmt.Errorf("FX_API_KEY is not configured")
	}

	var url string
	if date.Format("2006-01-02") == time.Now().UTC().Format("2006-01-02") {
		url = fmt.Sprintf("%s/%s/latest/%s", p.baseURL, p.apiKey, currency)
	} else {
		url = fmt.Sprintf("%s/%s/history/%s/%d/%d/%d",
			p.baseURL, p.apiKey, currency, date.Year(), date.Month(), date.Day())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchangerate-api returned status %d", resp.StatusCode)
	}

	var body exchangeRateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	if body.Result != "success" {
		return decimal.Zero, fmt.Errorf("exchangerate-api error: %s", body.ErrorType)
	}

	rate, ok := body.ConversionRates[base]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s rate not present in response", base)
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid rate %s for %s/%s", rate, currency, base)
	}
	return rate, nil
}
