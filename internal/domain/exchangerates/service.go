// Package exchangerates keeps a cached copy of the dollar quotes used to
// convert between pesos and dollars.
package exchangerates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/pkg/money"
)

// Quote codes
const (
	CodeOfficial = "USD_OFICIAL"
	CodeBlue     = "USD_BLUE"
)

const fetchTimeout = 5 * time.Second

var (
	ErrNoSource            = errors.New("no exchange rate source configured")
	ErrRateUnavailable     = errors.New("exchange rate unavailable")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Rate is one dollar quote in pesos.
type Rate struct {
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	Buy        decimal.Decimal `json:"buy"`
	Sell       decimal.Decimal `json:"sell"`
	LastUpdate time.Time       `json:"last_update"`
}

// RateSource fetches the current quotes from an upstream provider.
type RateSource interface {
	FetchRates(ctx context.Context) ([]Rate, error)
}

type snapshot struct {
	rates     []Rate
	fetchedAt time.Time
}

// Service serves quotes from a cache refreshed at most once per TTL. When a
// fetch fails the last snapshot is served even if expired, and zero-valued
// quotes are served when nothing was ever fetched.
type Service struct {
	source RateSource
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache *snapshot
}

// NewService creates the rate cache. source may be nil, in which case only
// the default quotes are served.
func NewService(source RateSource, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Rates returns the cached quotes, fetching them when the cache is empty or
// older than the TTL.
func (s *Service) Rates(ctx context.Context) []Rate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.now().Sub(s.cache.fetchedAt) < s.ttl {
		return cloneRates(s.cache.rates)
	}

	if err := s.fetchLocked(ctx); err != nil {
		s.logger.Error("failed to fetch exchange rates", "error", err)
		if s.cache != nil {
			return cloneRates(s.cache.rates)
		}
		return s.defaultRates()
	}
	return cloneRates(s.cache.rates)
}

// Refresh fetches the quotes regardless of the cache age. The previous
// snapshot is kept when the fetch fails.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fetchLocked(ctx); err != nil {
		return fmt.Errorf("failed to refresh exchange rates: %w", err)
	}
	s.logger.Info("exchange rates refreshed", slog.Int("rates", len(s.cache.rates)))
	return nil
}

func (s *Service) fetchLocked(ctx context.Context) error {
	if s.source == nil {
		return ErrNoSource
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rates, err := s.source.FetchRates(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range rates {
		if rates[i].LastUpdate.IsZero() {
			rates[i].LastUpdate = now
		}
	}
	s.cache = &snapshot{rates: rates, fetchedAt: now}
	return nil
}

func (s *Service) defaultRates() []Rate {
	now := s.now()
	return []Rate{
		{Name: "Dólar Oficial", Code: CodeOfficial, Buy: decimal.Zero, Sell: decimal.Zero, LastUpdate: now},
		{Name: "Dólar Blue", Code: CodeBlue, Buy: decimal.Zero, Sell: decimal.Zero, LastUpdate: now},
	}
}

// Convert converts amount between ARS and USD through the blue quote:
// dollars are sold into pesos and pesos buy dollars.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*money.Money, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	for _, code := range []string{from, to} {
		if code != money.ARS && code != money.USD {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
		}
	}
	if from == to {
		return money.NewFromDecimal(amount, to), nil
	}

	blue, ok := findRate(s.Rates(ctx), CodeBlue)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRateUnavailable, CodeBlue)
	}

	if from == money.USD {
		if blue.Sell.IsZero() {
			return nil, fmt.Errorf("%w: %s sell is zero", ErrRateUnavailable, CodeBlue)
		}
		return money.NewFromDecimal(amount, money.USD).Convert(money.ARS, blue.Sell), nil
	}

	if blue.Buy.IsZero() {
		return nil, fmt.Errorf("%w: %s buy is zero", ErrRateUnavailable, CodeBlue)
	}
	return money.NewFromDecimal(amount.Div(blue.Buy), money.USD), nil
}

func findRate(rates []Rate, code string) (Rate, bool) {
	for _, r := range rates {
		if r.Code == code {
			return r, true
		}
	}
	return Rate{}, false
}

func cloneRates(rates []Rate) []Rate {
	out := make([]Rate, len(rates))
	copy(out, rates)
	return out
}
