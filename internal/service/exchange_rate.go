package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/catalogops/priced-catalog-service/internal/observability"
)

const rateCacheKey = "exchange_rate"

// RateProvider yields the current USD to EUR display rate. Implementations
// must always return a usable value; degradation is handled internally.
type RateProvider interface {
	Rate(ctx context.Context) float64
}

// ExchangeRateService fetches the USD to EUR rate from a remote source and
// caches it for a fixed TTL. On any failure it returns the configured
// fallback constant without caching it, so the next call retries the fetch.
//
// Concurrent callers that miss the cache may each issue a fetch. The last
// writer wins on the cache timestamp; the redundant requests are an accepted
// inefficiency.
type ExchangeRateService struct {
	cache    RateCacheStore
	client   *http.Client
	url      string
	ttl      time.Duration
	fallback float64
	logger   *slog.Logger
}

func NewExchangeRateService(cache RateCacheStore, url string, ttl, timeout time.Duration, fallback float64, logger *slog.Logger) *ExchangeRateService {
	return &ExchangeRateService{
		cache:    cache,
		client:   &http.Client{Timeout: timeout},
		url:      url,
		ttl:      ttl,
		fallback: fallback,
		logger:   logger,
	}
}

// Rate never fails: a cached value, a freshly fetched value, or the fallback.
func (s *ExchangeRateService) Rate(ctx context.Context) float64 {
	if payload, ok, err := s.cache.Get(ctx, rateCacheKey); err == nil && ok {
		if rate, parseErr := strconv.ParseFloat(string(payload), 64); parseErr == nil {
			observability.RecordRateLookup(ctx, "cache")
			return rate
		}
	} else if err != nil {
		s.logger.WarnContext(ctx, "rate cache read failed", "error", err)
	}

	rate, err := s.fetch(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "exchange rate fetch failed, using fallback", "error", err, "fallback", s.fallback)
		observability.RecordRateLookup(ctx, "fallback")
		return s.fallback
	}

	if err := s.cache.Set(ctx, rateCacheKey, []byte(strconv.FormatFloat(rate, 'f', -1, 64)), s.ttl); err != nil {
		s.logger.WarnContext(ctx, "rate cache write failed", "error", err)
	}
	observability.RecordRateLookup(ctx, "remote")
	return rate
}

func (s *ExchangeRateService) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}
	rate, ok := body.Rates["EUR"]
	if !ok {
		return 0, fmt.Errorf("rate response missing EUR field")
	}
	return rate, nil
}
