package provider

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ RatesProvider = (*CachedProviderDecorator)(nil)

// CachedProviderDecorator wraps a RatesProvider with Redis caching of its
// supported-currency list. Rate fetches are never cached here since their
// results are persisted by the sync orchestrator anyway.
type CachedProviderDecorator struct {
	RatesProvider
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedProvider creates a new CachedProviderDecorator.
func NewCachedProvider(p RatesProvider, cache *redis.Client, ttl time.Duration) *CachedProviderDecorator {
	return &CachedProviderDecorator{
		RatesProvider: p,
		cache:         cache,
		ttl:           ttl,
	}
}

func (p *CachedProviderDecorator) cacheKey() string {
	return "provider_currencies:{" + p.Code() + "}"
}

// SupportedCurrencies serves the currency list from cache when present,
// falling back to the wrapped provider and repopulating on miss.
func (p *CachedProviderDecorator) SupportedCurrencies(ctx context.Context) ([]string, error) {
	if p.cache == nil {
		return p.RatesProvider.SupportedCurrencies(ctx)
	}

	key := p.cacheKey()
	if cached, err := p.cache.Get(ctx, key).Result(); err == nil && cached != "" {
		return strings.Split(cached, ","), nil
	}

	currencies, err := p.RatesProvider.SupportedCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	_ = p.cache.Set(ctx, key, strings.Join(currencies, ","), p.ttl).Err()
	return currencies, nil
}
