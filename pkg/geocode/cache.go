package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
)

// noMatch is the cached sentinel for queries the provider had no result for.
// Caching misses matters as much as hits: the enrichment backlog retries the
// same bad addresses across runs.
const noMatch = "null"

// Cache is the key-value surface the cached geocoder needs; pkg/redis
// satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedGeocoder fronts a Geocoder with a cache keyed by the exact query
// string. Cache failures degrade to a live lookup.
type CachedGeocoder struct {
	inner  Geocoder
	cache  Cache
	ttl    time.Duration
	logger ectologger.Logger
}

// NewCachedGeocoder wraps a geocoder with a response cache.
func NewCachedGeocoder(inner Geocoder, cache Cache, ttl time.Duration, logger ectologger.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(query string) string {
	return "geocode:" + query
}

// Geocode returns the cached response when present, otherwise delegates and
// stores the outcome, including no-match outcomes.
func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	key := cacheKey(query)

	if cached, ok, err := g.cache.Get(ctx, key); err != nil {
		g.logger.WithContext(ctx).WithError(err).Warnf("Geocode cache read failed for %q", query)
	} else if ok {
		if cached == noMatch {
			metrics.GeocodeCacheHits.Inc()
			return nil, nil
		}
		var result Result
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			metrics.GeocodeCacheHits.Inc()
			return &result, nil
		}
		g.logger.WithContext(ctx).Warnf("Discarding corrupt geocode cache entry for %q", query)
	}

	result, err := g.inner.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	payload := noMatch
	if result != nil {
		if raw, err := json.Marshal(result); err == nil {
			payload = string(raw)
		}
	}
	if err := g.cache.Set(ctx, key, payload, g.ttl); err != nil {
		g.logger.WithContext(ctx).WithError(err).Warnf("Geocode cache write failed for %q", query)
	}

	return result, nil
}
