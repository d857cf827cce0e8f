package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/metrics"
)

type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

type countingGeocoder struct {
	result *Result
	calls  int
}

func (g *countingGeocoder) Geocode(_ context.Context, _ string) (*Result, error) {
	g.calls++
	return g.result, nil
}

func TestCachedGeocoderServesRepeatsFromCache(t *testing.T) {
	inner := &countingGeocoder{result: &Result{Latitude: 46.77, Longitude: 23.62, Importance: 0.82}}
	cached := NewCachedGeocoder(inner, newFakeCache(), time.Hour, noopLogger())

	hitsBefore := testutil.ToFloat64(metrics.GeocodeCacheHits)

	first, err := cached.Geocode(context.Background(), "Strada Victoriei 12, Cluj-Napoca")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cached.Geocode(context.Background(), "Strada Victoriei 12, Cluj-Napoca")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)

	assert.Equal(t, 1, inner.calls, "repeat queries must not reach the provider")
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(metrics.GeocodeCacheHits))
}

func TestCachedGeocoderCachesNoMatchOutcomes(t *testing.T) {
	inner := &countingGeocoder{} // resolves to no match
	cached := NewCachedGeocoder(inner, newFakeCache(), time.Hour, noopLogger())

	hitsBefore := testutil.ToFloat64(metrics.GeocodeCacheHits)

	first, err := cached.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, first)

	second, err := cached.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(metrics.GeocodeCacheHits))
}
