package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/legacy"
	"github.com/Ramsey-B/clover/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeSource struct {
	rows     []legacy.RawCustomer
	stats    legacy.Stats
	fetchErr error
	calls    int
}

func (s *fakeSource) FetchCustomers(_ context.Context, limit, offset int) ([]legacy.RawCustomer, error) {
	s.calls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *fakeSource) Stats(_ context.Context) (*legacy.Stats, error) {
	return &s.stats, nil
}

type fakeStore struct {
	upserted  []models.Customer
	geo       map[int64]models.GeoFields
	count     int
	upsertErr error // fails the first upsert once
	failed    bool
}

func (s *fakeStore) UpsertBatch(_ context.Context, customers []models.Customer) error {
	if s.upsertErr != nil && !s.failed {
		s.failed = true
		return s.upsertErr
	}
	s.upserted = append(s.upserted, customers...)
	return nil
}

func (s *fakeStore) GeoByExternalIDs(_ context.Context, _ []int64) (map[int64]models.GeoFields, error) {
	if s.geo == nil {
		return map[int64]models.GeoFields{}, nil
	}
	return s.geo, nil
}

func (s *fakeStore) Count(_ context.Context) (int, error) {
	return s.count, nil
}

func rawCustomer(id int, name string, spent string, orders int, lastOrder string) legacy.RawCustomer {
	n := name
	lo := lastOrder
	raw := legacy.RawCustomer{Name: &n}
	raw.ID = json.Number(fmt.Sprintf("%d", id))
	raw.TotalSpent = json.Number(spent)
	raw.OrderCount = json.Number(fmt.Sprintf("%d", orders))
	if lastOrder != "" {
		raw.LastOrder = &lo
	}
	return raw
}

func newTestOrchestrator(source Source, store Store, cfg Config) *Orchestrator {
	return NewOrchestrator(source, store, events.NewEmitter(nil, noopLogger()), cfg, noopLogger())
}

func TestRunSyncsAllPages(t *testing.T) {
	var rows []legacy.RawCustomer
	for i := 1; i <= 5; i++ {
		rows = append(rows, rawCustomer(i, fmt.Sprintf("Customer %d", i), "200", 1, "2026-08-01"))
	}
	source := &fakeSource{rows: rows}
	store := &fakeStore{}

	o := newTestOrchestrator(source, store, Config{BatchSize: 2, MaxBatches: 10, HomeCountry: "RO"})

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Synced)
	assert.Equal(t, 3, result.Batches)
	assert.Empty(t, result.BatchErrors)
	assert.Len(t, store.upserted, 5)

	// Classification is applied before the upsert.
	assert.Equal(t, models.ValueTierMedium, store.upserted[0].ValueTier)
	assert.NotEmpty(t, store.upserted[0].RecencyTier)
}

func TestRunStopsOnShortPage(t *testing.T) {
	source := &fakeSource{rows: []legacy.RawCustomer{
		rawCustomer(1, "Ana Pop", "50", 1, ""),
	}}
	store := &fakeStore{}

	o := newTestOrchestrator(source, store, Config{BatchSize: 10, MaxBatches: 100, HomeCountry: "RO"})

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestRunRespectsBatchCap(t *testing.T) {
	var rows []legacy.RawCustomer
	for i := 1; i <= 10; i++ {
		rows = append(rows, rawCustomer(i, "X", "10", 1, ""))
	}
	source := &fakeSource{rows: rows}
	store := &fakeStore{}

	o := newTestOrchestrator(source, store, Config{BatchSize: 2, MaxBatches: 3, HomeCountry: "RO"})

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, 6, result.Synced)
}

func TestRunAbortsOnSourceFailure(t *testing.T) {
	source := &fakeSource{fetchErr: errors.New("database locked")}
	store := &fakeStore{}

	o := newTestOrchestrator(source, store, Config{BatchSize: 10, MaxBatches: 10, HomeCountry: "RO"})

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.upserted)
}

func TestRunContinuesAfterBatchFailure(t *testing.T) {
	var rows []legacy.RawCustomer
	for i := 1; i <= 4; i++ {
		rows = append(rows, rawCustomer(i, "X", "10", 1, ""))
	}
	source := &fakeSource{rows: rows}
	store := &fakeStore{upsertErr: errors.New("connection reset")}

	o := newTestOrchestrator(source, store, Config{BatchSize: 2, MaxBatches: 10, HomeCountry: "RO"})

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.BatchErrors, 1)
	assert.Equal(t, 0, result.BatchErrors[0].Offset)
	assert.Equal(t, 2, result.Synced)
	assert.Len(t, store.upserted, 2)
}

func TestRunSkipsUnusableRows(t *testing.T) {
	good := rawCustomer(7, "Ana Pop", "10", 1, "")
	bad := legacy.RawCustomer{} // no id
	source := &fakeSource{rows: []legacy.RawCustomer{good, bad}}
	store := &fakeStore{}

	o := newTestOrchestrator(source, store, Config{BatchSize: 10, MaxBatches: 10, HomeCountry: "RO"})

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunPreservesStoredEnrichment(t *testing.T) {
	lat, lon := 46.77, 23.62
	conf := 0.82
	label := "high"
	enrichedAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	source := &fakeSource{rows: []legacy.RawCustomer{
		rawCustomer(42, "Barbu Carmen", "350", 2, "2026-07-15"),
	}}
	store := &fakeStore{geo: map[int64]models.GeoFields{
		42: {Latitude: &lat, Longitude: &lon, GeoConfidence: &conf, GeoLabel: &label, EnrichedAt: &enrichedAt},
	}}

	o := newTestOrchestrator(source, store, Config{BatchSize: 10, MaxBatches: 10, HomeCountry: "RO"})

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, store.upserted, 1)

	c := store.upserted[0]
	require.NotNil(t, c.Latitude)
	assert.Equal(t, lat, *c.Latitude)
	require.NotNil(t, c.GeoLabel)
	assert.Equal(t, "high", *c.GeoLabel)
	require.NotNil(t, c.EnrichedAt)
}

func TestDrift(t *testing.T) {
	source := &fakeSource{stats: legacy.Stats{Customers: 1500, Orders: 4000}}
	store := &fakeStore{count: 1480}

	o := newTestOrchestrator(source, store, Config{})

	report, err := o.Drift(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500, report.SourceCustomers)
	assert.Equal(t, 1480, report.StoreCustomers)
	assert.Equal(t, 20, report.Delta)
}
