package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/geocode"
	"github.com/Ramsey-B/clover/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strptr(s string) *string { return &s }

type fakeDirectory struct {
	backlog []models.Customer
	updates map[int64]models.GeoFields
}

func (d *fakeDirectory) MissingGeocode(_ context.Context, limit int) ([]models.Customer, error) {
	if limit > len(d.backlog) {
		limit = len(d.backlog)
	}
	return d.backlog[:limit], nil
}

func (d *fakeDirectory) UpdateGeocode(_ context.Context, externalID int64, geo models.GeoFields) error {
	if d.updates == nil {
		d.updates = map[int64]models.GeoFields{}
	}
	d.updates[externalID] = geo
	// drop from backlog like the real selection would
	kept := make([]models.Customer, 0, len(d.backlog))
	for _, c := range d.backlog {
		if c.ExternalID != externalID {
			kept = append(kept, c)
		}
	}
	d.backlog = kept
	return nil
}

type fakeRunState struct {
	run              *models.EnrichmentRun
	recordedValid    int
	recordedErrors   int
	recordCalls      int
	disabledByWorker bool
}

func (s *fakeRunState) Get(_ context.Context) (*models.EnrichmentRun, error) {
	return s.run, nil
}

func (s *fakeRunState) Start(_ context.Context) (*models.EnrichmentRun, error) {
	if s.run == nil {
		s.run = &models.EnrichmentRun{ID: 1}
	}
	s.run.IsEnabled = true
	return s.run, nil
}

func (s *fakeRunState) Stop(_ context.Context) error {
	if s.run != nil {
		s.run.IsEnabled = false
	}
	return nil
}

func (s *fakeRunState) Reset(_ context.Context) error {
	s.run = nil
	return nil
}

func (s *fakeRunState) Disable(_ context.Context) error {
	s.disabledByWorker = true
	if s.run != nil {
		s.run.IsEnabled = false
	}
	return nil
}

func (s *fakeRunState) RecordResult(_ context.Context, validated, errored int) error {
	s.recordCalls++
	s.recordedValid += validated
	s.recordedErrors += errored
	return nil
}

type fakeGeocoder struct {
	results map[string]*geocode.Result
	err     error
	calls   int
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) (*geocode.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.results[query], nil
}

func enabledRun() *models.EnrichmentRun {
	return &models.EnrichmentRun{ID: 1, IsEnabled: true}
}

func fullAddressCustomer(id int64) models.Customer {
	return models.Customer{
		ExternalID: id,
		Address:    strptr("Strada Victoriei 12"),
		City:       strptr("Cluj-Napoca"),
		Region:     strptr("Cluj"),
		PostalCode: strptr("400001"),
		Country:    strptr("RO"),
	}
}

// fastWorker disables the courtesy pacing so tests run instantly.
func fastWorker(d Directory, r RunState, g geocode.Geocoder) *Worker {
	w := NewWorker(d, r, g, events.NewEmitter(nil, noopLogger()), noopLogger())
	w.limiter.SetLimit(1e9)
	return w
}

func TestRunOnceSkipsWhenNeverStarted(t *testing.T) {
	w := fastWorker(&fakeDirectory{}, &fakeRunState{}, &fakeGeocoder{})

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestRunOnceSkipsWhenStopped(t *testing.T) {
	runs := &fakeRunState{run: &models.EnrichmentRun{ID: 1, IsEnabled: false}}
	w := fastWorker(&fakeDirectory{}, runs, &fakeGeocoder{})

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestRunOnceDisablesOnEmptyBacklog(t *testing.T) {
	runs := &fakeRunState{run: enabledRun()}
	w := fastWorker(&fakeDirectory{}, runs, &fakeGeocoder{})

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.True(t, runs.disabledByWorker)
}

func TestRunOnceEnrichesBatch(t *testing.T) {
	c := fullAddressCustomer(42)
	query := "Strada Victoriei 12, Cluj-Napoca, Cluj, 400001, RO"

	directory := &fakeDirectory{backlog: []models.Customer{c}}
	runs := &fakeRunState{run: enabledRun()}
	geocoder := &fakeGeocoder{results: map[string]*geocode.Result{
		query: {Latitude: 46.77, Longitude: 23.62, Importance: 0.82},
	}}

	w := fastWorker(directory, runs, geocoder)

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Validated)
	assert.Equal(t, 0, result.Errors)

	geo := directory.updates[42]
	require.NotNil(t, geo.Latitude)
	assert.Equal(t, 46.77, *geo.Latitude)
	require.NotNil(t, geo.GeoLabel)
	assert.Equal(t, "high", *geo.GeoLabel)
	require.NotNil(t, geo.AddressQuality)
	assert.Equal(t, 100, *geo.AddressQuality)
	require.NotNil(t, geo.EnrichedAt)

	assert.Equal(t, 1, runs.recordCalls)
	assert.Equal(t, 1, runs.recordedValid)
}

func TestRunOnceNoMatchStillLeavesBacklog(t *testing.T) {
	directory := &fakeDirectory{backlog: []models.Customer{fullAddressCustomer(7)}}
	runs := &fakeRunState{run: enabledRun()}
	geocoder := &fakeGeocoder{} // every query resolves to no match

	w := fastWorker(directory, runs, geocoder)

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Validated)
	assert.Equal(t, 1, result.Errors)

	geo := directory.updates[7]
	assert.Nil(t, geo.Latitude)
	require.NotNil(t, geo.EnrichedAt, "no-match outcomes must leave the backlog")
	require.NotNil(t, geo.AddressQuality)
	assert.Equal(t, 60, *geo.AddressQuality)
}

func TestRunOnceSkipsGeocoderForSparseAddresses(t *testing.T) {
	sparse := models.Customer{ExternalID: 9, City: strptr("Cluj-Napoca")}
	directory := &fakeDirectory{backlog: []models.Customer{sparse}}
	runs := &fakeRunState{run: enabledRun()}
	geocoder := &fakeGeocoder{}

	w := fastWorker(directory, runs, geocoder)

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, geocoder.calls)

	geo := directory.updates[9]
	require.NotNil(t, geo.EnrichedAt)
	require.NotNil(t, geo.AddressQuality)
	assert.Equal(t, 15, *geo.AddressQuality)
}

func TestRunOnceRecordsNullResultOnLookupFailure(t *testing.T) {
	directory := &fakeDirectory{backlog: []models.Customer{fullAddressCustomer(11)}}
	runs := &fakeRunState{run: enabledRun()}
	geocoder := &fakeGeocoder{err: errors.New("provider down")}

	w := fastWorker(directory, runs, geocoder)

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.Validated)

	geo := directory.updates[11]
	assert.Nil(t, geo.Latitude)
	require.NotNil(t, geo.EnrichedAt, "failed lookups still leave the backlog")
	assert.Equal(t, 1, runs.recordedErrors)
}

func TestRunOncePartitionsCountersAcrossOutcomes(t *testing.T) {
	resolved := fullAddressCustomer(1)
	query := "Strada Victoriei 12, Cluj-Napoca, Cluj, 400001, RO"
	noMatch := models.Customer{
		ExternalID: 2,
		Address:    strptr("Nowhere 1"),
		City:       strptr("Atlantis"),
	}
	sparse := models.Customer{ExternalID: 3, City: strptr("Cluj-Napoca")}

	directory := &fakeDirectory{backlog: []models.Customer{resolved, noMatch, sparse}}
	runs := &fakeRunState{run: enabledRun()}
	geocoder := &fakeGeocoder{results: map[string]*geocode.Result{
		query: {Latitude: 46.77, Longitude: 23.62, Importance: 0.82},
	}}

	w := fastWorker(directory, runs, geocoder)

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Validated)
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, result.Processed, result.Validated+result.Errors)

	assert.Equal(t, 1, runs.recordedValid)
	assert.Equal(t, 2, runs.recordedErrors)
}

func TestStartStopResetDelegate(t *testing.T) {
	runs := &fakeRunState{}
	w := fastWorker(&fakeDirectory{}, runs, &fakeGeocoder{})

	run, err := w.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, run.IsEnabled)

	require.NoError(t, w.Stop(context.Background()))
	assert.False(t, runs.run.IsEnabled)

	require.NoError(t, w.Reset(context.Background()))
	status, err := w.Status(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestQualityScore(t *testing.T) {
	full := fullAddressCustomer(1)

	tests := []struct {
		name     string
		customer models.Customer
		result   *geocode.Result
		expected int
	}{
		{"empty address", models.Customer{}, nil, 0},
		{"city only", models.Customer{City: strptr("Cluj")}, nil, 15},
		{"short street scores nothing", models.Customer{Address: strptr("Str.")}, nil, 0},
		{"full address no geocode", full, nil, 60},
		{"full address low confidence", full, &geocode.Result{Importance: 0.2}, 80},
		{"full address medium confidence", full, &geocode.Result{Importance: 0.5}, 90},
		{"full address high confidence", full, &geocode.Result{Importance: 0.9}, 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, QualityScore(test.customer, test.result))
		})
	}
}

func TestRunOnceHonorsContextCancellation(t *testing.T) {
	directory := &fakeDirectory{backlog: []models.Customer{fullAddressCustomer(1), fullAddressCustomer(2)}}
	runs := &fakeRunState{run: enabledRun()}
	w := fastWorker(directory, runs, &fakeGeocoder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := w.RunOnce(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
