// Package enrichment resolves customer addresses to coordinates in small
// paced batches. The worker owns no schedule of its own; a cron tick or the
// run endpoint calls RunOnce, and the stored run state decides whether a
// batch actually executes.
package enrichment

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/time/rate"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/geocode"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// batchSize keeps each tick short so stop requests take effect quickly.
	batchSize = 10
	// geocodeInterval paces provider calls just above one per second.
	geocodeInterval = 1100 * time.Millisecond
	// minAddressFields is the least address completeness worth geocoding.
	minAddressFields = 2
)

// Directory is the slice of the customer repository the worker consumes.
type Directory interface {
	MissingGeocode(ctx context.Context, limit int) ([]models.Customer, error)
	UpdateGeocode(ctx context.Context, externalID int64, geo models.GeoFields) error
}

// RunState is the stored control row for the worker.
type RunState interface {
	Get(ctx context.Context) (*models.EnrichmentRun, error)
	Start(ctx context.Context) (*models.EnrichmentRun, error)
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Disable(ctx context.Context) error
	RecordResult(ctx context.Context, validated, errored int) error
}

// BatchResult summarizes one worker tick.
type BatchResult struct {
	Skipped   bool `json:"skipped"`   // run disabled or never started
	Completed bool `json:"completed"` // backlog exhausted, run disabled
	Processed int  `json:"processed"`
	Validated int  `json:"validated"`
	Errors    int  `json:"errors"`
}

// Worker drives enrichment batches.
type Worker struct {
	directory Directory
	runs      RunState
	geocoder  geocode.Geocoder
	emitter   *events.Emitter
	limiter   *rate.Limiter
	logger    ectologger.Logger
	now       func() time.Time
}

// NewWorker creates an enrichment worker.
func NewWorker(directory Directory, runs RunState, geocoder geocode.Geocoder, emitter *events.Emitter, logger ectologger.Logger) *Worker {
	return &Worker{
		directory: directory,
		runs:      runs,
		geocoder:  geocoder,
		emitter:   emitter,
		limiter:   rate.NewLimiter(rate.Every(geocodeInterval), 1),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start enables the run.
func (w *Worker) Start(ctx context.Context) (*models.EnrichmentRun, error) {
	return w.runs.Start(ctx)
}

// Stop disables the run, keeping counters.
func (w *Worker) Stop(ctx context.Context) error {
	return w.runs.Stop(ctx)
}

// Reset disables the run and zeroes counters.
func (w *Worker) Reset(ctx context.Context) error {
	return w.runs.Reset(ctx)
}

// Status returns the stored run state, nil when never started.
func (w *Worker) Status(ctx context.Context) (*models.EnrichmentRun, error) {
	return w.runs.Get(ctx)
}

// RunOnce executes at most one batch. The run must be started; a disabled or
// missing run is a silent no-op so schedulers can tick unconditionally.
func (w *Worker) RunOnce(ctx context.Context) (*BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Worker.RunOnce")
	defer span.End()

	log := w.logger.WithContext(ctx).WithFields(map[string]any{"method": "RunOnce"})

	run, err := w.runs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if run == nil || !run.IsEnabled {
		return &BatchResult{Skipped: true}, nil
	}

	customers, err := w.directory.MissingGeocode(ctx, batchSize)
	if err != nil {
		return nil, err
	}

	if len(customers) == 0 {
		if err := w.runs.Disable(ctx); err != nil {
			return nil, err
		}
		log.Info("Enrichment backlog exhausted, run disabled")
		return &BatchResult{Completed: true}, nil
	}

	start := w.now()
	result := &BatchResult{}

	for _, c := range customers {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		w.processRecord(ctx, c, result)
	}

	metrics.EnrichmentBatchDuration.Observe(w.now().Sub(start).Seconds())

	if err := w.runs.RecordResult(ctx, result.Validated, result.Errors); err != nil {
		return result, err
	}

	log.WithFields(map[string]any{
		"processed": result.Processed,
		"validated": result.Validated,
		"errors":    result.Errors,
	}).Info("Enrichment batch finished")

	return result, nil
}

// processRecord enriches one customer. Every outcome, including a geocoder
// failure, stamps enriched_at so the backlog always drains. Each processed
// record lands in exactly one counter: validated when coordinates were
// resolved, errors otherwise, so processed == validated + errors holds
// across runs.
func (w *Worker) processRecord(ctx context.Context, c models.Customer, result *BatchResult) {
	log := w.logger.WithContext(ctx).WithFields(map[string]any{"external_id": c.ExternalID})

	query, fields := buildQuery(c)
	now := w.now()

	if fields < minAddressFields {
		score := QualityScore(c, nil)
		if err := w.directory.UpdateGeocode(ctx, c.ExternalID, models.GeoFields{
			AddressQuality: &score,
			EnrichedAt:     &now,
		}); err != nil {
			result.Errors++
			metrics.RecordEnrichment("error")
			return
		}
		result.Processed++
		result.Errors++
		metrics.RecordEnrichment("insufficient_address")
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		result.Errors++
		return
	}

	hit, lookupErr := w.geocoder.Geocode(ctx, query)
	if lookupErr != nil {
		// Not fatal: persist a zero-confidence null result so the record
		// leaves the backlog, and count the failure.
		log.WithError(lookupErr).Warn("Geocode lookup failed")
		metrics.RecordGeocode("error")
		score := QualityScore(c, nil)
		if err := w.directory.UpdateGeocode(ctx, c.ExternalID, models.GeoFields{
			AddressQuality: &score,
			EnrichedAt:     &now,
		}); err != nil {
			result.Errors++
			metrics.RecordEnrichment("error")
			return
		}
		result.Processed++
		result.Errors++
		metrics.RecordEnrichment("error")
		return
	}

	geo := models.GeoFields{EnrichedAt: &now}
	if hit != nil {
		label := geocode.ConfidenceLabel(hit.Importance)
		geo.Latitude = &hit.Latitude
		geo.Longitude = &hit.Longitude
		geo.GeoConfidence = &hit.Importance
		if label != "" {
			geo.GeoLabel = &label
		}
		metrics.RecordGeocode("resolved")
	} else {
		metrics.RecordGeocode("no_match")
	}

	score := QualityScore(c, hit)
	geo.AddressQuality = &score

	if err := w.directory.UpdateGeocode(ctx, c.ExternalID, geo); err != nil {
		result.Errors++
		metrics.RecordEnrichment("error")
		return
	}

	result.Processed++
	if hit != nil {
		result.Validated++
		metrics.RecordEnrichment("validated")
		c.ApplyGeo(geo)
		w.emitter.EmitCustomerEnriched(ctx, c)
	} else {
		result.Errors++
		metrics.RecordEnrichment("no_match")
	}
}

// buildQuery assembles the free-text geocode query and counts the address
// fields that contribute to it.
func buildQuery(c models.Customer) (string, int) {
	var parts []string
	for _, f := range []*string{c.Address, c.City, c.Region, c.PostalCode, c.Country} {
		if f == nil {
			continue
		}
		v := strings.TrimSpace(*f)
		if v == "" {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, ", "), len(parts)
}
