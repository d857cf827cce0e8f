// Package sync pulls the legacy customer base into the directory: fetch in
// pages, normalize, classify, preserve stored enrichment, upsert.
package sync

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/legacy"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/segment"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Source is the slice of the legacy client the orchestrator consumes.
type Source interface {
	FetchCustomers(ctx context.Context, limit, offset int) ([]legacy.RawCustomer, error)
	Stats(ctx context.Context) (*legacy.Stats, error)
}

// Store is the slice of the customer repository the orchestrator consumes.
type Store interface {
	UpsertBatch(ctx context.Context, customers []models.Customer) error
	GeoByExternalIDs(ctx context.Context, externalIDs []int64) (map[int64]models.GeoFields, error)
	Count(ctx context.Context) (int, error)
}

// Config holds sync orchestrator settings.
type Config struct {
	BatchSize   int
	MaxBatches  int
	HomeCountry string
}

// BatchError records a batch that failed mid-run. The run keeps going; the
// offset tells operators where to re-sync from.
type BatchError struct {
	Offset int    `json:"offset"`
	Error  string `json:"error"`
}

// Result summarizes one sync run.
type Result struct {
	Synced      int           `json:"synced"`
	Skipped     int           `json:"skipped"`
	Batches     int           `json:"batches"`
	BatchErrors []BatchError  `json:"batch_errors,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// DriftReport compares the legacy source count against the directory.
type DriftReport struct {
	SourceCustomers int `json:"source_customers"`
	StoreCustomers  int `json:"store_customers"`
	Delta           int `json:"delta"`
}

// Orchestrator runs full syncs from the legacy source into the store.
type Orchestrator struct {
	source  Source
	store   Store
	emitter *events.Emitter
	cfg     Config
	logger  ectologger.Logger
	now     func() time.Time
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(source Source, store Store, emitter *events.Emitter, cfg Config, logger ectologger.Logger) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = 200
	}
	return &Orchestrator{
		source:  source,
		store:   store,
		emitter: emitter,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run performs one full sync. A source failure aborts the run; a store
// failure skips the batch and continues.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "sync.Orchestrator.Run")
	defer span.End()

	start := o.now()
	log := o.logger.WithContext(ctx).WithFields(map[string]any{"method": "Run"})
	log.Info("Starting customer sync")

	result := &Result{}

	for batch := 0; batch < o.cfg.MaxBatches; batch++ {
		offset := batch * o.cfg.BatchSize

		rows, err := o.source.FetchCustomers(ctx, o.cfg.BatchSize, offset)
		if err != nil {
			log.WithError(err).Errorf("Sync aborted at offset %d", offset)
			metrics.RecordSyncRun("aborted", o.now().Sub(start).Seconds())
			return nil, err
		}

		if len(rows) > 0 {
			result.Batches++
			synced, skipped, batchErr := o.processBatch(ctx, rows)
			result.Synced += synced
			result.Skipped += skipped
			if batchErr != nil {
				result.BatchErrors = append(result.BatchErrors, BatchError{Offset: offset, Error: batchErr.Error()})
				metrics.SyncBatchErrors.Inc()
				log.WithError(batchErr).Warnf("Batch at offset %d failed, continuing", offset)
			}
		}

		// A short page means the source is exhausted.
		if len(rows) < o.cfg.BatchSize {
			break
		}
	}

	result.Duration = o.now().Sub(start)

	status := "ok"
	if len(result.BatchErrors) > 0 {
		status = "partial"
	}
	metrics.RecordSyncRun(status, result.Duration.Seconds())

	log.WithFields(map[string]any{
		"synced":       result.Synced,
		"skipped":      result.Skipped,
		"batches":      result.Batches,
		"batch_errors": len(result.BatchErrors),
	}).Info("Customer sync finished")

	return result, nil
}

// processBatch normalizes, classifies and upserts one page of rows. The
// returned error covers the whole batch (geo lookup or upsert failure);
// individual unusable rows are only counted as skipped.
func (o *Orchestrator) processBatch(ctx context.Context, rows []legacy.RawCustomer) (synced, skipped int, err error) {
	now := o.now()

	customers := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		c, normErr := row.Normalize(o.cfg.HomeCountry)
		if normErr != nil {
			o.logger.WithContext(ctx).WithError(normErr).Warn("Skipping unusable legacy row")
			skipped++
			continue
		}
		segment.Apply(&c, segment.Classify(c.TotalSpent, c.OrderCount, c.LastOrderAt, now))
		customers = append(customers, c)
	}

	if len(customers) == 0 {
		return 0, skipped, nil
	}

	ids := make([]int64, len(customers))
	for i, c := range customers {
		ids[i] = c.ExternalID
	}

	// Carry stored enrichment forward so a re-sync never wipes geocodes.
	geo, geoErr := o.store.GeoByExternalIDs(ctx, ids)
	if geoErr != nil {
		return 0, skipped, geoErr
	}
	for i := range customers {
		if g, ok := geo[customers[i].ExternalID]; ok {
			customers[i].ApplyGeo(g)
		}
	}

	if upsertErr := o.store.UpsertBatch(ctx, customers); upsertErr != nil {
		return 0, skipped, upsertErr
	}

	metrics.SyncCustomersUpserted.Add(float64(len(customers)))
	o.emitter.EmitCustomerSynced(ctx, customers)

	return len(customers), skipped, nil
}

// Drift compares the legacy source counts against the directory count.
func (o *Orchestrator) Drift(ctx context.Context) (*DriftReport, error) {
	ctx, span := tracing.StartSpan(ctx, "sync.Orchestrator.Drift")
	defer span.End()

	stats, err := o.source.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := o.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &DriftReport{
		SourceCustomers: stats.Customers,
		StoreCustomers:  stored,
		Delta:           stats.Customers - stored,
	}, nil
}
