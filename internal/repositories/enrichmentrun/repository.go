// Package enrichmentrun persists the enrichment worker's control row: a
// single record carrying the enabled flag and lifetime counters.
package enrichmentrun

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// runID is the fixed key of the singleton control row.
const runID = 1

// Repository handles enrichment run state persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new enrichment run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get returns the control row, or nil when no run has ever been started.
func (r *Repository) Get(ctx context.Context) (*models.EnrichmentRun, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichmentrun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "is_enabled", "total_validated", "errors_count", "started_at", "last_run_at")
	sb.From("enrichment_runs")
	sb.Where(sb.Equal("id", runID))

	query, args := sb.Build()
	var run models.EnrichmentRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load enrichment run state")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load enrichment run state")
	}

	return &run, nil
}

// Start enables the run, creating the control row on first use. Counters are
// preserved when the row already exists; starting twice is a no-op.
func (r *Repository) Start(ctx context.Context) (*models.EnrichmentRun, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichmentrun.Repository.Start")
	defer span.End()

	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("enrichment_runs")
	sb.Cols("id", "is_enabled", "total_validated", "errors_count", "started_at")
	sb.Values(runID, true, 0, 0, now)

	query, args := sb.Build()
	query += ` ON CONFLICT (id) DO UPDATE SET is_enabled = TRUE`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to start enrichment run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start enrichment run")
	}

	return r.Get(ctx)
}

// Stop disables the run without touching counters. Stopping a missing or
// already-stopped run is a no-op.
func (r *Repository) Stop(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "enrichmentrun.Repository.Stop")
	defer span.End()

	return r.setEnabled(ctx, false)
}

// Disable turns the run off from inside the worker when the backlog is
// exhausted. Identical to Stop; named for the caller's intent.
func (r *Repository) Disable(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "enrichmentrun.Repository.Disable")
	defer span.End()

	return r.setEnabled(ctx, false)
}

func (r *Repository) setEnabled(ctx context.Context, enabled bool) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("enrichment_runs")
	ub.Set(ub.Assign("is_enabled", enabled))
	ub.Where(ub.Equal("id", runID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update enrichment run state")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update enrichment run state")
	}
	return nil
}

// Reset disables the run and zeroes its counters. Resetting a missing row is
// a no-op.
func (r *Repository) Reset(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "enrichmentrun.Repository.Reset")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("enrichment_runs")
	ub.Set(
		ub.Assign("is_enabled", false),
		ub.Assign("total_validated", 0),
		ub.Assign("errors_count", 0),
		ub.Assign("started_at", nil),
		ub.Assign("last_run_at", nil),
	)
	ub.Where(ub.Equal("id", runID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reset enrichment run state")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reset enrichment run state")
	}
	return nil
}

// RecordResult adds one batch outcome to the lifetime counters and stamps
// the run time.
func (r *Repository) RecordResult(ctx context.Context, validated, errored int) error {
	ctx, span := tracing.StartSpan(ctx, "enrichmentrun.Repository.RecordResult")
	defer span.End()

	query := `UPDATE enrichment_runs
		SET total_validated = total_validated + $1,
		    errors_count = errors_count + $2,
		    last_run_at = $3
		WHERE id = $4`

	if _, err := r.db.ExecContext(ctx, query, validated, errored, time.Now().UTC(), runID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to record enrichment batch result")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record enrichment batch result")
	}
	return nil
}
