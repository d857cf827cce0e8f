// Package customer persists the resolved customer directory.
package customer

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository handles customer persistence and lookups
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new customer repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var upsertCols = []string{
	"external_id", "name", "email", "email_valid", "phone", "phone_digits",
	"address", "city", "region", "postal_code", "country", "country_norm",
	"total_spent", "order_count", "first_order_at", "last_order_at", "days_since_order",
	"value_tier", "recency_tier", "is_business", "is_international", "is_repeat", "is_lapsed_high_value",
	"latitude", "longitude", "geo_confidence", "geo_label", "address_quality", "enriched_at",
	"source", "updated_at",
}

// UpsertBatch writes one batch of customers, keyed on external_id. Callers
// must have merged stored enrichment into the rows first; the update
// overwrites every column.
func (r *Repository) UpsertBatch(ctx context.Context, customers []models.Customer) error {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.UpsertBatch")
	defer span.End()

	if len(customers) == 0 {
		return nil
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method": "UpsertBatch",
		"count":  len(customers),
	})

	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("customers")
	sb.Cols(upsertCols...)

	for _, c := range customers {
		sb.Values(
			c.ExternalID, c.Name, c.Email, c.EmailValid, c.Phone, c.PhoneDigits,
			c.Address, c.City, c.Region, c.PostalCode, c.Country, c.CountryNorm,
			c.TotalSpent, c.OrderCount, c.FirstOrderAt, c.LastOrderAt, c.DaysSinceOrder,
			c.ValueTier, c.RecencyTier, c.IsBusiness, c.IsInternational, c.IsRepeat, c.IsLapsedHighValue,
			c.Latitude, c.Longitude, c.GeoConfidence, c.GeoLabel, c.AddressQuality, c.EnrichedAt,
			c.Source, now,
		)
	}

	query, args := sb.Build()
	query += ` ON CONFLICT (external_id) DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		email_valid = EXCLUDED.email_valid,
		phone = EXCLUDED.phone,
		phone_digits = EXCLUDED.phone_digits,
		address = EXCLUDED.address,
		city = EXCLUDED.city,
		region = EXCLUDED.region,
		postal_code = EXCLUDED.postal_code,
		country = EXCLUDED.country,
		country_norm = EXCLUDED.country_norm,
		total_spent = EXCLUDED.total_spent,
		order_count = EXCLUDED.order_count,
		first_order_at = EXCLUDED.first_order_at,
		last_order_at = EXCLUDED.last_order_at,
		days_since_order = EXCLUDED.days_since_order,
		value_tier = EXCLUDED.value_tier,
		recency_tier = EXCLUDED.recency_tier,
		is_business = EXCLUDED.is_business,
		is_international = EXCLUDED.is_international,
		is_repeat = EXCLUDED.is_repeat,
		is_lapsed_high_value = EXCLUDED.is_lapsed_high_value,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		geo_confidence = EXCLUDED.geo_confidence,
		geo_label = EXCLUDED.geo_label,
		address_quality = EXCLUDED.address_quality,
		enriched_at = EXCLUDED.enriched_at,
		source = EXCLUDED.source,
		updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to upsert customer batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert customer batch")
	}

	log.Debug("Upserted customer batch")
	return nil
}

type geoRow struct {
	ExternalID int64 `db:"external_id"`
	models.GeoFields
}

// GeoByExternalIDs returns the stored enrichment columns for the given keys.
// Only rows with a resolved geocode are returned; a fresh or never-enriched
// record is simply absent from the map.
func (r *Repository) GeoByExternalIDs(ctx context.Context, externalIDs []int64) (map[int64]models.GeoFields, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.GeoByExternalIDs")
	defer span.End()

	if len(externalIDs) == 0 {
		return map[int64]models.GeoFields{}, nil
	}

	ids := make([]any, len(externalIDs))
	for i, id := range externalIDs {
		ids[i] = id
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("external_id", "latitude", "longitude", "geo_confidence", "geo_label", "address_quality", "enriched_at")
	sb.From("customers")
	sb.Where(
		sb.In("external_id", ids...),
		sb.IsNotNull("latitude"),
		sb.IsNotNull("longitude"),
	)

	query, args := sb.Build()
	var rows []geoRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load stored enrichment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load stored enrichment")
	}

	geo := make(map[int64]models.GeoFields, len(rows))
	for _, row := range rows {
		geo[row.ExternalID] = row.GeoFields
	}
	return geo, nil
}

var customerCols = []string{
	"id", "external_id", "name", "email", "email_valid", "phone", "phone_digits",
	"address", "city", "region", "postal_code", "country", "country_norm",
	"total_spent", "order_count", "first_order_at", "last_order_at", "days_since_order",
	"value_tier", "recency_tier", "is_business", "is_international", "is_repeat", "is_lapsed_high_value",
	"latitude", "longitude", "geo_confidence", "geo_label", "address_quality", "enriched_at",
	"source", "updated_at",
}

// MissingGeocode returns the next enrichment batch: records never processed
// by a run, oldest first. Selecting on enriched_at rather than coordinates
// keeps no-match records out of the backlog once a run has tried them.
func (r *Repository) MissingGeocode(ctx context.Context, limit int) ([]models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.MissingGeocode")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(customerCols...)
	sb.From("customers")
	sb.Where(sb.IsNull("enriched_at"))
	sb.OrderBy("external_id").Asc()
	sb.Limit(limit)

	query, args := sb.Build()
	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load enrichment backlog")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load enrichment backlog")
	}

	return customers, nil
}

// UpdateGeocode persists one enrichment outcome. A no-match outcome still
// sets enriched_at so the record leaves the backlog.
func (r *Repository) UpdateGeocode(ctx context.Context, externalID int64, geo models.GeoFields) error {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.UpdateGeocode")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("customers")
	ub.Set(
		ub.Assign("latitude", geo.Latitude),
		ub.Assign("longitude", geo.Longitude),
		ub.Assign("geo_confidence", geo.GeoConfidence),
		ub.Assign("geo_label", geo.GeoLabel),
		ub.Assign("address_quality", geo.AddressQuality),
		ub.Assign("enriched_at", geo.EnrichedAt),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("external_id", externalID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"external_id": externalID}).Error("Failed to update geocode")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update geocode")
	}

	return nil
}

// Count returns the number of customer records in the directory.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM customers"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count customers")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count customers")
	}
	return count, nil
}

// ListAll returns the full directory ordered by external id. Used by the
// match surface to build the in-memory identity index and by the exporter.
func (r *Repository) ListAll(ctx context.Context) ([]models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(customerCols...)
	sb.From("customers")
	sb.OrderBy("external_id").Asc()

	query, args := sb.Build()
	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customers")
	}

	return customers, nil
}
