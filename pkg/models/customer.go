package models

import "time"

// ValueTier is the spend/order-count segment of a customer.
type ValueTier string

const (
	ValueTierVIPPlatinum ValueTier = "VIP_PLATINUM"
	ValueTierVIPGold     ValueTier = "VIP_GOLD"
	ValueTierHighValue   ValueTier = "HIGH_VALUE"
	ValueTierMedium      ValueTier = "MEDIUM"
	ValueTierLow         ValueTier = "LOW"
)

// RecencyTier is the days-since-last-order segment of a customer.
type RecencyTier string

const (
	RecencyTierActive  RecencyTier = "ACTIVE"
	RecencyTierWarm    RecencyTier = "WARM"
	RecencyTierCooling RecencyTier = "COOLING"
	RecencyTierDormant RecencyTier = "DORMANT"
	RecencyTierLost    RecencyTier = "LOST"
)

// Customer source of record.
const (
	SourceSync   = "sync"
	SourceManual = "manual"
	SourceImport = "import"
)

// Customer is the directory record in the target store. external_id is the
// stable key from the legacy source and the sole upsert conflict key.
type Customer struct {
	ID         *string `json:"id,omitempty" db:"id"`
	ExternalID int64   `json:"external_id" db:"external_id"`

	Name        string  `json:"name" db:"name"`
	Email       *string `json:"email,omitempty" db:"email"`
	EmailValid  bool    `json:"email_valid" db:"email_valid"`
	Phone       *string `json:"phone,omitempty" db:"phone"`
	PhoneDigits *string `json:"phone_digits,omitempty" db:"phone_digits"`

	Address     *string `json:"address,omitempty" db:"address"`
	City        *string `json:"city,omitempty" db:"city"`
	Region      *string `json:"region,omitempty" db:"region"`
	PostalCode  *string `json:"postal_code,omitempty" db:"postal_code"`
	Country     *string `json:"country,omitempty" db:"country"`
	CountryNorm *string `json:"country_norm,omitempty" db:"country_norm"`

	TotalSpent     float64    `json:"total_spent" db:"total_spent"`
	OrderCount     int        `json:"order_count" db:"order_count"`
	FirstOrderAt   *time.Time `json:"first_order_at,omitempty" db:"first_order_at"`
	LastOrderAt    *time.Time `json:"last_order_at,omitempty" db:"last_order_at"`
	DaysSinceOrder *int       `json:"days_since_order,omitempty" db:"days_since_order"`

	// Derived classification. Recomputed on every sync, never hand-set.
	ValueTier         ValueTier   `json:"value_tier" db:"value_tier"`
	RecencyTier       RecencyTier `json:"recency_tier" db:"recency_tier"`
	IsBusiness        bool        `json:"is_business" db:"is_business"`
	IsInternational   bool        `json:"is_international" db:"is_international"`
	IsRepeat          bool        `json:"is_repeat" db:"is_repeat"`
	IsLapsedHighValue bool        `json:"is_lapsed_high_value" db:"is_lapsed_high_value"`

	// Enrichment. Computed asynchronously and preserved across re-syncs.
	Latitude       *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude      *float64   `json:"longitude,omitempty" db:"longitude"`
	GeoConfidence  *float64   `json:"geo_confidence,omitempty" db:"geo_confidence"`
	GeoLabel       *string    `json:"geo_label,omitempty" db:"geo_label"`
	AddressQuality *int       `json:"address_quality,omitempty" db:"address_quality"`
	EnrichedAt     *time.Time `json:"enriched_at,omitempty" db:"enriched_at"`

	Source    string    `json:"source" db:"source"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GeoFields groups the enrichment columns that must survive a re-sync.
type GeoFields struct {
	Latitude       *float64   `db:"latitude"`
	Longitude      *float64   `db:"longitude"`
	GeoConfidence  *float64   `db:"geo_confidence"`
	GeoLabel       *string    `db:"geo_label"`
	AddressQuality *int       `db:"address_quality"`
	EnrichedAt     *time.Time `db:"enriched_at"`
}

// HasGeocode reports whether a geocode was ever resolved for the record.
func (g GeoFields) HasGeocode() bool {
	return g.Latitude != nil && g.Longitude != nil
}

// ApplyGeo copies stored enrichment onto the customer. Classification fields
// are left alone; only non-null enrichment is carried forward.
func (c *Customer) ApplyGeo(g GeoFields) {
	if g.Latitude != nil {
		c.Latitude = g.Latitude
	}
	if g.Longitude != nil {
		c.Longitude = g.Longitude
	}
	if g.GeoConfidence != nil {
		c.GeoConfidence = g.GeoConfidence
	}
	if g.GeoLabel != nil {
		c.GeoLabel = g.GeoLabel
	}
	if g.AddressQuality != nil {
		c.AddressQuality = g.AddressQuality
	}
	if g.EnrichedAt != nil {
		c.EnrichedAt = g.EnrichedAt
	}
}
