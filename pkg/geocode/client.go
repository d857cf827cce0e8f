// Package geocode is the client for the external geocoding collaborator.
// The service answers a free-text query with at most one best match; callers
// are responsible for pacing requests to the provider's rate limit.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Result is the best match for a query. Importance is the provider's
// confidence score in [0, 1].
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocoder resolves a free-text query to zero or one result. A nil result
// with a nil error means the provider had no match — a data-quality outcome,
// not a failure.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Confidence label thresholds. Empirically chosen cutoffs carried over from
// the original pipeline; do not re-derive.
const (
	HighConfidence   = 0.7
	MediumConfidence = 0.4
)

// ConfidenceLabel maps an importance score to the stored label.
func ConfidenceLabel(importance float64) string {
	switch {
	case importance >= HighConfidence:
		return "high"
	case importance >= MediumConfidence:
		return "medium"
	case importance > 0:
		return "low"
	default:
		return ""
	}
}

// Client calls a Nominatim-style search endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	logger  ectologger.Logger
}

// NewClient creates a geocoding client.
func NewClient(baseURL string, logger ectologger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		logger:  logger,
	}
}

type searchHit struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocode resolves a query to its best match.
func (c *Client) Geocode(ctx context.Context, query string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "geocode.Client.Geocode")
	defer span.End()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "clover-enrichment")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Geocode request failed")
		return nil, fmt.Errorf("geocoder unavailable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var hits []searchHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(hits) == 0 {
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(hits[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(hits[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, fmt.Errorf("geocoder returned unparseable coordinates %q/%q", hits[0].Lat, hits[0].Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: hits[0].DisplayName,
		Importance:  hits[0].Importance,
	}, nil
}
