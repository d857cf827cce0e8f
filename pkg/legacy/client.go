// Package legacy is the client for the legacy storefront API, the
// authoritative source for customers and orders. Everything it returns is
// decoded into tagged raw types and normalized before leaving the package.
package legacy

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

// Source is the interface the orchestrator and export surface consume.
type Source interface {
	FetchCustomers(ctx context.Context, limit, offset int) ([]RawCustomer, error)
	FetchOrders(ctx context.Context, limit, offset int) ([]RawOrder, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Client talks to the legacy API over its (action, limit, offset) contract.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  ectologger.Logger
}

// Config holds legacy client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a legacy API client.
func NewClient(cfg Config, logger ectologger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// envelope is the legacy API response wrapper. A false success flag is a
// source failure and aborts the caller's run.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "legacy.Client."+action)
	defer span.End()

	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create legacy request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Errorf("Legacy request failed: %s", action)
		return nil, fmt.Errorf("legacy source unavailable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("legacy source returned status %d for action %s", resp.StatusCode, action)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode legacy response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("legacy source reported failure for action %s: %s", action, env.Error)
	}

	return env.Data, nil
}

func pageParams(limit, offset int) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	return params
}

// FetchCustomers returns one page of raw customer rows.
func (c *Client) FetchCustomers(ctx context.Context, limit, offset int) ([]RawCustomer, error) {
	data, err := c.call(ctx, "customers", pageParams(limit, offset))
	if err != nil {
		return nil, err
	}

	var rows []RawCustomer
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode legacy customer rows: %w", err)
	}
	c.logger.WithContext(ctx).WithFields(map[string]any{"count": len(rows), "offset": offset}).Debug("Fetched legacy customers")
	return rows, nil
}

// FetchOrders returns one page of raw order rows.
func (c *Client) FetchOrders(ctx context.Context, limit, offset int) ([]RawOrder, error) {
	data, err := c.call(ctx, "orders", pageParams(limit, offset))
	if err != nil {
		return nil, err
	}

	var rows []RawOrder
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode legacy order rows: %w", err)
	}
	return rows, nil
}

// Stats returns the legacy aggregate counts for drift comparison.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	data, err := c.call(ctx, "stats", nil)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode legacy stats: %w", err)
	}
	return &stats, nil
}
