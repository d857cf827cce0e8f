package models

import "time"

// EnrichmentRun is the singleton run state for the background enrichment
// worker. It lives in the target store, never in process memory; every
// mutation is a read-modify-write against the stored row.
type EnrichmentRun struct {
	ID             int        `json:"id" db:"id"`
	IsEnabled      bool       `json:"is_enabled" db:"is_enabled"`
	TotalValidated int        `json:"total_validated" db:"total_validated"`
	ErrorsCount    int        `json:"errors_count" db:"errors_count"`
	StartedAt      *time.Time `json:"started_at,omitempty" db:"started_at"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
}
