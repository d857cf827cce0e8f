package models

import "time"

// OrderRow is a free-text order record from the legacy source. It is consumed
// as match input only; this service never owns or mutates orders.
type OrderRow struct {
	SourceID string     `json:"source_id"`
	Name     string     `json:"name"`
	Phone    *string    `json:"phone,omitempty"`
	Total    float64    `json:"total"`
	Date     *time.Time `json:"date,omitempty"`
}
