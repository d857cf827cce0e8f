// Package events turns pipeline outcomes into Kafka lifecycle events.
// Emission is best-effort: a broker outage must never fail a sync or
// enrichment run, so every failure is logged and swallowed here.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Event types emitted by the pipeline.
const (
	EventCustomerSynced   = "customer.synced"
	EventCustomerEnriched = "customer.enriched"
)

// Publisher is the producer surface the emitter needs.
type Publisher interface {
	PublishCustomerEvents(ctx context.Context, events []*kafka.CustomerEvent) error
	PublishCustomerEvent(ctx context.Context, event *kafka.CustomerEvent) error
}

// Emitter publishes customer lifecycle events. A nil producer disables
// emission entirely.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates an emitter. producer may be nil when Kafka is not
// configured.
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

type syncedPayload struct {
	ValueTier   models.ValueTier   `json:"value_tier"`
	RecencyTier models.RecencyTier `json:"recency_tier"`
	IsLapsed    bool               `json:"is_lapsed_high_value"`
}

type enrichedPayload struct {
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	GeoLabel       *string  `json:"geo_label"`
	AddressQuality *int     `json:"address_quality"`
}

// EmitCustomerSynced publishes one customer.synced event per upserted record.
func (e *Emitter) EmitCustomerSynced(ctx context.Context, customers []models.Customer) {
	if e.producer == nil || len(customers) == 0 {
		return
	}

	events := make([]*kafka.CustomerEvent, 0, len(customers))
	for _, c := range customers {
		data, err := json.Marshal(syncedPayload{
			ValueTier:   c.ValueTier,
			RecencyTier: c.RecencyTier,
			IsLapsed:    c.IsLapsedHighValue,
		})
		if err != nil {
			continue
		}
		events = append(events, &kafka.CustomerEvent{
			EventType:  EventCustomerSynced,
			ExternalID: c.ExternalID,
			Source:     c.Source,
			Data:       data,
		})
	}

	if err := e.producer.PublishCustomerEvents(ctx, events); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warnf("Failed to emit %d customer.synced events", len(events))
	}
}

// EmitCustomerEnriched publishes a customer.enriched event for one record.
func (e *Emitter) EmitCustomerEnriched(ctx context.Context, c models.Customer) {
	if e.producer == nil {
		return
	}

	data, err := json.Marshal(enrichedPayload{
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
		GeoLabel:       c.GeoLabel,
		AddressQuality: c.AddressQuality,
	})
	if err != nil {
		return
	}

	event := &kafka.CustomerEvent{
		EventType:  EventCustomerEnriched,
		ExternalID: c.ExternalID,
		Source:     c.Source,
		Data:       data,
	}

	if err := e.producer.PublishCustomerEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warnf("Failed to emit customer.enriched event for %d", c.ExternalID)
	}
}
