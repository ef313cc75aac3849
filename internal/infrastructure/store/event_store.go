package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/google/uuid"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (e Event) Validate() error {
	if e.ID == "" || e.AggregateType == "" || e.EventType == "" {
		return errors.New("event is missing id, aggregate_type or event_type")
	}
	return nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", e.EventType, e.ID, err)
	}
	return nil
}

// StreamPrefix prefixes the log stream holding one aggregate type's events.
const StreamPrefix = "events:"

func StreamName(aggregateType string) string {
	return StreamPrefix + aggregateType
}

// EventStore appends domain events to a kv.Log, one stream per aggregate
// type, and hands each stored event to the publisher when one is set.
type EventStore struct {
	log       kv.Log
	publisher Publisher
}

// NewEventStore creates an event store over l. publisher may be nil.
func NewEventStore(l kv.Log, publisher Publisher) *EventStore {
	return &EventStore{log: l, publisher: publisher}
}

// Append stores an event and publishes it. A publish failure does not undo
// the append; it is logged and counted.
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now().UTC(),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	if err := es.log.Append(ctx, StreamName(aggregateType), raw); err != nil {
		return nil, fmt.Errorf("append %s: %w", eventType, err)
	}

	if es.publisher != nil {
		if err := es.publisher.Publish(ctx, aggregateID, event); err != nil {
			log.Printf("[EventStore] Failed to publish %s for %s: %v", eventType, aggregateID, err)
			metrics.EventsPublished.WithLabelValues("error").Inc()
		} else {
			metrics.EventsPublished.WithLabelValues("ok").Inc()
		}
	}

	return &event, nil
}

func (es *EventStore) GetEvents(ctx context.Context, aggregateType, aggregateID string) ([]Event, error) {
	all, err := es.GetEventsByType(ctx, aggregateType)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(all))
	for _, e := range all {
		if e.AggregateID == aggregateID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (es *EventStore) GetEventsByType(ctx context.Context, aggregateType string) ([]Event, error) {
	stream := StreamName(aggregateType)
	entries, err := es.log.Range(ctx, stream)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", stream, err)
	}
	return kv.DecodeEntries[Event](stream, entries), nil
}

// Compile-time interface compliance check
var _ EventStoreInterface = (*EventStore)(nil)
