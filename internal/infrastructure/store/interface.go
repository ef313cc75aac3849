package store

import "context"

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	// GetEvents returns the events of one aggregate in append order.
	GetEvents(ctx context.Context, aggregateType, aggregateID string) ([]Event, error)
	// GetEventsByType returns every event of an aggregate type in append order.
	GetEventsByType(ctx context.Context, aggregateType string) ([]Event, error)
}

// Publisher forwards stored events to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}
