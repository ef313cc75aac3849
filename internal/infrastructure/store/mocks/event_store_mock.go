package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore is a mock implementation of EventStoreInterface for testing
type MockEventStore struct {
	mu     sync.RWMutex
	events map[string][]store.Event // aggregateType -> events

	// For tracking calls in tests
	AppendCalls    []AppendCall
	AppendErr      error
	GetErr         error
	AppendCallback func(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error)
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:      make(map[string][]store.Event),
		AppendCalls: make([]AppendCall, 0),
	}
}

// Append stores an event in memory
func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
	callback, appendErr := m.AppendCallback, m.AppendErr
	m.mu.Unlock()

	if callback != nil {
		return callback(ctx, aggregateID, aggregateType, eventType, data)
	}
	if appendErr != nil {
		return nil, appendErr
	}

	event, err := newEvent(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[aggregateType] = append(m.events[aggregateType], event)
	return &event, nil
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateType, aggregateID string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []store.Event
	for _, e := range m.events[aggregateType] {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) GetEventsByType(ctx context.Context, aggregateType string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return append([]store.Event(nil), m.events[aggregateType]...), nil
}

// CallsOfType returns the recorded Append calls with the given event type.
func (m *MockEventStore) CallsOfType(eventType string) []AppendCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AppendCall
	for _, c := range m.AppendCalls {
		if c.EventType == eventType {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears all events and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.AppendCalls = make([]AppendCall, 0)
	m.AppendErr = nil
	m.GetErr = nil
	m.AppendCallback = nil
}

// AddEvent adds a single event for testing
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	event, err := newEvent(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[aggregateType] = append(m.events[aggregateType], event)
	return nil
}

func newEvent(aggregateID, aggregateType, eventType string, data any) (store.Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return store.Event{}, err
	}
	return store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// MockPublisher records published events.
type MockPublisher struct {
	mu         sync.Mutex
	Published  []PublishCall
	PublishErr error
}

type PublishCall struct {
	Key   string
	Event any
}

func (p *MockPublisher) Publish(ctx context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, PublishCall{Key: key, Event: event})
	return p.PublishErr
}

// Compile-time interface compliance checks
var (
	_ store.EventStoreInterface = (*MockEventStore)(nil)
	_ store.Publisher           = (*MockPublisher)(nil)
)
