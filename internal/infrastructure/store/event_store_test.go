package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/infrastructure/store/mocks"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rated struct {
	Rating int `json:"rating"`
}

func TestEventStore_Append_Success(t *testing.T) {
	backend := kv.NewMemoryBackend()
	es := store.NewEventStore(backend, nil)
	ctx := context.Background()

	event, err := es.Append(ctx, "1", "Product", "ProductRated", rated{Rating: 4})

	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "1", event.AggregateID)
	assert.Equal(t, "Product", event.AggregateType)
	assert.Equal(t, "ProductRated", event.EventType)
	assert.JSONEq(t, `{"rating":4}`, string(event.Data))
	assert.False(t, event.Timestamp.IsZero())

	entries, err := backend.Range(ctx, "events:Product")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEventStore_GetEvents_FiltersByAggregate(t *testing.T) {
	es := store.NewEventStore(kv.NewMemoryBackend(), nil)
	ctx := context.Background()

	_, err := es.Append(ctx, "1", "Product", "ProductRated", rated{Rating: 5})
	require.NoError(t, err)
	_, err = es.Append(ctx, "2", "Product", "ProductRated", rated{Rating: 1})
	require.NoError(t, err)
	_, err = es.Append(ctx, "1", "Product", "ProductRated", rated{Rating: 3})
	require.NoError(t, err)
	_, err = es.Append(ctx, "1", "Order", "OrderPlaced", map[string]string{})
	require.NoError(t, err)

	events, err := es.GetEvents(ctx, "Product", "1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	var first, second rated
	require.NoError(t, events[0].Decode(&first))
	require.NoError(t, events[1].Decode(&second))
	assert.Equal(t, 5, first.Rating)
	assert.Equal(t, 3, second.Rating)

	all, err := es.GetEventsByType(ctx, "Product")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEventStore_GetEventsByType_SkipsCorruptEntries(t *testing.T) {
	backend := kv.NewMemoryBackend()
	es := store.NewEventStore(backend, nil)
	ctx := context.Background()

	require.NoError(t, backend.Append(ctx, "events:Product", []byte(`garbage`)))
	require.NoError(t, backend.Append(ctx, "events:Product", []byte(`{"aggregate_id":"1"}`)))
	_, err := es.Append(ctx, "1", "Product", "ProductRated", rated{Rating: 2})
	require.NoError(t, err)

	events, err := es.GetEventsByType(ctx, "Product")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStore_Append_BackendError(t *testing.T) {
	backend := kv.NewMemoryBackend()
	require.NoError(t, backend.Close())
	publisher := &mocks.MockPublisher{}
	es := store.NewEventStore(backend, publisher)

	event, err := es.Append(context.Background(), "1", "Product", "ProductRated", rated{Rating: 2})

	assert.ErrorIs(t, err, kv.ErrClosed)
	assert.Nil(t, event)
	assert.Empty(t, publisher.Published)
}

func TestEventStore_Append_Publishes(t *testing.T) {
	publisher := &mocks.MockPublisher{}
	es := store.NewEventStore(kv.NewMemoryBackend(), publisher)

	event, err := es.Append(context.Background(), "ORD-1", "Order", "OrderPlaced", map[string]string{"id": "ORD-1"})

	require.NoError(t, err)
	require.Len(t, publisher.Published, 1)
	assert.Equal(t, "ORD-1", publisher.Published[0].Key)
	assert.Equal(t, *event, publisher.Published[0].Event)
}

func TestEventStore_Append_PublishFailureIsNotReturned(t *testing.T) {
	publisher := &mocks.MockPublisher{PublishErr: errors.New("broker down")}
	backend := kv.NewMemoryBackend()
	es := store.NewEventStore(backend, publisher)
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("error"))

	event, err := es.Append(ctx, "ORD-1", "Order", "OrderPlaced", map[string]string{})

	require.NoError(t, err)
	assert.NotNil(t, event)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("error")))

	events, err := es.GetEventsByType(ctx, "Order")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
