package cart

import (
	"context"
	"testing"

	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService() (*Service, *kv.MemoryBackend) {
	backend := kv.NewMemoryBackend()
	return NewService(backend), backend
}

func laptop(qty int) Item {
	return Item{ProductID: "1", Name: "Laptop", Price: decimal.NewFromInt(1000), Quantity: qty}
}

func mug(qty int) Item {
	return Item{ProductID: "2", Name: "Mug", Price: decimal.RequireFromString("9.99"), Quantity: qty}
}

// ============================================
// Add Tests
// ============================================

func TestService_Add_MergesSameProduct(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	require.NoError(t, service.Add(ctx, "u1", laptop(1)))
	require.NoError(t, service.Add(ctx, "u1", mug(2)))
	require.NoError(t, service.Add(ctx, "u1", laptop(2)))

	items, err := service.Items(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 2, items[1].Quantity)
}

func TestService_Add_Validation(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr error
	}{
		{"missing product", Item{Quantity: 1}, ErrInvalidProduct},
		{"zero quantity", laptop(0), ErrInvalidQuantity},
		{"negative quantity", laptop(-2), ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, backend := newTestCartService()
			err := service.Add(context.Background(), "u1", tt.item)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, backend.Snapshot())
		})
	}
}

func TestService_CartsArePerUser(t *testing.T) {
	service, backend := newTestCartService()
	ctx := context.Background()

	require.NoError(t, service.Add(ctx, "u1", laptop(1)))
	require.NoError(t, service.Add(ctx, "u2", mug(1)))
	require.NoError(t, service.Add(ctx, "", mug(4)))

	snap := backend.Snapshot()
	assert.Contains(t, snap, "ecommerceCart:u1")
	assert.Contains(t, snap, "ecommerceCart:u2")
	assert.Contains(t, snap, "ecommerceCart")

	items, err := service.Items(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ProductID)
}

// ============================================
// Remove / UpdateQuantity / Clear Tests
// ============================================

func TestService_Remove(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()
	require.NoError(t, service.Add(ctx, "u1", laptop(1)))
	require.NoError(t, service.Add(ctx, "u1", mug(1)))

	require.NoError(t, service.Remove(ctx, "u1", "1"))

	items, err := service.Items(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ProductID)
}

func TestService_Remove_MissingIsNoOp(t *testing.T) {
	service, backend := newTestCartService()
	ctx := context.Background()
	require.NoError(t, service.Add(ctx, "u1", laptop(1)))
	before := backend.Snapshot()

	require.NoError(t, service.Remove(ctx, "u1", "404"))

	assert.Equal(t, before, backend.Snapshot())
}

func TestService_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		wantLines int
		wantQty   int
	}{
		{"increase", 5, 1, 5},
		{"zero removes", 0, 0, 0},
		{"negative removes", -1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestCartService()
			ctx := context.Background()
			require.NoError(t, service.Add(ctx, "u1", laptop(2)))

			require.NoError(t, service.UpdateQuantity(ctx, "u1", "1", tt.quantity))

			items, err := service.Items(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, items, tt.wantLines)
			if tt.wantLines > 0 {
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			}
		})
	}
}

func TestService_UpdateQuantity_MissingLineIsNoOp(t *testing.T) {
	service, backend := newTestCartService()

	require.NoError(t, service.UpdateQuantity(context.Background(), "u1", "1", 3))

	assert.Empty(t, backend.Snapshot())
}

func TestService_Clear(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()
	require.NoError(t, service.Add(ctx, "u1", laptop(1)))

	require.NoError(t, service.Clear(ctx, "u1"))

	items, err := service.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

// ============================================
// Totals Tests
// ============================================

func TestService_Totals(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()
	require.NoError(t, service.Add(ctx, "u1", laptop(2)))
	require.NoError(t, service.Add(ctx, "u1", mug(3)))

	count, err := service.TotalItems(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	total, err := service.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2029.97").Equal(total), "got %s", total)
}

func TestService_Totals_EmptyCart(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	count, err := service.TotalItems(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	total, err := service.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestService_Items_CorruptCartIsEmpty(t *testing.T) {
	service, backend := newTestCartService()
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, Key("u1"), []byte(`"oops"`)))

	items, err := service.Items(ctx, "u1")

	require.NoError(t, err)
	assert.Empty(t, items)
}
