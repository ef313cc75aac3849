package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() config.Config {
	return config.Config{
		StoreDriver:  config.DriverMemory,
		PasswordMode: config.PasswordPlaintext,
		JWTSecret:    testSecret,
		TokenTTL:     time.Hour,
		SeedData:     true,
	}
}

func TestNew_MemoryDriver(t *testing.T) {
	a, err := New(context.Background(), testConfig(), Options{})
	require.NoError(t, err)
	defer a.Close()

	products, err := a.Queries.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products, "seed catalog")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDriver = "cassandra"

	a, err := New(context.Background(), cfg, Options{})

	assert.ErrorIs(t, err, config.ErrUnknownDriver)
	assert.Nil(t, a)
}

func TestBuild_TokenWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""

	_, err := Build(cfg, kv.NewMemoryBackend(), Options{Token: "abc"})

	assert.ErrorIs(t, err, ErrTokenWithoutSecret)
}

func TestBuild_SeedDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SeedData = false
	a, err := Build(cfg, kv.NewMemoryBackend(), Options{})
	require.NoError(t, err)

	products, err := a.Queries.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

// ============================================
// End-to-end shopping flow
// ============================================

func TestApp_ShoppingFlow(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryBackend()
	a, err := Build(testConfig(), backend, Options{})
	require.NoError(t, err)

	_, err = a.Commands.Register(ctx, command.Register{Username: "alice", Password: "pw", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = a.Commands.Login(ctx, command.Login{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, a.Commands.AddToCart(ctx, command.AddToCart{ProductID: "3", Quantity: 2}))
	o, err := a.Commands.Checkout(ctx, command.Checkout{PaymentMethod: "card"})
	require.NoError(t, err)
	require.NoError(t, a.Commands.PayOrder(ctx, command.PayOrder{OrderID: o.ID}))
	_, err = a.Commands.RateProduct(ctx, command.RateProduct{ProductID: "3", Rating: 5})
	require.NoError(t, err)

	_, err = a.Commands.Login(ctx, command.Login{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	count, err := a.Queries.PendingReviewCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, a.Commands.ReviewOrder(ctx, command.ReviewOrder{OrderID: o.ID}))
	require.NoError(t, a.Commands.SetOrderStatus(ctx, command.SetOrderStatus{OrderID: o.ID, Status: "Enviado"}))

	detail, ok, err := a.Queries.GetProduct(ctx, "3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, detail.PurchaseCount)
	assert.InDelta(t, 5.0, detail.AverageRating, 1e-9)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "alice", detail.Reviews[0].Username)

	stored, _, err := a.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, stored.Status)
	assert.False(t, stored.IsNewForAdmin)

	inbox, err := a.Queries.Notifications(ctx, o.UserID)
	require.NoError(t, err)
	assert.Len(t, inbox.Notifications, 4, "placed, paid, in progress, shipped")
}

func TestApp_TokenSession(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryBackend()

	first, err := Build(testConfig(), backend, Options{})
	require.NoError(t, err)
	_, err = first.Commands.Login(ctx, command.Login{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	token, err := first.IssueToken(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Commands.Logout(ctx))

	second, err := Build(testConfig(), backend, Options{Token: token})
	require.NoError(t, err)
	u, err := second.Users.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "admin", u.Username)

	_, err = first.IssueToken(ctx)
	assert.ErrorIs(t, err, order.ErrNoAuthenticatedUser)
}
