package query

import (
	"context"
	"testing"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler  *Handler
	products *product.Service
	reviews  *review.Service
	carts    *cart.Service
	orders   *order.Service
}

var (
	alice = &user.User{ID: "u1", Username: "alice", Role: user.RoleUser}
	bob   = &user.User{ID: "u2", Username: "bob", Role: user.RoleUser}
)

func newTestQueryHandler() *testEnv {
	backend := kv.NewMemoryBackend()
	es := store.NewEventStore(backend, nil)
	seedUsers := func() []user.User {
		return []user.User{
			{ID: "u1", Username: "alice", Password: "pw", Role: user.RoleUser},
			{ID: "u2", Username: "bob", Password: "pw", Role: user.RoleUser},
		}
	}
	seedProducts := func() []product.Product {
		return []product.Product{
			{ID: "1", Name: "Laptop", Price: decimal.NewFromInt(1000), Stock: 5, Category: "Electronics"},
			{ID: "2", Name: "Mug", Price: decimal.NewFromInt(10), Stock: 50, Category: "Kitchen"},
			{ID: "3", Name: "Kettle", Price: decimal.NewFromInt(30), Stock: 8, Category: "Kitchen"},
		}
	}

	env := &testEnv{}
	users := user.NewService(backend, es, user.NewPersistentSession(backend), nil, seedUsers)
	env.products = product.NewService(backend, es, seedProducts)
	env.reviews = review.NewService(backend)
	env.carts = cart.NewService(backend)
	env.orders = order.NewService(backend, es, env.products)
	env.handler = NewHandler(users, env.products, env.reviews, env.carts, env.orders)
	return env
}

func (env *testEnv) place(t *testing.T, buyer *user.User, items ...order.Item) *order.Order {
	t.Helper()
	o, err := env.orders.Place(context.Background(), buyer, items, nil, "")
	require.NoError(t, err)
	return o
}

func line(productID string, price int64, qty int) order.Item {
	return order.Item{ProductID: productID, Name: "item " + productID, Price: decimal.NewFromInt(price), Quantity: qty}
}

func (env *testEnv) rate(t *testing.T, productID, userID string, rating int) {
	t.Helper()
	ctx := context.Background()
	_, err := env.reviews.AddReview(ctx, productID, userID, rating, "")
	require.NoError(t, err)
	require.NoError(t, env.products.AddRating(ctx, productID, rating))
}

// ============================================
// Product Query Tests
// ============================================

func TestHandler_ListProducts_AverageRating(t *testing.T) {
	env := newTestQueryHandler()
	env.rate(t, "1", "u1", 5)
	env.rate(t, "1", "u2", 2)

	products, err := env.handler.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.InDelta(t, 3.5, products[0].AverageRating, 1e-9)
	assert.Equal(t, 2, products[0].RatingCount)
	assert.Zero(t, products[1].AverageRating)
}

func TestHandler_GetProduct_WithReviews(t *testing.T) {
	env := newTestQueryHandler()
	env.rate(t, "2", "u1", 4)
	env.rate(t, "2", "u2", 5)

	p, found, err := env.handler.GetProduct(context.Background(), "2")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Mug", p.Name)
	require.Len(t, p.Reviews, 2)
	assert.Equal(t, "bob", p.Reviews[0].Username)
	assert.Equal(t, "alice", p.Reviews[1].Username)
}

func TestHandler_GetProduct_NotFound(t *testing.T) {
	env := newTestQueryHandler()

	p, found, err := env.handler.GetProduct(context.Background(), "non-existent")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, p)
}

func TestHandler_SearchProducts(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()

	kitchen, err := env.handler.SearchProducts(ctx, "", "kitchen")
	require.NoError(t, err)
	assert.Len(t, kitchen, 2)

	mugs, err := env.handler.SearchProducts(ctx, "MUG", "")
	require.NoError(t, err)
	require.Len(t, mugs, 1)
	assert.Equal(t, "2", mugs[0].ID)

	categories, err := env.handler.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Kitchen"}, categories)
}

// ============================================
// Ranking Tests
// ============================================

func TestHandler_TopSelling(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()
	env.place(t, alice, line("2", 10, 3), line("1", 1000, 1))
	env.place(t, bob, line("2", 10, 2), line("404", 5, 50))

	top, err := env.handler.TopSelling(ctx, 5)

	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "2", top[0].ProductID)
	assert.Equal(t, 5, top[0].TotalSold)
	assert.Equal(t, "1", top[1].ProductID)

	one, err := env.handler.TopSelling(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestHandler_TopSelling_ReusedIDKeepsOrderLines(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()
	env.place(t, alice, line("3", 30, 4))
	require.NoError(t, env.products.Delete(ctx, "3"))

	replacement, err := env.products.Add(ctx, product.Input{Name: "Teapot", Price: decimal.NewFromInt(25), Category: "Kitchen"})
	require.NoError(t, err)
	require.Equal(t, "3", replacement.ID)

	top, err := env.handler.TopSelling(ctx, 5)

	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "3", top[0].ProductID)
	assert.Equal(t, "Teapot", top[0].Name, "lines are ranked under the current catalog entry")
	assert.Equal(t, 4, top[0].TotalSold)
}

func TestHandler_TopRated(t *testing.T) {
	env := newTestQueryHandler()
	env.rate(t, "1", "u1", 4)
	env.rate(t, "2", "u1", 4)
	env.rate(t, "2", "u2", 4)

	top, err := env.handler.TopRated(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, top, 2, "unrated products are left out")
	assert.Equal(t, "2", top[0].ID, "ties go to the product with more ratings")
	assert.Equal(t, "1", top[1].ID)
}

// ============================================
// Cart Query Tests
// ============================================

func TestHandler_GetCart(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()
	require.NoError(t, env.carts.Add(ctx, "u1", cart.Item{ProductID: "1", Name: "Laptop", Price: decimal.NewFromInt(1000), Quantity: 2}))
	require.NoError(t, env.carts.Add(ctx, "u1", cart.Item{ProductID: "2", Name: "Mug", Price: decimal.RequireFromString("9.50"), Quantity: 3}))

	view, err := env.handler.GetCart(ctx, "u1")

	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 5, view.TotalItems)
	assert.True(t, decimal.RequireFromString("2028.50").Equal(view.Total), "got %s", view.Total)
	assert.True(t, decimal.RequireFromString("28.50").Equal(view.Items[1].Subtotal))
}

func TestHandler_GetCart_Empty(t *testing.T) {
	env := newTestQueryHandler()

	view, err := env.handler.GetCart(context.Background(), "user-with-no-cart")

	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_ListOrdersByUser(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()
	first := env.place(t, alice, line("1", 1000, 1))
	second := env.place(t, alice, line("2", 10, 1))
	env.place(t, bob, line("2", 10, 1))

	orders, err := env.handler.ListOrdersByUser(ctx, "u1")

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	all, err := env.handler.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHandler_GetOrder(t *testing.T) {
	env := newTestQueryHandler()
	o := env.place(t, alice, line("1", 1000, 1))

	got, found, err := env.handler.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, order.StatusPending, got.Status)

	_, found, err = env.handler.GetOrder(context.Background(), "non-existent")
	require.NoError(t, err)
	assert.False(t, found)
}

// ============================================
// Dashboard Tests
// ============================================

func TestHandler_Dashboard(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()
	first := env.place(t, alice, line("1", 1000, 1))
	second := env.place(t, alice, line("2", 10, 2))
	env.place(t, bob, line("3", 30, 1))
	require.NoError(t, env.orders.MarkAsReviewed(ctx, first.ID))
	require.NoError(t, env.orders.UpdateStatus(ctx, second.ID, order.StatusCancelled))

	d, err := env.handler.Dashboard(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalOrders)
	assert.Equal(t, 2, d.TotalUsers)
	assert.Equal(t, 3, d.TotalProducts)
	assert.Equal(t, 1, d.PendingReviewCount)
	assert.True(t, decimal.NewFromInt(1030).Equal(d.Revenue), "got %s", d.Revenue)
	assert.Equal(t, map[string]int{"En Proceso": 1, "Cancelado": 1, "Pendiente": 1}, d.OrdersByStatus)

	count, err := env.handler.PendingReviewCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.PendingReviewCount, count)
}

// ============================================
// Notification / User Query Tests
// ============================================

func TestHandler_Notifications(t *testing.T) {
	env := newTestQueryHandler()
	ctx := context.Background()
	o := env.place(t, alice, line("1", 1000, 1))
	require.NoError(t, env.orders.UpdateStatus(ctx, o.ID, order.StatusShipped))
	notifs, err := env.orders.NotificationsForUser(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, env.orders.MarkNotificationAsRead(ctx, notifs[1].ID))

	view, err := env.handler.Notifications(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, view.UnreadCount)
	require.Len(t, view.Notifications, 2)
	assert.Equal(t, "success", view.Notifications[0].Type)
	assert.Equal(t, o.ID, view.Notifications[0].RelatedOrderID)
}

func TestHandler_ListUsers_HidesPasswords(t *testing.T) {
	env := newTestQueryHandler()

	users, err := env.handler.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}
}
